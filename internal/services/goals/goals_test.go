package goals

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/findosh/spendwatch/internal/apperr"
	"github.com/findosh/spendwatch/internal/logging"
	"github.com/findosh/spendwatch/internal/models"
	"github.com/findosh/spendwatch/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *models.User) {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "goals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	owner := models.NewUser("Jane Doe", "jane@example.com", "0123456789", "h", models.RoleUser)
	require.NoError(t, storage.NewUserRepository(db).Create(context.Background(), owner))

	svc := NewService(storage.NewGoalRepository(db), logging.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc, owner
}

func bike() Input {
	return Input{
		Name:         "Bike",
		TargetAmount: decimal.NewFromInt(1000),
		SavedAmount:  decimal.NewFromInt(100),
		DesiredDate:  fixedNow.AddDate(0, 0, 30),
	}
}

func TestCreateAndList(t *testing.T) {
	svc, owner := newService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, owner, bike())
	require.NoError(t, err)
	assert.False(t, g.IsReached)

	done := bike()
	done.Name = "Phone"
	done.SavedAmount = decimal.NewFromInt(1000)
	reached, err := svc.Create(ctx, owner, done)
	require.NoError(t, err)
	assert.True(t, reached.IsReached)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCreate_Validation(t *testing.T) {
	svc, owner := newService(t)

	for name, mutate := range map[string]func(*Input){
		"missing name":   func(in *Input) { in.Name = "" },
		"zero target":    func(in *Input) { in.TargetAmount = decimal.Zero },
		"missing date":   func(in *Input) { in.DesiredDate = time.Time{} },
		"negative saved": func(in *Input) { in.SavedAmount = decimal.NewFromInt(-1) },
	} {
		t.Run(name, func(t *testing.T) {
			in := bike()
			mutate(&in)
			_, err := svc.Create(context.Background(), owner, in)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestAddSaving(t *testing.T) {
	svc, owner := newService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, owner, bike())
	require.NoError(t, err)

	_, err = svc.AddSaving(ctx, owner, g.ID, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	g, err = svc.AddSaving(ctx, owner, g.ID, decimal.NewFromInt(400))
	require.NoError(t, err)
	assert.Equal(t, "500", g.SavedAmount.String())
	assert.False(t, g.IsReached)

	g, err = svc.AddSaving(ctx, owner, g.ID, decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.True(t, g.IsReached)

	stored, err := svc.Get(ctx, owner, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000", stored.SavedAmount.String())
	assert.True(t, stored.IsReached)

	_, err = svc.AddSaving(ctx, owner, uuid.New(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAndMarkReached(t *testing.T) {
	svc, owner := newService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, owner, bike())
	require.NoError(t, err)

	_, err = svc.Update(ctx, owner, g.ID, UpdateInput{})
	assert.ErrorIs(t, err, ErrNoChanges)

	name := "Road bike"
	target := decimal.NewFromInt(2000)
	g, err = svc.Update(ctx, owner, g.ID, UpdateInput{Name: &name, TargetAmount: &target})
	require.NoError(t, err)
	assert.Equal(t, "Road bike", g.Name)
	assert.False(t, g.IsReached)

	g, err = svc.MarkReached(ctx, owner, g.ID)
	require.NoError(t, err)
	assert.True(t, g.IsReached)

	stored, err := svc.Get(ctx, owner, g.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsReached)
	assert.Equal(t, "2000", stored.TargetAmount.String())
}

func TestProgress(t *testing.T) {
	svc, owner := newService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, owner, bike())
	require.NoError(t, err)

	p, err := svc.Progress(ctx, owner, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "10", p.Percent.String())
	assert.Equal(t, "900", p.Remaining.String())
	assert.Equal(t, 5, p.WeeksLeft)
	assert.Equal(t, "180", p.PerWeekNeeded.String())
}

func TestDelete(t *testing.T) {
	svc, owner := newService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, owner, bike())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner, g.ID))
	assert.ErrorIs(t, svc.Delete(ctx, owner, g.ID), ErrNotFound)

	_, err = svc.Progress(ctx, owner, g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
