package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/findosh/spendwatch/internal/apperr"
	"github.com/findosh/spendwatch/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubTotals struct {
	got    models.Window
	totals []models.CategoryTotal
	err    error
}

func (s *stubTotals) CategoryTotals(_ context.Context, _ uuid.UUID, w models.Window) ([]models.CategoryTotal, error) {
	s.got = w
	return s.totals, s.err
}

func TestService_Piechart(t *testing.T) {
	now := time.Date(2026, 10, 18, 15, 4, 5, 0, time.UTC)
	src := &stubTotals{totals: []models.CategoryTotal{
		{Category: "Housing", Total: decimal.NewFromInt(900)},
		{Category: "Food & Drinks", Total: decimal.NewFromInt(120)},
		{Category: "Legacy", Total: decimal.NewFromInt(5)},
	}}
	svc := NewService(src)
	svc.now = func() time.Time { return now }

	got, err := svc.Piechart(context.Background(), &models.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("Piechart() error: %v", err)
	}

	wantStart := time.Date(2026, 9, 18, 15, 4, 5, 0, time.UTC)
	if !src.got.Start.Equal(wantStart) {
		t.Errorf("window start = %v, want %v", src.got.Start, wantStart)
	}
	if !src.got.Contains(now) {
		t.Error("window should include now")
	}

	colors := []string{"#f8961e", "#f94144", models.DefaultCategoryColor}
	for i, c := range colors {
		if got[i].Color != c {
			t.Errorf("%s colour = %s, want %s", got[i].Category, got[i].Color, c)
		}
	}
}

func TestService_Piechart_Error(t *testing.T) {
	svc := NewService(&stubTotals{err: errors.New("disk I/O error")})

	_, err := svc.Piechart(context.Background(), &models.User{ID: uuid.New()})
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Errorf("expected internal error, got %v", err)
	}
}
