// Package alerts evaluates budgets after spending changes and notifies the
// owner once when a budget is exceeded
package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/findosh/spendwatch/internal/logging"
	"github.com/findosh/spendwatch/internal/mailer"
	"github.com/findosh/spendwatch/internal/models"
	"github.com/findosh/spendwatch/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetStore exposes the budgets an evaluation needs and the atomic alert flag
type BudgetStore interface {
	ListCoveringCategory(ctx context.Context, userID uuid.UUID, category string) ([]*models.Budget, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Budget, error)
	CompareAndSetNotified(ctx context.Context, id uuid.UUID, from, to bool) (bool, error)
}

// SpendAggregator sums spend over a window
type SpendAggregator interface {
	SumSpend(ctx context.Context, userID uuid.UUID, categories []string, w models.Window) (decimal.Decimal, error)
}

// Dispatcher runs the budget alert state machine
type Dispatcher struct {
	budgets BudgetStore
	spend   SpendAggregator
	mailer  mailer.Mailer
	locks   *keyedMutex
	now     func() time.Time
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher
func NewDispatcher(budgets BudgetStore, spend SpendAggregator, m mailer.Mailer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		budgets: budgets,
		spend:   spend,
		mailer:  m,
		locks:   newKeyedMutex(),
		now:     time.Now,
		logger:  logging.Component(logger, logging.ComponentAlerts),
	}
}

// EvaluateCategories re-evaluates every active budget of owner that covers
// any of the categories. Each budget is evaluated once.
func (d *Dispatcher) EvaluateCategories(ctx context.Context, owner *models.User, categories ...string) error {
	seen := make(map[uuid.UUID]bool)
	for _, category := range categories {
		budgets, err := d.budgets.ListCoveringCategory(ctx, owner.ID, category)
		if err != nil {
			return fmt.Errorf("failed to load budgets for %q: %w", category, err)
		}
		for _, b := range budgets {
			if seen[b.ID] {
				continue
			}
			seen[b.ID] = true
			if _, err := d.Evaluate(ctx, owner, b); err != nil {
				return err
			}
		}
	}
	return nil
}

// Evaluate reloads b, recomputes its spend and applies the hysteresis rule
// to the stored alert flag. A budget deleted since b was read is skipped. The
// flag flip is a compare-and-swap in the store; only the caller that wins the
// Normal to Alerted flip sends the notification. Notification failures are
// logged and do not undo the flip.
func (d *Dispatcher) Evaluate(ctx context.Context, owner *models.User, b *models.Budget) (models.Transition, error) {
	unlock := d.locks.Lock(b.ID)
	defer unlock()

	current, err := d.budgets.GetByID(ctx, owner.ID, b.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.TransitionNone, nil
	}
	if err != nil {
		return models.TransitionNone, fmt.Errorf("failed to reload budget %s: %w", b.ID, err)
	}

	spent, err := d.spend.SumSpend(ctx, owner.ID, current.Categories, current.Window(d.now().UTC()))
	if err != nil {
		return models.TransitionNone, fmt.Errorf("failed to sum spend for budget %s: %w", b.ID, err)
	}

	tr := models.NextTransition(current.Notified, spent, current.Amount)
	switch tr {
	case models.TransitionBreach:
		won, err := d.budgets.CompareAndSetNotified(ctx, b.ID, false, true)
		if err != nil || !won {
			return models.TransitionNone, err
		}
		d.notify(ctx, owner, current, spent)
	case models.TransitionRecover:
		won, err := d.budgets.CompareAndSetNotified(ctx, b.ID, true, false)
		if err != nil || !won {
			return models.TransitionNone, err
		}
		d.logger.InfoContext(ctx, "budget back within limit", logging.FieldBudgetID, b.ID, "spent", spent.String())
	}
	return tr, nil
}

func (d *Dispatcher) notify(ctx context.Context, owner *models.User, b *models.Budget, spent decimal.Decimal) {
	alert := models.NewBudgetExceededAlert(b, spent)
	msg := mailer.Message{
		To:      owner.Email,
		Subject: alert.Title,
		Body: fmt.Sprintf("Hello %s,\n\n%s\n\nStay on track with your spending goals!\n",
			owner.Name, alert.Message),
	}

	if err := d.mailer.Send(ctx, msg); err != nil {
		d.logger.ErrorContext(ctx, "failed to send budget alert",
			logging.FieldBudgetID, b.ID,
			logging.FieldUserID, owner.ID,
			logging.FieldError, err,
		)
		return
	}
	d.logger.InfoContext(ctx, "budget alert sent",
		logging.FieldBudgetID, b.ID,
		logging.FieldUserID, owner.ID,
		"spent", spent.String(),
		"limit", b.Amount.String(),
	)
}
