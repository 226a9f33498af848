package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AlertType categorizes budget alerts
type AlertType string

const (
	AlertBudgetExceeded AlertType = "budget_exceeded" // spend went above the limit
)

// Severity of an alert
type Severity string

// SeverityWarning is the only level budget alerts are raised at
const SeverityWarning Severity = "warning"

// Transition is the outcome of evaluating a budget's alert state
type Transition int

const (
	TransitionNone    Transition = iota
	TransitionBreach             // Normal -> Alerted, notify the owner
	TransitionRecover            // Alerted -> Normal, silent
)

func (t Transition) String() string {
	switch t {
	case TransitionBreach:
		return "breach"
	case TransitionRecover:
		return "recover"
	default:
		return "none"
	}
}

// IsOverspent reports whether spend strictly exceeds the limit
func IsOverspent(spent, limit decimal.Decimal) bool {
	return spent.GreaterThan(limit)
}

// NextTransition applies the hysteresis rule: a budget alerts once when spend
// rises above its limit and re-arms once spend is back at or below it.
func NextTransition(notified bool, spent, limit decimal.Decimal) Transition {
	over := IsOverspent(spent, limit)
	switch {
	case over && !notified:
		return TransitionBreach
	case !over && notified:
		return TransitionRecover
	default:
		return TransitionNone
	}
}

// Alert is a notification about a budget
type Alert struct {
	Type       AlertType       `json:"type"`
	Severity   Severity        `json:"severity"`
	BudgetID   uuid.UUID       `json:"budget_id"`
	Title      string          `json:"title"`
	Message    string          `json:"message"`
	Categories []string        `json:"categories"`
	Limit      decimal.Decimal `json:"limit"`
	Spent      decimal.Decimal `json:"spent"`
}

// NewBudgetExceededAlert describes a breach of b at the given spend
func NewBudgetExceededAlert(b *Budget, spent decimal.Decimal) Alert {
	return Alert{
		Type:     AlertBudgetExceeded,
		Severity: SeverityWarning,
		BudgetID: b.ID,
		Title:    fmt.Sprintf("Budget %q exceeded", b.Name),
		Message: fmt.Sprintf("You have spent %s against your %s budget of %s for %s.",
			spent.StringFixed(2), b.Period, b.Amount.StringFixed(2), strings.Join(b.Categories, ", ")),
		Categories: b.Categories,
		Limit:      b.Amount,
		Spent:      spent,
	}
}
