package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Period is the recurrence of a budget
type Period string

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodYear    Period = "year"
	PeriodOneTime Period = "one-time"
)

// Valid reports whether p is a known period
func (p Period) Valid() bool {
	switch p {
	case PeriodWeek, PeriodMonth, PeriodYear, PeriodOneTime:
		return true
	}
	return false
}

// Budget is a spending limit over a set of categories
type Budget struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Name       string          `json:"name"`
	Period     Period          `json:"period"`
	Amount     decimal.Decimal `json:"amount"`
	Categories []string        `json:"categories"`
	Status     Status          `json:"status"`
	Notified   bool            `json:"notified"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewBudget creates an active, un-notified budget
func NewBudget(userID uuid.UUID, name string, period Period, amount decimal.Decimal, categories []string) *Budget {
	now := time.Now().UTC()
	return &Budget{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       name,
		Period:     period,
		Amount:     amount,
		Categories: categories,
		Status:     StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Covers reports whether the budget tracks the given category
func (b *Budget) Covers(category string) bool {
	for _, c := range b.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Window returns the budget's current spend window
func (b *Budget) Window(now time.Time) Window {
	return BudgetWindow(b.Period, now, b.CreatedAt)
}

// BudgetUsage pairs a budget with its spend in the current window
type BudgetUsage struct {
	*Budget
	Spent     decimal.Decimal `json:"total_spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Window    Window          `json:"window"`
}

// NewBudgetUsage computes the remaining amount; it goes negative once overspent
func NewBudgetUsage(b *Budget, spent decimal.Decimal, w Window) *BudgetUsage {
	return &BudgetUsage{
		Budget:    b,
		Spent:     spent,
		Remaining: b.Amount.Sub(spent),
		Window:    w,
	}
}
