package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Goal is a savings target
type Goal struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	SavedAmount  decimal.Decimal `json:"saved_amount"`
	DesiredDate  time.Time       `json:"desired_date"`
	Note         string          `json:"note,omitempty"`
	IsReached    bool            `json:"is_reached"`
	Status       Status          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewGoal creates an active goal
func NewGoal(userID uuid.UUID, name string, target, saved decimal.Decimal, desired time.Time, note string) *Goal {
	now := time.Now().UTC()
	g := &Goal{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         name,
		TargetAmount: target,
		SavedAmount:  saved,
		DesiredDate:  desired,
		Note:         note,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	g.checkReached()
	return g
}

// AddSaving increases the saved amount and marks the goal reached once the
// target is met
func (g *Goal) AddSaving(amount decimal.Decimal) {
	g.SavedAmount = g.SavedAmount.Add(amount)
	g.checkReached()
}

func (g *Goal) checkReached() {
	if !g.TargetAmount.IsZero() && g.SavedAmount.GreaterThanOrEqual(g.TargetAmount) {
		g.IsReached = true
	}
}

// GoalProgress summarizes how far a goal is from its target
type GoalProgress struct {
	Percent       decimal.Decimal `json:"progress"`
	Remaining     decimal.Decimal `json:"remaining_amount"`
	WeeksLeft     int             `json:"weeks_left"`
	PerWeekNeeded decimal.Decimal `json:"per_week_needed"`
}

// Progress computes the goal's progress at now. At least one week is always
// assumed to remain.
func (g *Goal) Progress(now time.Time) GoalProgress {
	hundred := decimal.NewFromInt(100)

	remaining := g.TargetAmount.Sub(g.SavedAmount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	weeks := int(math.Ceil(g.DesiredDate.Sub(now).Hours() / (24 * 7)))
	if weeks < 1 {
		weeks = 1
	}

	percent := decimal.Zero
	if !g.TargetAmount.IsZero() {
		percent = g.SavedAmount.Div(g.TargetAmount).Mul(hundred).Round(2)
	}

	return GoalProgress{
		Percent:       percent,
		Remaining:     remaining,
		WeeksLeft:     weeks,
		PerWeekNeeded: remaining.Div(decimal.NewFromInt(int64(weeks))).Round(2),
	}
}
