package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense is a single spending record
type Expense struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Date      time.Time       `json:"date"`
	Note      string          `json:"note,omitempty"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewExpense creates an active expense
func NewExpense(userID uuid.UUID, title string, amount decimal.Decimal, category string, date time.Time, note string) *Expense {
	now := time.Now().UTC()
	return &Expense{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Amount:    amount,
		Category:  category,
		Date:      date,
		Note:      note,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CategoryTotal is the summed spend of one category
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Color    string          `json:"color,omitempty"`
}
