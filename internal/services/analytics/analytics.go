// Package analytics summarizes spending for charts
package analytics

import (
	"context"
	"time"

	"github.com/findosh/spendwatch/internal/apperr"
	"github.com/findosh/spendwatch/internal/models"
	"github.com/google/uuid"
)

// PiechartDays is the trailing span covered by the category breakdown
const PiechartDays = 30

// TotalsSource sums spend per category over a window
type TotalsSource interface {
	CategoryTotals(ctx context.Context, userID uuid.UUID, w models.Window) ([]models.CategoryTotal, error)
}

// Service provides spending analytics
type Service struct {
	totals TotalsSource
	now    func() time.Time
}

// NewService creates a new analytics service
func NewService(totals TotalsSource) *Service {
	return &Service{totals: totals, now: time.Now}
}

// Piechart returns owner's spend per category over the trailing 30 days,
// largest first, each with its chart colour
func (s *Service) Piechart(ctx context.Context, owner *models.User) ([]models.CategoryTotal, error) {
	now := s.now().UTC()
	w := models.Window{
		Start: now.AddDate(0, 0, -PiechartDays),
		End:   now.Truncate(time.Second).Add(time.Second),
	}

	totals, err := s.totals.CategoryTotals(ctx, owner.ID, w)
	if err != nil {
		return nil, apperr.Internal("failed to generate pie chart data", err)
	}
	for i := range totals {
		totals[i].Color = models.CategoryColor(totals[i].Category)
	}
	return totals, nil
}
