package services

import (
	"context"
	"time"

	"bioshop/models"
)

const defaultReportWindow = 30 * 24 * time.Hour

// AnalyticsService reports order and inquiry totals over a date range.
type AnalyticsService struct {
	reader SummaryReader
	now    func() time.Time
}

func NewAnalyticsService(reader SummaryReader) *AnalyticsService {
	return &AnalyticsService{reader: reader, now: func() time.Time { return time.Now().UTC() }}
}

// Summary covers [from, to). A zero to means now; a zero from means 30 days before to.
func (s *AnalyticsService) Summary(ctx context.Context, from, to time.Time) (*models.SalesSummary, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.Add(-defaultReportWindow)
	}
	if !from.Before(to) {
		return nil, validation("from must be before to")
	}
	return s.reader.Summary(ctx, from, to)
}
