package application

import (
	"sort"
	"time"

	"github.com/jhalmu/dividendsomatic/internal/domain"
)

// PositionRecord is one entry of the flattened position timeline: the
// holding of one instrument on one snapshot date, with the FX rate that
// applied that day.
type PositionRecord struct {
	Date     time.Time
	Symbol   string
	ISIN     string
	Quantity domain.Decimal
	FxRate   domain.Decimal
	Currency string
}

// BuildTimeline flattens snapshot history into position records for the
// [from, to] range. All positions of every snapshot whose report date
// falls in range are included, plus the positions of the single most
// recent snapshot strictly before from, so dividends with an ex-date
// near the range start can still resolve the holding that earned them.
//
// Pure function: no side effects, never fails. When no snapshot
// qualifies the result is an empty slice.
func BuildTimeline(snapshots []domain.PortfolioSnapshot, from, to time.Time) []PositionRecord {
	var lookback *domain.PortfolioSnapshot
	inRange := make([]domain.PortfolioSnapshot, 0, len(snapshots))

	for i := range snapshots {
		s := snapshots[i]
		switch {
		case s.ReportDate.Before(from):
			if lookback == nil || s.ReportDate.After(lookback.ReportDate) {
				lookback = &snapshots[i]
			}
		case !s.ReportDate.After(to):
			inRange = append(inRange, s)
		}
	}

	records := make([]PositionRecord, 0, len(inRange)*8)
	if lookback != nil {
		records = appendSnapshot(records, *lookback)
	}

	sort.SliceStable(inRange, func(i, j int) bool {
		return inRange[i].ReportDate.Before(inRange[j].ReportDate)
	})
	for _, s := range inRange {
		records = appendSnapshot(records, s)
	}
	return records
}

func appendSnapshot(records []PositionRecord, s domain.PortfolioSnapshot) []PositionRecord {
	for _, p := range s.Positions {
		records = append(records, PositionRecord{
			Date:     s.ReportDate,
			Symbol:   p.Symbol,
			ISIN:     p.ISIN,
			Quantity: p.Quantity,
			FxRate:   p.FxRate,
			Currency: p.Currency,
		})
	}
	return records
}
