package application

import (
	"testing"
	"time"

	"github.com/jhalmu/dividendsomatic/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func snapshotWith(reportDate time.Time, positions ...domain.Position) domain.PortfolioSnapshot {
	s := domain.NewPortfolioSnapshot(reportDate, "ibkr")
	for _, p := range positions {
		if err := s.AddPosition(p); err != nil {
			panic(err)
		}
	}
	s.Finalize()
	return s
}

func position(symbol string, quantity string) domain.Position {
	return domain.NewPosition("", symbol, domain.MustDecimal(quantity),
		domain.Zero, domain.Zero, "EUR", domain.One)
}

func TestBuildTimeline_Empty(t *testing.T) {
	records := BuildTimeline(nil, date(2025, 1, 1), date(2025, 12, 31))
	if len(records) != 0 {
		t.Errorf("expected empty timeline, got %d records", len(records))
	}
}

func TestBuildTimeline_InRange(t *testing.T) {
	snapshots := []domain.PortfolioSnapshot{
		snapshotWith(date(2025, 3, 31), position("AAPL", "10")),
		snapshotWith(date(2025, 2, 28), position("AAPL", "8"), position("NOKIA", "500")),
	}

	records := BuildTimeline(snapshots, date(2025, 2, 1), date(2025, 4, 1))
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	// Snapshot order by date regardless of input order.
	if !records[0].Date.Equal(date(2025, 2, 28)) {
		t.Errorf("first record dated %s, want 2025-02-28", records[0].Date)
	}
	if !records[2].Date.Equal(date(2025, 3, 31)) {
		t.Errorf("last record dated %s, want 2025-03-31", records[2].Date)
	}
}

func TestBuildTimeline_LookbackSnapshot(t *testing.T) {
	snapshots := []domain.PortfolioSnapshot{
		snapshotWith(date(2025, 1, 10), position("AAPL", "5")),
		snapshotWith(date(2025, 1, 31), position("AAPL", "10")),
		snapshotWith(date(2025, 3, 31), position("AAPL", "12")),
	}

	// Both January snapshots predate the range; only the later one
	// qualifies as lookback.
	records := BuildTimeline(snapshots, date(2025, 3, 1), date(2025, 4, 1))
	if len(records) != 2 {
		t.Fatalf("expected lookback + 1 in-range record, got %d", len(records))
	}
	if !records[0].Date.Equal(date(2025, 1, 31)) {
		t.Errorf("lookback dated %s, want 2025-01-31", records[0].Date)
	}
	if !records[0].Quantity.Equal(domain.MustDecimal("10")) {
		t.Errorf("lookback quantity %s, want 10", records[0].Quantity)
	}
}

func TestBuildTimeline_RangeBoundsInclusive(t *testing.T) {
	snapshots := []domain.PortfolioSnapshot{
		snapshotWith(date(2025, 3, 1), position("AAPL", "1")),
		snapshotWith(date(2025, 4, 1), position("AAPL", "2")),
	}

	records := BuildTimeline(snapshots, date(2025, 3, 1), date(2025, 4, 1))
	if len(records) != 2 {
		t.Fatalf("boundary snapshots must be included, got %d records", len(records))
	}
}
