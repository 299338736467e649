package domain

import (
	"context"
	"time"
)

// LedgerRepository is the narrow persistence boundary the core reads
// and writes through. All methods accept context.Context for timeout
// and cancellation propagation.
//
// Write methods taking batches return the number of rows actually
// inserted: imported events are deduplicated by their deterministic
// external IDs, so re-importing the same broker report is a no-op.
type LedgerRepository interface {
	// Snapshots. SaveSnapshot persists a finalized snapshot and its
	// positions in one transaction; partial writes are never observable.
	SaveSnapshot(ctx context.Context, s *PortfolioSnapshot) error
	// SnapshotsInRange returns snapshots with report date in [from, to]
	// plus the single most recent snapshot strictly before from (the
	// lookback snapshot), ordered by date.
	SnapshotsInRange(ctx context.Context, from, to time.Time) ([]PortfolioSnapshot, error)
	FirstSnapshot(ctx context.Context) (*PortfolioSnapshot, error)
	LatestSnapshot(ctx context.Context) (*PortfolioSnapshot, error)

	// Instruments.
	SaveInstruments(ctx context.Context, instruments []Instrument) (int, error)
	Instruments(ctx context.Context) ([]Instrument, error)

	// Events.
	SaveDividends(ctx context.Context, dividends []DividendPayment) (int, error)
	Dividends(ctx context.Context) ([]DividendPayment, error)
	SaveTrades(ctx context.Context, trades []Trade) (int, error)
	Trades(ctx context.Context) ([]Trade, error)
	SaveCashFlows(ctx context.Context, flows []CashFlow) (int, error)
	CashFlows(ctx context.Context) ([]CashFlow, error)
	SaveSoldPositions(ctx context.Context, lots []SoldPosition) (int, error)
	SoldPositions(ctx context.Context) ([]SoldPosition, error)

	// Reference data.
	SaveFxRates(ctx context.Context, rates []FxRate) (int, error)
	FxRates(ctx context.Context) ([]FxRate, error)
	SaveMarginSnapshots(ctx context.Context, snapshots []MarginSnapshot) (int, error)
	MarginSnapshots(ctx context.Context) ([]MarginSnapshot, error)
}
