package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jhalmu/dividendsomatic/internal/domain"
)

// ImportService is the write side of the core: it accepts normalized
// records from ingestion collaborators, enforces identity validation at
// this boundary (the computational core stays total over well-formed
// input), and invalidates the result cache after every mutation.
type ImportService struct {
	repo  domain.LedgerRepository
	cache *ResultCache
}

func NewImportService(repo domain.LedgerRepository, cache *ResultCache) *ImportService {
	return &ImportService{repo: repo, cache: cache}
}

// ImportSnapshot persists one broker report: its positions plus the
// backfilled totals, atomically. The snapshot is finalized here, before
// it reaches the store, so partial totals are never observable.
func (s *ImportService) ImportSnapshot(ctx context.Context, reportDate time.Time, source string, positions []domain.Position) (*domain.PortfolioSnapshot, error) {
	snapshot := domain.NewPortfolioSnapshot(reportDate, source)
	for i, p := range positions {
		if err := snapshot.AddPosition(p); err != nil {
			return nil, fmt.Errorf("position %d (%s/%s): %w", i, p.ISIN, p.Symbol, err)
		}
	}
	snapshot.Finalize()

	if err := s.repo.SaveSnapshot(ctx, &snapshot); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	s.cache.Invalidate()

	slog.InfoContext(ctx, "snapshot imported",
		"report_date", reportDate.Format("2006-01-02"),
		"source", source,
		"positions", snapshot.PositionsCount)
	return &snapshot, nil
}

// ImportDividends stores dividend events, deduplicated by external ID.
// Returns the number of newly inserted rows.
func (s *ImportService) ImportDividends(ctx context.Context, dividends []domain.DividendPayment) (int, error) {
	for i, d := range dividends {
		if !d.IsValid() {
			return 0, fmt.Errorf("dividend %d (%s): %w", i, d.ExternalID, domain.ErrInvalidDividend)
		}
	}
	n, err := s.repo.SaveDividends(ctx, dividends)
	if err != nil {
		return 0, fmt.Errorf("save dividends: %w", err)
	}
	s.invalidateIfChanged(ctx, "dividends", n)
	return n, nil
}

// ImportTrades stores trade executions, deduplicated by external ID.
func (s *ImportService) ImportTrades(ctx context.Context, trades []domain.Trade) (int, error) {
	for i, t := range trades {
		if !t.IsValid() {
			return 0, fmt.Errorf("trade %d (%s): %w", i, t.ExternalID, domain.ErrInvalidTrade)
		}
	}
	n, err := s.repo.SaveTrades(ctx, trades)
	if err != nil {
		return 0, fmt.Errorf("save trades: %w", err)
	}
	s.invalidateIfChanged(ctx, "trades", n)
	return n, nil
}

// ImportCashFlows stores deposit/withdrawal/interest/fee events.
func (s *ImportService) ImportCashFlows(ctx context.Context, flows []domain.CashFlow) (int, error) {
	for i, f := range flows {
		if !f.IsValid() {
			return 0, fmt.Errorf("cash flow %d: %w", i, domain.ErrInvalidCashFlow)
		}
	}
	n, err := s.repo.SaveCashFlows(ctx, flows)
	if err != nil {
		return 0, fmt.Errorf("save cash flows: %w", err)
	}
	s.invalidateIfChanged(ctx, "cash_flows", n)
	return n, nil
}

// ImportInstruments stores instrument identity records.
func (s *ImportService) ImportInstruments(ctx context.Context, instruments []domain.Instrument) (int, error) {
	for i, inst := range instruments {
		if !inst.IsValid() {
			return 0, fmt.Errorf("instrument %d (%s): missing identity fields", i, inst.ISIN)
		}
	}
	n, err := s.repo.SaveInstruments(ctx, instruments)
	if err != nil {
		return 0, fmt.Errorf("save instruments: %w", err)
	}
	s.invalidateIfChanged(ctx, "instruments", n)
	return n, nil
}

// ImportFxRates stores FX reference rows.
func (s *ImportService) ImportFxRates(ctx context.Context, rates []domain.FxRate) (int, error) {
	n, err := s.repo.SaveFxRates(ctx, rates)
	if err != nil {
		return 0, fmt.Errorf("save fx rates: %w", err)
	}
	s.invalidateIfChanged(ctx, "fx_rates", n)
	return n, nil
}

// ImportMarginSnapshots stores margin-equity reports.
func (s *ImportService) ImportMarginSnapshots(ctx context.Context, snapshots []domain.MarginSnapshot) (int, error) {
	n, err := s.repo.SaveMarginSnapshots(ctx, snapshots)
	if err != nil {
		return 0, fmt.Errorf("save margin snapshots: %w", err)
	}
	s.invalidateIfChanged(ctx, "margin_snapshots", n)
	return n, nil
}

// ImportSoldPositions stores closed lots.
func (s *ImportService) ImportSoldPositions(ctx context.Context, lots []domain.SoldPosition) (int, error) {
	n, err := s.repo.SaveSoldPositions(ctx, lots)
	if err != nil {
		return 0, fmt.Errorf("save sold positions: %w", err)
	}
	s.invalidateIfChanged(ctx, "sold_positions", n)
	return n, nil
}

func (s *ImportService) invalidateIfChanged(ctx context.Context, kind string, inserted int) {
	if inserted == 0 {
		return
	}
	s.cache.Invalidate()
	slog.InfoContext(ctx, "ledger updated", "kind", kind, "inserted", inserted)
}
