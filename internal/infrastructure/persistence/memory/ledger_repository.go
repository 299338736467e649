package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhalmu/dividendsomatic/internal/domain"
)

// LedgerRepository keeps the whole ledger in process memory. It mirrors
// the SQL repository's dedupe behavior so application tests exercise
// the same contract.
type LedgerRepository struct {
	mu              sync.RWMutex
	snapshots       []domain.PortfolioSnapshot
	instruments     map[string]domain.Instrument
	dividends       []domain.DividendPayment
	dividendIDs     map[string]bool
	trades          []domain.Trade
	tradeIDs        map[string]bool
	cashFlows       []domain.CashFlow
	cashFlowIDs     map[string]bool
	soldPositions   []domain.SoldPosition
	soldIDs         map[string]bool
	fxRates         map[string]domain.FxRate
	marginSnapshots map[string]domain.MarginSnapshot
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{
		instruments:     make(map[string]domain.Instrument),
		dividendIDs:     make(map[string]bool),
		tradeIDs:        make(map[string]bool),
		cashFlowIDs:     make(map[string]bool),
		soldIDs:         make(map[string]bool),
		fxRates:         make(map[string]domain.FxRate),
		marginSnapshots: make(map[string]domain.MarginSnapshot),
	}
}

func (r *LedgerRepository) SaveSnapshot(ctx context.Context, s *domain.PortfolioSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range s.Positions {
		s.Positions[i].SnapshotID = s.ID
	}
	r.snapshots = append(r.snapshots, *s)
	sort.Slice(r.snapshots, func(i, j int) bool {
		return r.snapshots[i].ReportDate.Before(r.snapshots[j].ReportDate)
	})
	return nil
}

func (r *LedgerRepository) SnapshotsInRange(ctx context.Context, from, to time.Time) ([]domain.PortfolioSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.PortfolioSnapshot
	var lookback *domain.PortfolioSnapshot
	for i := range r.snapshots {
		s := r.snapshots[i]
		switch {
		case s.ReportDate.Before(from):
			if lookback == nil || s.ReportDate.After(lookback.ReportDate) {
				lookback = &r.snapshots[i]
			}
		case !s.ReportDate.After(to):
			out = append(out, s)
		}
	}
	if lookback != nil {
		out = append([]domain.PortfolioSnapshot{*lookback}, out...)
	}
	return out, nil
}

func (r *LedgerRepository) FirstSnapshot(ctx context.Context) (*domain.PortfolioSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.snapshots) == 0 {
		return nil, nil
	}
	s := r.snapshots[0]
	return &s, nil
}

func (r *LedgerRepository) LatestSnapshot(ctx context.Context) (*domain.PortfolioSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.snapshots) == 0 {
		return nil, nil
	}
	s := r.snapshots[len(r.snapshots)-1]
	return &s, nil
}

func (r *LedgerRepository) SaveInstruments(ctx context.Context, instruments []domain.Instrument) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, i := range instruments {
		r.instruments[i.ISIN] = i
	}
	return len(instruments), nil
}

func (r *LedgerRepository) Instruments(ctx context.Context) ([]domain.Instrument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Instrument, 0, len(r.instruments))
	for _, i := range r.instruments {
		out = append(out, i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ISIN < out[j].ISIN })
	return out, nil
}

func (r *LedgerRepository) SaveDividends(ctx context.Context, dividends []domain.DividendPayment) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, d := range dividends {
		if r.dividendIDs[d.ExternalID] {
			continue
		}
		r.dividendIDs[d.ExternalID] = true
		r.dividends = append(r.dividends, d)
		inserted++
	}
	sort.Slice(r.dividends, func(i, j int) bool {
		return r.dividends[i].ExDate.Before(r.dividends[j].ExDate)
	})
	return inserted, nil
}

func (r *LedgerRepository) Dividends(ctx context.Context) ([]domain.DividendPayment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.DividendPayment(nil), r.dividends...), nil
}

func (r *LedgerRepository) SaveTrades(ctx context.Context, trades []domain.Trade) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, t := range trades {
		if r.tradeIDs[t.ExternalID] {
			continue
		}
		r.tradeIDs[t.ExternalID] = true
		r.trades = append(r.trades, t)
		inserted++
	}
	sort.Slice(r.trades, func(i, j int) bool {
		return r.trades[i].Date.Before(r.trades[j].Date)
	})
	return inserted, nil
}

func (r *LedgerRepository) Trades(ctx context.Context) ([]domain.Trade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Trade(nil), r.trades...), nil
}

func (r *LedgerRepository) SaveCashFlows(ctx context.Context, flows []domain.CashFlow) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, f := range flows {
		if r.cashFlowIDs[f.ID] {
			continue
		}
		r.cashFlowIDs[f.ID] = true
		r.cashFlows = append(r.cashFlows, f)
		inserted++
	}
	sort.Slice(r.cashFlows, func(i, j int) bool {
		return r.cashFlows[i].Date.Before(r.cashFlows[j].Date)
	})
	return inserted, nil
}

func (r *LedgerRepository) CashFlows(ctx context.Context) ([]domain.CashFlow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.CashFlow(nil), r.cashFlows...), nil
}

func (r *LedgerRepository) SaveSoldPositions(ctx context.Context, lots []domain.SoldPosition) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, l := range lots {
		if r.soldIDs[l.ID] {
			continue
		}
		r.soldIDs[l.ID] = true
		r.soldPositions = append(r.soldPositions, l)
		inserted++
	}
	return inserted, nil
}

func (r *LedgerRepository) SoldPositions(ctx context.Context) ([]domain.SoldPosition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.SoldPosition(nil), r.soldPositions...), nil
}

func fxKey(date time.Time, currency string) string {
	return date.Format("2006-01-02") + "/" + currency
}

func (r *LedgerRepository) SaveFxRates(ctx context.Context, rates []domain.FxRate) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, rate := range rates {
		key := fxKey(rate.Date, rate.Currency)
		if _, exists := r.fxRates[key]; !exists {
			inserted++
		}
		r.fxRates[key] = rate
	}
	return inserted, nil
}

func (r *LedgerRepository) FxRates(ctx context.Context) ([]domain.FxRate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.FxRate, 0, len(r.fxRates))
	for _, rate := range r.fxRates {
		out = append(out, rate)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Currency < out[j].Currency
	})
	return out, nil
}

func (r *LedgerRepository) SaveMarginSnapshots(ctx context.Context, snapshots []domain.MarginSnapshot) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, m := range snapshots {
		key := m.ReportDate.Format("2006-01-02")
		if _, exists := r.marginSnapshots[key]; !exists {
			inserted++
		}
		r.marginSnapshots[key] = m
	}
	return inserted, nil
}

func (r *LedgerRepository) MarginSnapshots(ctx context.Context) ([]domain.MarginSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.MarginSnapshot, 0, len(r.marginSnapshots))
	for _, m := range r.marginSnapshots {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportDate.Before(out[j].ReportDate) })
	return out, nil
}
