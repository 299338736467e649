package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jhalmu/dividendsomatic/internal/domain"
	"github.com/jhalmu/dividendsomatic/internal/infrastructure/marketdata"
)

// MonthBucket is one row of a month-bucketed series.
type MonthBucket struct {
	Month string         `json:"month"`
	Total domain.Decimal `json:"total"`
}

// DividendService is the read side of the core: it orchestrates the
// timeline builder, the attribution engine and the analytics into the
// records dashboards consume, memoizing the expensive aggregates.
//
// Ordering is strict: attribution only ever runs against a fully built
// timeline for the window, because FX and quantity lookups need the
// complete range including the lookback snapshot.
type DividendService struct {
	repo   domain.LedgerRepository
	cache  *ResultCache
	quotes marketdata.QuoteProvider
	now    func() time.Time
}

func NewDividendService(repo domain.LedgerRepository, cache *ResultCache, quotes marketdata.QuoteProvider) *DividendService {
	return &DividendService{
		repo:   repo,
		cache:  cache,
		quotes: quotes,
		now:    time.Now,
	}
}

// Attributions matches every stored dividend against the position
// timeline covering all of them and returns the attributed incomes.
func (s *DividendService) Attributions(ctx context.Context) ([]Attribution, error) {
	v, err := s.cache.GetOrCompute("attributions", func() (interface{}, error) {
		return s.computeAttributions(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Attribution), nil
}

func (s *DividendService) computeAttributions(ctx context.Context) ([]Attribution, error) {
	dividends, err := s.repo.Dividends(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dividends: %w", err)
	}
	if len(dividends) == 0 {
		return []Attribution{}, nil
	}

	from, to := dividendWindow(dividends)
	snapshots, err := s.repo.SnapshotsInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	timeline := BuildTimeline(snapshots, from, to)
	return AttributeAll(dividends, timeline), nil
}

// dividendWindow is the snapshot range attribution needs: the matching
// window extended around the earliest and latest ex-dates.
func dividendWindow(dividends []domain.DividendPayment) (time.Time, time.Time) {
	first, last := dividends[0].ExDate, dividends[0].ExDate
	for _, d := range dividends[1:] {
		if d.ExDate.Before(first) {
			first = d.ExDate
		}
		if d.ExDate.After(last) {
			last = d.ExDate
		}
	}
	return first.Add(-matchWindowBefore), last.Add(matchWindowAfter)
}

// AllAnalytics returns the per-symbol analytics record for every
// instrument that ever paid a dividend, sorted by symbol.
func (s *DividendService) AllAnalytics(ctx context.Context) ([]SymbolAnalytics, error) {
	v, err := s.cache.GetOrCompute("analytics", func() (interface{}, error) {
		return s.computeAllAnalytics(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]SymbolAnalytics), nil
}

func (s *DividendService) computeAllAnalytics(ctx context.Context) ([]SymbolAnalytics, error) {
	attributions, err := s.Attributions(ctx)
	if err != nil {
		return nil, err
	}

	latest, err := s.repo.LatestSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}

	bySymbol := make(map[string][]Attribution)
	for _, a := range attributions {
		key := strings.ToUpper(a.Dividend.Symbol)
		if key == "" {
			key = a.Dividend.ISIN
		}
		bySymbol[key] = append(bySymbol[key], a)
	}

	now := s.now()
	out := make([]SymbolAnalytics, 0, len(bySymbol))
	for symbol, entries := range bySymbol {
		holding := findHolding(latest, entries)
		price := s.marketPrice(ctx, symbol, holding)
		out = append(out, BuildSymbolAnalytics(symbol, entries, holding, price, now))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// SymbolAnalytics returns the analytics record for one symbol, or nil
// when the instrument never paid a dividend.
func (s *DividendService) SymbolAnalytics(ctx context.Context, symbol string) (*SymbolAnalytics, error) {
	all, err := s.AllAnalytics(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if strings.EqualFold(all[i].Symbol, symbol) {
			return &all[i], nil
		}
	}
	return nil, nil
}

// MonthlyIncome buckets attributed dividend income by payment month.
func (s *DividendService) MonthlyIncome(ctx context.Context) ([]MonthBucket, error) {
	v, err := s.cache.GetOrCompute("income:monthly", func() (interface{}, error) {
		attributions, err := s.Attributions(ctx)
		if err != nil {
			return nil, err
		}

		totals := make(map[string]domain.Decimal)
		for _, a := range attributions {
			date := a.Dividend.PayDate
			if date.IsZero() {
				date = a.Dividend.ExDate
			}
			month := date.Format("2006-01")
			totals[month] = totals[month].Add(a.Income)
		}
		return sortedBuckets(totals), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]MonthBucket), nil
}

// MonthlyCashFlows buckets external cash flows by month, signed:
// deposits and interest positive, withdrawals and fees negative.
func (s *DividendService) MonthlyCashFlows(ctx context.Context) ([]MonthBucket, error) {
	v, err := s.cache.GetOrCompute("cashflows:monthly", func() (interface{}, error) {
		flows, err := s.repo.CashFlows(ctx)
		if err != nil {
			return nil, fmt.Errorf("load cash flows: %w", err)
		}

		totals := make(map[string]domain.Decimal)
		for _, f := range flows {
			amount := f.BaseAmount()
			switch f.FlowType {
			case domain.FlowWithdrawal, domain.FlowFee:
				amount = amount.Abs().Neg()
			}
			month := f.Date.Format("2006-01")
			totals[month] = totals[month].Add(amount)
		}
		return sortedBuckets(totals), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]MonthBucket), nil
}

// PositionHistory returns a position-over-time series for charting.
// Snapshot history is authoritative when it exists; otherwise the
// series is reconstructed from trade events.
func (s *DividendService) PositionHistory(ctx context.Context) ([]ReconstructedPoint, error) {
	v, err := s.cache.GetOrCompute("positions:history", func() (interface{}, error) {
		snapshots, err := s.repo.SnapshotsInRange(ctx, time.Time{}, s.now())
		if err != nil {
			return nil, fmt.Errorf("load snapshots: %w", err)
		}
		if len(snapshots) > 0 {
			return snapshotSeries(snapshots), nil
		}

		trades, err := s.repo.Trades(ctx)
		if err != nil {
			return nil, fmt.Errorf("load trades: %w", err)
		}
		return ReconstructPositions(trades), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]ReconstructedPoint), nil
}

func snapshotSeries(snapshots []domain.PortfolioSnapshot) []ReconstructedPoint {
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].ReportDate.Before(snapshots[j].ReportDate)
	})
	out := make([]ReconstructedPoint, 0, len(snapshots))
	for _, s := range snapshots {
		point := ReconstructedPoint{Date: s.ReportDate}
		for _, p := range s.Positions {
			key := p.ISIN
			if key == "" {
				key = p.Symbol
			}
			point.Holdings = append(point.Holdings, ReconstructedHolding{
				Key:       key,
				Symbol:    p.Symbol,
				Currency:  p.Currency,
				Quantity:  p.Quantity,
				CostBasis: p.CostBasis,
			})
		}
		out = append(out, point)
	}
	return out
}

// BalanceCheck runs the balance-sheet identity validator over the
// current ledger contents.
func (s *DividendService) BalanceCheck(ctx context.Context) (*BalanceReport, error) {
	v, err := s.cache.GetOrCompute("balance:check", func() (interface{}, error) {
		return s.computeBalanceCheck(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*BalanceReport), nil
}

func (s *DividendService) computeBalanceCheck(ctx context.Context) (*BalanceReport, error) {
	first, err := s.repo.FirstSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load first snapshot: %w", err)
	}
	latest, err := s.repo.LatestSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}
	margins, err := s.repo.MarginSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("load margin snapshots: %w", err)
	}
	flows, err := s.repo.CashFlows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cash flows: %w", err)
	}
	lots, err := s.repo.SoldPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sold positions: %w", err)
	}
	trades, err := s.repo.Trades(ctx)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	attributions, err := s.Attributions(ctx)
	if err != nil {
		return nil, err
	}

	realized := domain.Zero
	for _, l := range lots {
		realized = realized.Add(l.BaseRealized())
	}

	dividends := domain.Zero
	for _, a := range attributions {
		dividends = dividends.Add(a.Income)
	}

	costs := domain.Zero
	for _, t := range trades {
		costs = costs.Add(t.Commission.Abs())
	}
	for _, f := range flows {
		if f.FlowType == domain.FlowFee {
			costs = costs.Add(f.BaseAmount().Abs())
		}
	}

	report := ValidateBalance(BalanceInput{
		FirstSnapshot:   first,
		LatestSnapshot:  latest,
		MarginSnapshots: margins,
		CashFlows:       flows,
		RealizedPnL:     realized,
		TotalDividends:  dividends,
		TotalCosts:      costs,
	})

	if report.Status != BalancePass {
		slog.WarnContext(ctx, "balance identity drift",
			"status", string(report.Status),
			"difference_pct", report.DifferencePct)
	}
	return &report, nil
}

func findHolding(latest *domain.PortfolioSnapshot, entries []Attribution) *domain.Position {
	if latest == nil || len(entries) == 0 {
		return nil
	}
	d := entries[len(entries)-1].Dividend
	for i := range latest.Positions {
		p := &latest.Positions[i]
		if d.ISIN != "" && p.ISIN == d.ISIN {
			return p
		}
		if d.Symbol != "" && strings.EqualFold(p.Symbol, d.Symbol) {
			return p
		}
	}
	return nil
}

// marketPrice fetches a quote for current-yield computation. Quote
// failures degrade to a nil price (and so a nil current yield), they
// never fail the analytics request.
func (s *DividendService) marketPrice(ctx context.Context, symbol string, holding *domain.Position) *domain.Decimal {
	if s.quotes == nil || holding == nil {
		return nil
	}
	quote, err := s.quotes.GetQuote(ctx, symbol)
	if err != nil {
		slog.WarnContext(ctx, "quote unavailable, current yield omitted", "symbol", symbol, "error", err)
		return nil
	}
	price, err := domain.NewDecimalFromString(quote.Price.String())
	if err != nil {
		slog.WarnContext(ctx, "quote price unparsable", "symbol", symbol, "price", quote.Price.String())
		return nil
	}
	return &price
}

func sortedBuckets(totals map[string]domain.Decimal) []MonthBucket {
	months := make([]string, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]MonthBucket, 0, len(months))
	for _, m := range months {
		out = append(out, MonthBucket{Month: m, Total: totals[m]})
	}
	return out
}
