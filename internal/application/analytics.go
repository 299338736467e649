package application

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jhalmu/dividendsomatic/internal/domain"
)

// Frequency classifies how often an instrument pays dividends, detected
// from the gaps between distinct ex-dates.
type Frequency string

const (
	FreqMonthly    Frequency = "monthly"
	FreqQuarterly  Frequency = "quarterly"
	FreqSemiAnnual Frequency = "semi_annual"
	FreqAnnual     Frequency = "annual"
	FreqUnknown    Frequency = "unknown"
)

// ExpectedPayments returns the number of payments a full year of this
// frequency contains. Zero for unknown.
func (f Frequency) ExpectedPayments() int {
	switch f {
	case FreqMonthly:
		return 12
	case FreqQuarterly:
		return 4
	case FreqSemiAnnual:
		return 2
	case FreqAnnual:
		return 1
	default:
		return 0
	}
}

// DetectFrequency classifies payment frequency from ex-dates and also
// returns the mean gap in days between consecutive distinct dates.
//
// Same-date legs (a payment in lieu next to its withholding-tax leg)
// are deduplicated first; their 0-day gaps would otherwise bias every
// multi-leg payer toward monthly.
func DetectFrequency(exDates []time.Time) (Frequency, float64) {
	distinct := distinctDates(exDates)
	if len(distinct) < 2 {
		return FreqUnknown, 0
	}

	var totalDays float64
	for i := 1; i < len(distinct); i++ {
		totalDays += distinct[i].Sub(distinct[i-1]).Hours() / 24
	}
	meanGap := totalDays / float64(len(distinct)-1)

	switch {
	case meanGap < 45:
		return FreqMonthly, meanGap
	case meanGap < 120:
		return FreqQuarterly, meanGap
	case meanGap < 270:
		return FreqSemiAnnual, meanGap
	default:
		return FreqAnnual, meanGap
	}
}

func distinctDates(dates []time.Time) []time.Time {
	seen := make(map[time.Time]bool, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := dateOnly(d)
		if !seen[day] {
			seen[day] = true
			out = append(out, day)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// AnnualPerShare computes the trailing-twelve-month dividend per share
// for one instrument from its attributed payments, as of now.
//
// Per-share amounts are deduplicated by (ex-date, amount) so multi-leg
// payments count once. When the number of unique payment dates falls
// short of the frequency's expected annual count the sum is
// extrapolated to a full year: (sum / payments) * expected. That covers
// positions opened recently whose TTM window is incomplete.
//
// Deterministic for a fixed now and entry list: repeated calls yield
// the identical decimal, there is no accumulation drift.
func AnnualPerShare(entries []Attribution, freq Frequency, now time.Time) domain.Decimal {
	cutoff := now.AddDate(0, 0, -365)

	ttm := make([]Attribution, 0, len(entries))
	for _, e := range entries {
		if e.Dividend.ExDate.After(cutoff) && !e.Dividend.ExDate.After(now) {
			ttm = append(ttm, e)
		}
	}
	if len(ttm) == 0 {
		return domain.Zero
	}

	anyRate := false
	for _, e := range ttm {
		if e.Dividend.HasPerShareRate() || e.Dividend.AmountType == domain.AmountPerShare {
			anyRate = true
			break
		}
	}

	type legKey struct {
		date   string
		amount string
	}
	seen := make(map[legKey]bool, len(ttm))
	dates := make(map[string]bool, len(ttm))

	sum := domain.Zero
	for _, e := range ttm {
		ps, ok := perShareOf(e, anyRate)
		if !ok {
			continue
		}
		k := legKey{date: e.Dividend.ExDate.Format("2006-01-02"), amount: ps.String()}
		if seen[k] {
			continue
		}
		seen[k] = true
		dates[k.date] = true
		sum = sum.Add(ps)
	}

	expected := freq.ExpectedPayments()
	payments := len(dates)
	if expected > 0 && payments > 0 && payments < expected {
		sum = sum.Div(domain.NewDecimalFromInt(int64(payments))).
			Mul(domain.NewDecimalFromInt(int64(expected)))
	}
	return sum
}

// perShareOf extracts the per-share amount of one attributed payment.
// For total_net payments without an explicit rate it derives from the
// quantity at record date; the position-quantity fallback applies only
// when no TTM payment of the instrument carries a rate, so amounts
// IBKR already split into rated legs are never derived twice.
func perShareOf(e Attribution, anyTTMHasRate bool) (domain.Decimal, bool) {
	d := e.Dividend
	if d.HasPerShareRate() {
		return *d.PerShare, true
	}
	if d.AmountType == domain.AmountPerShare {
		return d.Amount, true
	}
	if d.QuantityAtRecord != nil && d.QuantityAtRecord.IsPositive() {
		return d.Amount.Div(*d.QuantityAtRecord), true
	}
	if !anyTTMHasRate && e.Quantity.IsPositive() {
		return d.Amount.Div(e.Quantity), true
	}
	return domain.Zero, false
}

// YieldOnCost returns annual dividend income per share relative to the
// average purchase price, in percent. Nil when the cost is zero or
// absent; the divisor guard is the caller's contract, never a panic.
func YieldOnCost(annualPerShare, fx, avgCost, costFx domain.Decimal) *domain.Decimal {
	denom := avgCost.Mul(costFx)
	if denom.IsZero() {
		return nil
	}
	y := annualPerShare.Mul(fx).Div(denom).Mul(domain.NewDecimalFromInt(100))
	return &y
}

// CurrentYield is YieldOnCost against the market price instead of the
// purchase cost.
func CurrentYield(annualPerShare, fx, price, priceFx domain.Decimal) *domain.Decimal {
	denom := price.Mul(priceFx)
	if denom.IsZero() {
		return nil
	}
	y := annualPerShare.Mul(fx).Div(denom).Mul(domain.NewDecimalFromInt(100))
	return &y
}

// Rule72 is the doubling-time estimate for a growth rate, with the
// adjusted-numerator refinement and a small milestone table.
type Rule72 struct {
	RatePct     float64           `json:"rate_pct"`
	ExactYears  float64           `json:"exact_years"`
	ApproxYears float64           `json:"approx_years"`
	Numerator   int               `json:"numerator"`
	Variant     string            `json:"variant"`
	Milestones  []Rule72Milestone `json:"milestones"`
}

// Rule72Milestone is one row of the doubling table: the capital
// multiple reached after Years.
type Rule72Milestone struct {
	Multiple int     `json:"multiple"`
	Years    float64 `json:"years"`
}

// ComputeRule72 estimates doubling time for a yearly growth rate in
// percent. The numerator is adjusted away from 72 for rates far from
// 8%, clamped to [69, 74]. Nil for non-positive rates.
func ComputeRule72(ratePct float64) *Rule72 {
	if ratePct <= 0 {
		return nil
	}

	exact := math.Ln2 / math.Log(1+ratePct/100)

	numerator := 72 + int(math.Round((ratePct-8)/3))
	if numerator < 69 {
		numerator = 69
	}
	if numerator > 74 {
		numerator = 74
	}

	milestones := make([]Rule72Milestone, 0, 5)
	for n := 0; n <= 4; n++ {
		milestones = append(milestones, Rule72Milestone{
			Multiple: 1 << n,
			Years:    round1(exact * float64(n)),
		})
	}

	return &Rule72{
		RatePct:     ratePct,
		ExactYears:  exact,
		ApproxYears: round1(float64(numerator) / ratePct),
		Numerator:   numerator,
		Variant:     fmt.Sprintf("R%d", numerator),
		Milestones:  milestones,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// SymbolAnalytics is the per-symbol output record consumed by
// dashboards.
type SymbolAnalytics struct {
	Symbol           string          `json:"symbol"`
	ISIN             string          `json:"isin,omitempty"`
	PaymentFrequency Frequency       `json:"payment_frequency"`
	MeanGapDays      float64         `json:"mean_gap_days"`
	AnnualPerShare   domain.Decimal  `json:"annual_per_share"`
	ProjectedAnnual  domain.Decimal  `json:"projected_annual"`
	YieldOnCost      *domain.Decimal `json:"yield_on_cost,omitempty"`
	CurrentYield     *domain.Decimal `json:"current_yield,omitempty"`
	Rule72           *Rule72         `json:"rule72,omitempty"`
	DividendSource   string          `json:"dividend_source,omitempty"`
}

// BuildSymbolAnalytics assembles the full analytics record for one
// instrument from its attributed payments and, when available, the
// latest held position and a market price.
func BuildSymbolAnalytics(symbol string, entries []Attribution, holding *domain.Position, marketPrice *domain.Decimal, now time.Time) SymbolAnalytics {
	exDates := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		exDates = append(exDates, e.Dividend.ExDate)
	}
	freq, meanGap := DetectFrequency(exDates)

	annual := AnnualPerShare(entries, freq, now)
	fx := latestDividendFx(entries)

	out := SymbolAnalytics{
		Symbol:           symbol,
		PaymentFrequency: freq,
		MeanGapDays:      meanGap,
		AnnualPerShare:   annual,
		ProjectedAnnual:  domain.Zero,
		DividendSource:   latestSource(entries),
	}
	if len(entries) > 0 {
		out.ISIN = entries[len(entries)-1].Dividend.ISIN
	}

	if holding != nil {
		out.ProjectedAnnual = annual.Mul(holding.Quantity).Mul(fx)

		avgCost := holding.CostBasis.Div(holding.Quantity.Abs())
		out.YieldOnCost = YieldOnCost(annual, fx, avgCost, holding.FxRate)

		if marketPrice != nil {
			out.CurrentYield = CurrentYield(annual, fx, *marketPrice, holding.FxRate)
		}
		if yoc := out.YieldOnCost; yoc != nil {
			out.Rule72 = ComputeRule72(yoc.Float64())
		}
	}
	return out
}

// latestDividendFx returns the FX rate of the most recent attributed
// payment that resolved one, defaulting to 1.
func latestDividendFx(entries []Attribution) domain.Decimal {
	fx := domain.One
	var latest time.Time
	for _, e := range entries {
		if !e.FxRate.IsZero() && (latest.IsZero() || e.Dividend.ExDate.After(latest)) {
			latest = e.Dividend.ExDate
			fx = e.FxRate
		}
	}
	return fx
}

func latestSource(entries []Attribution) string {
	source := ""
	var latest time.Time
	for _, e := range entries {
		if e.Dividend.Source != "" && (latest.IsZero() || e.Dividend.ExDate.After(latest)) {
			latest = e.Dividend.ExDate
			source = e.Dividend.Source
		}
	}
	return source
}
