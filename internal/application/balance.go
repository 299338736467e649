package application

import (
	"time"

	"github.com/jhalmu/dividendsomatic/internal/domain"
)

type BalanceStatus string

const (
	BalancePass    BalanceStatus = "pass"
	BalanceWarning BalanceStatus = "warning"
	BalanceFail    BalanceStatus = "fail"
)

// Cash accounts should reconcile almost exactly; margin accounts have
// legitimate slippage from FX timing on cash balances and corporate
// actions, so their thresholds are wider.
var (
	cashThresholds   = balanceThresholds{warnPct: 1, failPct: 5}
	marginThresholds = balanceThresholds{warnPct: 5, failPct: 20}
)

type balanceThresholds struct {
	warnPct float64
	failPct float64
}

// BalanceInput carries the independent sub-aggregates the validator
// reconciles. RealizedPnL, TotalDividends and TotalCosts come from the
// other components and raw ledger totals; everything else is derived
// here.
type BalanceInput struct {
	FirstSnapshot   *domain.PortfolioSnapshot
	LatestSnapshot  *domain.PortfolioSnapshot
	MarginSnapshots []domain.MarginSnapshot
	CashFlows       []domain.CashFlow
	RealizedPnL     domain.Decimal
	TotalDividends  domain.Decimal
	TotalCosts      domain.Decimal
}

// BalanceComponents exposes every intermediate of the identity so an
// operator can audit a discrepancy instead of trusting a silently
// corrected number.
type BalanceComponents struct {
	MarginMode     bool           `json:"margin_mode"`
	InitialCapital domain.Decimal `json:"initial_capital"`
	Deposits       domain.Decimal `json:"deposits"`
	Withdrawals    domain.Decimal `json:"withdrawals"`
	NetInvested    domain.Decimal `json:"net_invested"`
	RealizedPnL    domain.Decimal `json:"realized_pnl"`
	UnrealizedPnL  domain.Decimal `json:"unrealized_pnl"`
	TotalDividends domain.Decimal `json:"total_dividends"`
	TotalCosts     domain.Decimal `json:"total_costs"`
	TotalReturn    domain.Decimal `json:"total_return"`
}

// BalanceReport is the validator's structured verdict. Diagnostic only:
// nothing here ever feeds back into the ledger.
type BalanceReport struct {
	Status        BalanceStatus     `json:"status"`
	Expected      domain.Decimal    `json:"expected"`
	Actual        domain.Decimal    `json:"actual"`
	DifferencePct float64           `json:"difference_pct"`
	Components    BalanceComponents `json:"components"`
}

// ValidateBalance recomputes the accounting identity
//
//	current value ≈ net invested + total return
//
// from independent sub-aggregates and classifies the discrepancy.
// Margin mode is detected by the presence of any margin-equity
// snapshot; it switches both the value source (NLV instead of position
// sums) and the tolerance thresholds.
//
// State-free and total: with no snapshots at all the report passes
// trivially on zero values.
func ValidateBalance(in BalanceInput) BalanceReport {
	marginMode := len(in.MarginSnapshots) > 0

	actual := currentValue(in, marginMode)
	components := buildComponents(in, marginMode)
	expected := components.NetInvested.Add(components.TotalReturn)

	diffPct := 0.0
	if !actual.IsZero() {
		diffPct = actual.Sub(expected).Abs().
			Div(actual.Abs()).
			Mul(domain.NewDecimalFromInt(100)).
			Float64()
	}

	thresholds := cashThresholds
	if marginMode {
		thresholds = marginThresholds
	}

	status := BalanceFail
	switch {
	case diffPct < thresholds.warnPct:
		status = BalancePass
	case diffPct < thresholds.failPct:
		status = BalanceWarning
	}

	return BalanceReport{
		Status:        status,
		Expected:      expected,
		Actual:        actual,
		DifferencePct: diffPct,
		Components:    components,
	}
}

func currentValue(in BalanceInput, marginMode bool) domain.Decimal {
	if marginMode {
		if nlv, ok := latestNLV(in.MarginSnapshots); ok {
			return nlv
		}
	}
	if in.LatestSnapshot == nil {
		return domain.Zero
	}
	value := domain.Zero
	for _, p := range in.LatestSnapshot.Positions {
		value = value.Add(p.BaseValue())
	}
	return value
}

func buildComponents(in BalanceInput, marginMode bool) BalanceComponents {
	c := BalanceComponents{
		MarginMode:     marginMode,
		RealizedPnL:    in.RealizedPnL,
		TotalDividends: in.TotalDividends,
		TotalCosts:     in.TotalCosts,
	}

	var firstDate time.Time
	if in.FirstSnapshot != nil {
		firstDate = in.FirstSnapshot.ReportDate
		c.InitialCapital = in.FirstSnapshot.TotalCost
		if marginMode {
			if nlv, ok := nlvNear(in.MarginSnapshots, firstDate); ok {
				c.InitialCapital = nlv
			}
		}
	}

	// Deposits and withdrawals before the first snapshot are already
	// reflected in its cost basis; counting them again would double the
	// capital.
	for _, f := range in.CashFlows {
		if in.FirstSnapshot != nil && !f.Date.After(firstDate) {
			continue
		}
		switch f.FlowType {
		case domain.FlowDeposit:
			c.Deposits = c.Deposits.Add(f.BaseAmount())
		case domain.FlowWithdrawal:
			c.Withdrawals = c.Withdrawals.Add(f.BaseAmount().Abs())
		}
	}
	c.NetInvested = c.InitialCapital.Add(c.Deposits).Sub(c.Withdrawals)

	if in.LatestSnapshot != nil {
		c.UnrealizedPnL = in.LatestSnapshot.TotalValue.Sub(in.LatestSnapshot.TotalCost)
	}
	c.TotalReturn = c.RealizedPnL.
		Add(c.TotalDividends).
		Sub(c.TotalCosts).
		Add(c.UnrealizedPnL)
	return c
}

func latestNLV(snapshots []domain.MarginSnapshot) (domain.Decimal, bool) {
	var best *domain.MarginSnapshot
	for i := range snapshots {
		if best == nil || snapshots[i].ReportDate.After(best.ReportDate) {
			best = &snapshots[i]
		}
	}
	if best == nil {
		return domain.Zero, false
	}
	return best.NetLiquidation, true
}

// nlvNear returns the NLV of the margin snapshot dated closest to t.
func nlvNear(snapshots []domain.MarginSnapshot, t time.Time) (domain.Decimal, bool) {
	var best *domain.MarginSnapshot
	var bestDist time.Duration
	for i := range snapshots {
		dist := snapshots[i].ReportDate.Sub(t)
		if dist < 0 {
			dist = -dist
		}
		if best == nil || dist < bestDist {
			best = &snapshots[i]
			bestDist = dist
		}
	}
	if best == nil {
		return domain.Zero, false
	}
	return best.NetLiquidation, true
}
