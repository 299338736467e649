package application

import (
	"log/slog"
	"strings"
	"time"

	"github.com/jhalmu/dividendsomatic/internal/domain"
)

// Matching window around the ex-date. Broker snapshots are periodic, so
// the position that earned a dividend is rarely dated exactly on the
// ex-date; a week before covers late snapshots, 45 days after covers
// sparse monthly reports.
const (
	matchWindowBefore = 7 * 24 * time.Hour
	matchWindowAfter  = 45 * 24 * time.Hour
)

// Attribution is the result of matching one dividend payment against a
// position timeline: the base-currency income it produced and the
// inputs that produced it, kept for auditability.
type Attribution struct {
	Dividend domain.DividendPayment
	Income   domain.Decimal
	FxRate   domain.Decimal
	Quantity domain.Decimal
	Matched  *PositionRecord
}

// Attribute finds the position that earned the dividend and computes
// its income in the base currency.
//
// Matching: timeline entries with the same instrument identity (ISIN
// when both sides carry one, ticker symbol otherwise) whose date lies
// within [ex-7d, ex+45d]; among those the entry closest to the ex-date
// wins, first found on ties.
//
// FX resolution: the payment's own recorded rate, else 1 for EUR, else
// the matched position's rate when the currencies agree, else 0. The
// zero is a deliberate fail-safe: an unconvertible cross-currency
// amount is suppressed rather than mis-reported at the wrong scale.
//
// Total function: no match means income 0, never an error.
func Attribute(div domain.DividendPayment, timeline []PositionRecord) Attribution {
	attr := Attribution{
		Dividend: div,
		Income:   domain.Zero,
		FxRate:   domain.One,
		Quantity: domain.Zero,
	}

	matched := bestMatch(div, timeline)
	if matched == nil {
		return attr
	}
	attr.Matched = matched
	attr.Quantity = matched.Quantity

	fx, ok := resolveFx(div, matched)
	if !ok {
		slog.Warn("dividend FX unresolvable, income suppressed",
			"symbol", div.Symbol, "isin", div.ISIN,
			"currency", div.Currency, "ex_date", div.ExDate.Format("2006-01-02"))
		attr.FxRate = domain.Zero
		return attr
	}
	attr.FxRate = fx

	switch div.AmountType {
	case domain.AmountPerShare:
		attr.Income = div.Amount.Mul(matched.Quantity).Mul(fx)
	case domain.AmountTotalNet:
		attr.Income = div.Amount.Mul(fx)
	}
	return attr
}

// AttributeAll attributes every dividend against the same timeline. The
// timeline must already cover the full window including the lookback
// snapshot; this is why attribution always runs after the timeline is
// completely built.
func AttributeAll(dividends []domain.DividendPayment, timeline []PositionRecord) []Attribution {
	out := make([]Attribution, 0, len(dividends))
	for _, d := range dividends {
		out = append(out, Attribute(d, timeline))
	}
	return out
}

func bestMatch(div domain.DividendPayment, timeline []PositionRecord) *PositionRecord {
	windowStart := div.ExDate.Add(-matchWindowBefore)
	windowEnd := div.ExDate.Add(matchWindowAfter)

	var best *PositionRecord
	var bestDistance time.Duration

	for i := range timeline {
		rec := &timeline[i]
		if !sameInstrument(div, rec) {
			continue
		}
		if rec.Date.Before(windowStart) || rec.Date.After(windowEnd) {
			continue
		}

		distance := rec.Date.Sub(div.ExDate)
		if distance < 0 {
			distance = -distance
		}
		if best == nil || distance < bestDistance {
			best = rec
			bestDistance = distance
		}
	}
	return best
}

func sameInstrument(div domain.DividendPayment, rec *PositionRecord) bool {
	if div.ISIN != "" && rec.ISIN != "" {
		return div.ISIN == rec.ISIN
	}
	return div.Symbol != "" && strings.EqualFold(div.Symbol, rec.Symbol)
}

func resolveFx(div domain.DividendPayment, matched *PositionRecord) (domain.Decimal, bool) {
	if div.HasOwnFxRate() {
		return *div.FxRate, true
	}
	if div.Currency == domain.BaseCurrency {
		return domain.One, true
	}
	if div.Currency == matched.Currency && !matched.FxRate.IsZero() {
		return matched.FxRate, true
	}
	return domain.Zero, false
}
