package application

import (
	"sort"
	"time"

	"github.com/jhalmu/dividendsomatic/internal/domain"
)

// ReconstructedHolding is the running state of one instrument inside a
// reconstructed position series.
type ReconstructedHolding struct {
	Key       string
	Symbol    string
	Currency  string
	Quantity  domain.Decimal
	CostBasis domain.Decimal
}

// ReconstructedPoint is the full position map at one sampled date.
type ReconstructedPoint struct {
	Date     time.Time
	Holdings []ReconstructedHolding
}

type holdingState struct {
	symbol    string
	currency  string
	quantity  domain.Decimal
	costBasis domain.Decimal
}

// ReconstructPositions derives a position-over-time series directly
// from trade events, for periods where no broker snapshot exists.
//
// Running quantity and cost basis are kept per instrument. Buys add
// quantity*price to the cost basis; sells reduce it proportionally to
// the quantity sold. This is an average-cost approximation of FIFO, not
// per-lot matching: downstream consumers rely on the averaged behavior,
// so it must stay this way. Instruments whose quantity returns to
// exactly zero drop out of the map.
//
// The series is sampled at every Monday between the first and last
// trade plus every actual trade date, bounding output volume for
// charting while still landing exactly on each transaction.
func ReconstructPositions(trades []domain.Trade) []ReconstructedPoint {
	if len(trades) == 0 {
		return []ReconstructedPoint{}
	}

	ordered := make([]domain.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	live := make(map[string]holdingState)

	// One snapshot of the live map per transaction, keyed by the last
	// transaction date at or before the sample date.
	txDates := make([]time.Time, 0, len(ordered))
	txStates := make([]map[string]holdingState, 0, len(ordered))

	for _, t := range ordered {
		key := t.InstrumentKey()
		s := live[key]
		s.symbol = t.Symbol
		s.currency = t.Currency

		if t.IsBuy() {
			s.quantity = s.quantity.Add(t.Quantity)
			s.costBasis = s.costBasis.Add(t.Quantity.Mul(t.Price))
		} else {
			sellQty := t.Quantity.Abs()
			remaining := s.quantity.Sub(sellQty)
			if s.quantity.IsZero() {
				// Sell against an empty position: no basis to reduce.
				s.costBasis = domain.Zero
			} else {
				factor := remaining.Div(s.quantity)
				if factor.IsNegative() {
					factor = domain.Zero
				}
				s.costBasis = s.costBasis.Mul(factor)
			}
			s.quantity = remaining
		}

		if s.quantity.IsZero() {
			delete(live, key)
		} else {
			live[key] = s
		}

		txDates = append(txDates, dateOnly(t.Date))
		txStates = append(txStates, copyStates(live))
	}

	samples := sampleDates(txDates)

	points := make([]ReconstructedPoint, 0, len(samples))
	for _, day := range samples {
		idx := lastTxAtOrBefore(txDates, day)
		if idx < 0 {
			continue
		}
		points = append(points, ReconstructedPoint{
			Date:     day,
			Holdings: toHoldings(txStates[idx]),
		})
	}
	return points
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// sampleDates returns every Monday between the first and last trade
// date plus every trade date itself, sorted and deduplicated.
func sampleDates(txDates []time.Time) []time.Time {
	seen := make(map[time.Time]bool)
	var out []time.Time
	for _, d := range txDates {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}

	first, last := txDates[0], txDates[len(txDates)-1]
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Monday && !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func lastTxAtOrBefore(txDates []time.Time, day time.Time) int {
	idx := -1
	for i, d := range txDates {
		if d.After(day) {
			break
		}
		idx = i
	}
	return idx
}

func copyStates(m map[string]holdingState) map[string]holdingState {
	out := make(map[string]holdingState, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func toHoldings(m map[string]holdingState) []ReconstructedHolding {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]ReconstructedHolding, 0, len(m))
	for _, k := range keys {
		s := m[k]
		out = append(out, ReconstructedHolding{
			Key:       k,
			Symbol:    s.symbol,
			Currency:  s.currency,
			Quantity:  s.quantity,
			CostBasis: s.costBasis,
		})
	}
	return out
}
