package domain

import "time"

// BaseCurrency is the reporting currency everything converts into.
const BaseCurrency = "EUR"

// FxRate is one row of the (date, currency) → rate table. Rate converts
// one unit of Currency into the base currency. EUR is always 1.
type FxRate struct {
	Date     time.Time `json:"date"`
	Currency string    `json:"currency"`
	Rate     Decimal   `json:"rate"`
}

// FxTable is an in-memory lookup over imported FX rates.
type FxTable struct {
	rates map[string]Decimal
}

func fxKey(date time.Time, currency string) string {
	return date.Format("2006-01-02") + "/" + currency
}

// NewFxTable builds a lookup table from imported rates.
func NewFxTable(rates []FxRate) *FxTable {
	t := &FxTable{rates: make(map[string]Decimal, len(rates))}
	for _, r := range rates {
		t.rates[fxKey(r.Date, r.Currency)] = r.Rate
	}
	return t
}

// Rate returns the rate for (date, currency). EUR always resolves to 1.
// The second return value is false when no rate is recorded.
func (t *FxTable) Rate(date time.Time, currency string) (Decimal, bool) {
	if currency == BaseCurrency {
		return One, true
	}
	r, ok := t.rates[fxKey(date, currency)]
	return r, ok
}
