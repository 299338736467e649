package domain

import "strings"

type AssetCategory string

const (
	AssetStock AssetCategory = "stock"
	AssetETF   AssetCategory = "etf"
	AssetFund  AssetCategory = "fund"
	AssetBond  AssetCategory = "bond"
)

// Instrument is the canonical identity record for a traded security.
// ISIN is the primary key; broker feeds that only carry tickers resolve
// through the alias list. Identity fields are immutable after import;
// Sector and DividendRate are enrichment caches and may be updated.
type Instrument struct {
	ISIN         string        `json:"isin"`
	Symbol       string        `json:"symbol"`
	Aliases      []string      `json:"aliases,omitempty"`
	Name         string        `json:"name"`
	Category     AssetCategory `json:"category"`
	Currency     string        `json:"currency"`
	Sector       string        `json:"sector,omitempty"`
	DividendRate *Decimal      `json:"dividend_rate,omitempty"`
}

func NewInstrument(isin, symbol, name string, category AssetCategory, currency string) Instrument {
	return Instrument{
		ISIN:     isin,
		Symbol:   symbol,
		Name:     name,
		Category: category,
		Currency: currency,
	}
}

// IsValid reports whether the identity fields required at the ingestion
// boundary are present.
func (i Instrument) IsValid() bool {
	return i.ISIN != "" && i.Currency != ""
}

// HasSymbol reports whether the given ticker names this instrument,
// either as primary symbol or through an alias.
func (i Instrument) HasSymbol(symbol string) bool {
	if symbol == "" {
		return false
	}
	if strings.EqualFold(i.Symbol, symbol) {
		return true
	}
	for _, a := range i.Aliases {
		if strings.EqualFold(a, symbol) {
			return true
		}
	}
	return false
}
