package marketdata

import (
	"context"

	"github.com/shopspring/decimal"
)

// Quote is a market price at a point in time. Prices cross this
// boundary as shopspring decimals parsed from the provider's JSON; the
// application layer converts them into domain decimals.
type Quote struct {
	Symbol   string
	Price    decimal.Decimal
	Currency string
	Time     string
}

// QuoteProvider supplies market prices for current-yield analytics.
// Implementations are external collaborators; the core only depends on
// this interface and degrades gracefully when a provider fails.
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
}
