package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidTrade = errors.New("invalid trade")

// Trade is one execution as delivered by an ingestion collaborator.
// Quantity is signed: positive buys, negative sells. Immutable once
// imported; ExternalID is the broker's deterministic identifier used
// for dedupe.
type Trade struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"`
	ISIN       string    `json:"isin"`
	Symbol     string    `json:"symbol"`
	Date       time.Time `json:"date"`
	Quantity   Decimal   `json:"quantity"`
	Price      Decimal   `json:"price"`
	Amount     Decimal   `json:"amount"`
	Commission Decimal   `json:"commission"`
	Currency   string    `json:"currency"`
}

func NewTrade(externalID, isin, symbol string, date time.Time, quantity, price, amount, commission Decimal, currency string) Trade {
	return Trade{
		ID:         uuid.New().String(),
		ExternalID: externalID,
		ISIN:       isin,
		Symbol:     symbol,
		Date:       date,
		Quantity:   quantity,
		Price:      price,
		Amount:     amount,
		Commission: commission,
		Currency:   currency,
	}
}

// IsValid reports whether the identity fields required at the ingestion
// boundary are present.
func (t Trade) IsValid() bool {
	if t.ISIN == "" && t.Symbol == "" {
		return false
	}
	return t.Currency != "" && !t.Date.IsZero() && !t.Quantity.IsZero()
}

// IsBuy reports whether the trade increases the position.
func (t Trade) IsBuy() bool {
	return t.Quantity.IsPositive()
}

// InstrumentKey returns the identifier the reconstructor groups trades
// by: ISIN when present, symbol otherwise.
func (t Trade) InstrumentKey() string {
	if t.ISIN != "" {
		return t.ISIN
	}
	return t.Symbol
}
