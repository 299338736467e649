package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidDividend = errors.New("invalid dividend payment")

// AmountType distinguishes how a broker reported a dividend amount.
// The distinction is schema-level: it is never inferred from the value.
type AmountType string

const (
	// AmountPerShare means Amount is the per-share rate and must be
	// multiplied by the held quantity.
	AmountPerShare AmountType = "per_share"
	// AmountTotalNet means Amount is the full net payment, already
	// scaled by quantity, needing only FX conversion.
	AmountTotalNet AmountType = "total_net"
)

// DividendPayment is one dividend event as delivered by an ingestion
// collaborator. Immutable once imported; ExternalID is the broker's
// deterministic identifier used for dedupe.
type DividendPayment struct {
	ID         string     `json:"id"`
	ExternalID string     `json:"external_id"`
	ISIN       string     `json:"isin"`
	Symbol     string     `json:"symbol"`
	ExDate     time.Time  `json:"ex_date"`
	PayDate    time.Time  `json:"pay_date"`
	Amount     Decimal    `json:"amount"`
	AmountType AmountType `json:"amount_type"`
	Currency   string     `json:"currency"`
	Source     string     `json:"source,omitempty"`

	// Optional broker-supplied fields.
	FxRate           *Decimal `json:"fx_rate,omitempty"`
	PerShare         *Decimal `json:"per_share,omitempty"`
	QuantityAtRecord *Decimal `json:"quantity_at_record,omitempty"`
}

func NewDividendPayment(externalID, isin, symbol string, exDate, payDate time.Time, amount Decimal, amountType AmountType, currency string) DividendPayment {
	return DividendPayment{
		ID:         uuid.New().String(),
		ExternalID: externalID,
		ISIN:       isin,
		Symbol:     symbol,
		ExDate:     exDate,
		PayDate:    payDate,
		Amount:     amount,
		AmountType: amountType,
		Currency:   currency,
	}
}

// IsValid reports whether the identity fields required at the ingestion
// boundary are present.
func (d DividendPayment) IsValid() bool {
	if d.ISIN == "" && d.Symbol == "" {
		return false
	}
	if d.AmountType != AmountPerShare && d.AmountType != AmountTotalNet {
		return false
	}
	return d.Currency != "" && !d.ExDate.IsZero()
}

// HasOwnFxRate reports whether the broker supplied a usable FX rate
// with the payment itself.
func (d DividendPayment) HasOwnFxRate() bool {
	return d.FxRate != nil && !d.FxRate.IsZero()
}

// HasPerShareRate reports whether the broker supplied an explicit
// per-share rate alongside the amount.
func (d DividendPayment) HasPerShareRate() bool {
	return d.PerShare != nil && !d.PerShare.IsZero()
}
