package domain

import (
	"time"

	"github.com/google/uuid"
)

// SoldPosition is a closed lot kept for what-if analysis and for the
// realized side of the balance identity. Not used by the attribution or
// reconstruction cores.
type SoldPosition struct {
	ID            string    `json:"id"`
	ISIN          string    `json:"isin"`
	Symbol        string    `json:"symbol"`
	Quantity      Decimal   `json:"quantity"`
	PurchasePrice Decimal   `json:"purchase_price"`
	PurchaseDate  time.Time `json:"purchase_date"`
	SalePrice     Decimal   `json:"sale_price"`
	SaleDate      time.Time `json:"sale_date"`
	Currency      string    `json:"currency"`
	RealizedPnL   Decimal   `json:"realized_pnl"`
	RealizedEUR   *Decimal  `json:"realized_eur,omitempty"`
}

func NewSoldPosition(isin, symbol string, quantity, purchasePrice, salePrice Decimal, purchaseDate, saleDate time.Time, currency string) SoldPosition {
	s := SoldPosition{
		ID:            uuid.New().String(),
		ISIN:          isin,
		Symbol:        symbol,
		Quantity:      quantity,
		PurchasePrice: purchasePrice,
		PurchaseDate:  purchaseDate,
		SalePrice:     salePrice,
		SaleDate:      saleDate,
		Currency:      currency,
	}
	s.RealizedPnL = salePrice.Sub(purchasePrice).Mul(quantity)
	return s
}

// BaseRealized returns the realized P&L in the base currency when a
// conversion was recorded, falling back to the raw value for EUR lots.
func (s SoldPosition) BaseRealized() Decimal {
	if s.RealizedEUR != nil {
		return *s.RealizedEUR
	}
	if s.Currency == BaseCurrency {
		return s.RealizedPnL
	}
	return Zero
}
