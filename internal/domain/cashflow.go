package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidCashFlow = errors.New("invalid cash flow")

type FlowType string

const (
	FlowDeposit    FlowType = "deposit"
	FlowWithdrawal FlowType = "withdrawal"
	FlowInterest   FlowType = "interest"
	FlowFee        FlowType = "fee"
)

// CashFlow is one external cash event on the account. AmountEUR is the
// base-currency conversion when the ingestion collaborator supplied one.
type CashFlow struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	FlowType  FlowType  `json:"flow_type"`
	Amount    Decimal   `json:"amount"`
	Currency  string    `json:"currency"`
	AmountEUR *Decimal  `json:"amount_eur,omitempty"`
}

func NewCashFlow(date time.Time, flowType FlowType, amount Decimal, currency string) CashFlow {
	return CashFlow{
		ID:       uuid.New().String(),
		Date:     date,
		FlowType: flowType,
		Amount:   amount,
		Currency: currency,
	}
}

// IsValid reports whether the fields required at the ingestion boundary
// are present.
func (c CashFlow) IsValid() bool {
	switch c.FlowType {
	case FlowDeposit, FlowWithdrawal, FlowInterest, FlowFee:
	default:
		return false
	}
	return c.Currency != "" && !c.Date.IsZero()
}

// BaseAmount returns the EUR amount when available, falling back to the
// raw amount for EUR-denominated flows. Zero for unconverted foreign
// flows, consistent with the FX fail-safe elsewhere.
func (c CashFlow) BaseAmount() Decimal {
	if c.AmountEUR != nil {
		return *c.AmountEUR
	}
	if c.Currency == "EUR" {
		return c.Amount
	}
	return Zero
}
