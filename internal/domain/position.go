package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidPosition  = errors.New("invalid position")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Position is one line item of a PortfolioSnapshot: the holding of a
// single instrument on the snapshot's report date. Quantity is signed,
// negative for short positions. FxRate converts the position's currency
// to the base currency (EUR) on that date. Immutable once its snapshot
// is finalized.
type Position struct {
	ID          string  `json:"id"`
	SnapshotID  string  `json:"-"`
	ISIN        string  `json:"isin"`
	Symbol      string  `json:"symbol"`
	Quantity    Decimal `json:"quantity"`
	MarketValue Decimal `json:"market_value"`
	CostBasis   Decimal `json:"cost_basis"`
	Currency    string  `json:"currency"`
	FxRate      Decimal `json:"fx_rate"`
}

func NewPosition(isin, symbol string, quantity, marketValue, costBasis Decimal, currency string, fxRate Decimal) Position {
	return Position{
		ID:          uuid.New().String(),
		ISIN:        isin,
		Symbol:      symbol,
		Quantity:    quantity,
		MarketValue: marketValue,
		CostBasis:   costBasis,
		Currency:    currency,
		FxRate:      fxRate,
	}
}

// IsValid reports whether the identity fields required at the ingestion
// boundary are present. A position must name its instrument by ISIN or
// at least by symbol.
func (p Position) IsValid() bool {
	return (p.ISIN != "" || p.Symbol != "") && p.Currency != ""
}

// IsShort reports whether this is a short position.
func (p Position) IsShort() bool {
	return p.Quantity.IsNegative()
}

// BaseValue returns the market value converted to the base currency.
func (p Position) BaseValue() Decimal {
	return p.MarketValue.Mul(p.FxRate)
}

// BaseCost returns the cost basis converted to the base currency.
func (p Position) BaseCost() Decimal {
	return p.CostBasis.Mul(p.FxRate)
}

// PortfolioSnapshot is one broker report: all positions held on a
// single date, from a single source. TotalValue and TotalCost are
// backfilled from the FX-normalized position sums when the snapshot is
// finalized at import time and never change afterwards.
type PortfolioSnapshot struct {
	ID             string     `json:"id"`
	ReportDate     time.Time  `json:"report_date"`
	Source         string     `json:"source"`
	TotalValue     Decimal    `json:"total_value"`
	TotalCost      Decimal    `json:"total_cost"`
	PositionsCount int        `json:"positions_count"`
	Positions      []Position `json:"positions"`
}

func NewPortfolioSnapshot(reportDate time.Time, source string) PortfolioSnapshot {
	return PortfolioSnapshot{
		ID:         uuid.New().String(),
		ReportDate: reportDate,
		Source:     source,
		Positions:  make([]Position, 0),
	}
}

// AddPosition appends a line item. Fails on positions missing identity
// fields; dedupe across snapshots is not a concern here because each
// snapshot is a self-contained report.
func (s *PortfolioSnapshot) AddPosition(p Position) error {
	if !p.IsValid() {
		return ErrInvalidPosition
	}
	p.SnapshotID = s.ID
	s.Positions = append(s.Positions, p)
	return nil
}

// Finalize backfills the snapshot totals from its positions. Must be
// called exactly once, before the snapshot is persisted; the totals and
// the positions go into the store in one transaction.
func (s *PortfolioSnapshot) Finalize() {
	value := Zero
	cost := Zero
	for _, p := range s.Positions {
		value = value.Add(p.BaseValue())
		cost = cost.Add(p.BaseCost())
	}
	s.TotalValue = value
	s.TotalCost = cost
	s.PositionsCount = len(s.Positions)
}
