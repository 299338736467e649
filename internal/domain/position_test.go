package domain

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPosition_BaseValue(t *testing.T) {
	p := NewPosition("US0378331005", "AAPL", MustDecimal("10"), MustDecimal("1500"), MustDecimal("1200"), "USD", MustDecimal("0.92"))

	if got := p.BaseValue(); !got.Equal(MustDecimal("1380")) {
		t.Errorf("BaseValue: expected 1380, got %s", got)
	}
	if got := p.BaseCost(); !got.Equal(MustDecimal("1104")) {
		t.Errorf("BaseCost: expected 1104, got %s", got)
	}
}

func TestPosition_IsShort(t *testing.T) {
	long := NewPosition("", "AAPL", MustDecimal("10"), Zero, Zero, "USD", One)
	short := NewPosition("", "AAPL", MustDecimal("-10"), Zero, Zero, "USD", One)

	if long.IsShort() {
		t.Error("long position reported as short")
	}
	if !short.IsShort() {
		t.Error("short position not reported as short")
	}
}

func TestSnapshot_AddPosition_Invalid(t *testing.T) {
	s := NewPortfolioSnapshot(date(2025, 1, 31), "ibkr")

	err := s.AddPosition(Position{Currency: "USD"})
	if !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}

	err = s.AddPosition(Position{Symbol: "AAPL"})
	if !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition for missing currency, got %v", err)
	}
}

func TestSnapshot_Finalize(t *testing.T) {
	s := NewPortfolioSnapshot(date(2025, 1, 31), "ibkr")

	positions := []Position{
		NewPosition("US0378331005", "AAPL", MustDecimal("10"), MustDecimal("1000"), MustDecimal("800"), "USD", MustDecimal("0.9")),
		NewPosition("FI0009000681", "NOKIA", MustDecimal("500"), MustDecimal("2000"), MustDecimal("2100"), "EUR", One),
	}
	for _, p := range positions {
		if err := s.AddPosition(p); err != nil {
			t.Fatalf("AddPosition failed: %v", err)
		}
	}
	s.Finalize()

	// 1000*0.9 + 2000*1 and 800*0.9 + 2100*1
	if !s.TotalValue.Equal(MustDecimal("2900")) {
		t.Errorf("TotalValue: expected 2900, got %s", s.TotalValue)
	}
	if !s.TotalCost.Equal(MustDecimal("2820")) {
		t.Errorf("TotalCost: expected 2820, got %s", s.TotalCost)
	}
	if s.PositionsCount != 2 {
		t.Errorf("PositionsCount: expected 2, got %d", s.PositionsCount)
	}
	for _, p := range s.Positions {
		if p.SnapshotID != s.ID {
			t.Errorf("position %s not linked to snapshot", p.Symbol)
		}
	}
}
