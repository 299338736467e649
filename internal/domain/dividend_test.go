package domain

import (
	"testing"
)

func TestDividendPayment_IsValid(t *testing.T) {
	valid := NewDividendPayment("ext-1", "US0378331005", "AAPL",
		date(2025, 3, 15), date(2025, 4, 1), MustDecimal("0.25"), AmountPerShare, "USD")
	if !valid.IsValid() {
		t.Error("expected valid payment")
	}

	noIdentity := valid
	noIdentity.ISIN = ""
	noIdentity.Symbol = ""
	if noIdentity.IsValid() {
		t.Error("payment without ISIN or symbol should be invalid")
	}

	badType := valid
	badType.AmountType = "gross"
	if badType.IsValid() {
		t.Error("payment with unknown amount type should be invalid")
	}

	noCurrency := valid
	noCurrency.Currency = ""
	if noCurrency.IsValid() {
		t.Error("payment without currency should be invalid")
	}
}

func TestDividendPayment_OptionalRates(t *testing.T) {
	d := NewDividendPayment("ext-1", "", "AAPL",
		date(2025, 3, 15), date(2025, 4, 1), MustDecimal("250"), AmountTotalNet, "USD")

	if d.HasOwnFxRate() || d.HasPerShareRate() {
		t.Error("fresh payment should carry no optional rates")
	}

	zero := Zero
	d.FxRate = &zero
	if d.HasOwnFxRate() {
		t.Error("zero fx rate must not count as usable")
	}

	fx := MustDecimal("0.92")
	ps := MustDecimal("0.25")
	d.FxRate = &fx
	d.PerShare = &ps
	if !d.HasOwnFxRate() || !d.HasPerShareRate() {
		t.Error("expected usable optional rates")
	}
}

func TestTrade_InstrumentKey(t *testing.T) {
	withISIN := NewTrade("t1", "US0378331005", "AAPL", date(2025, 1, 2),
		MustDecimal("10"), MustDecimal("150"), MustDecimal("1500"), MustDecimal("1"), "USD")
	if withISIN.InstrumentKey() != "US0378331005" {
		t.Errorf("expected ISIN key, got %s", withISIN.InstrumentKey())
	}

	bySymbol := NewTrade("t2", "", "NOKIA", date(2025, 1, 2),
		MustDecimal("-5"), MustDecimal("4"), MustDecimal("-20"), MustDecimal("1"), "EUR")
	if bySymbol.InstrumentKey() != "NOKIA" {
		t.Errorf("expected symbol key, got %s", bySymbol.InstrumentKey())
	}
	if bySymbol.IsBuy() {
		t.Error("negative quantity should not be a buy")
	}
}

func TestCashFlow_BaseAmount(t *testing.T) {
	eur := NewCashFlow(date(2025, 2, 1), FlowDeposit, MustDecimal("1000"), "EUR")
	if !eur.BaseAmount().Equal(MustDecimal("1000")) {
		t.Errorf("EUR flow: expected raw amount, got %s", eur.BaseAmount())
	}

	usd := NewCashFlow(date(2025, 2, 1), FlowDeposit, MustDecimal("1000"), "USD")
	if !usd.BaseAmount().IsZero() {
		t.Errorf("unconverted foreign flow: expected zero, got %s", usd.BaseAmount())
	}

	converted := MustDecimal("920")
	usd.AmountEUR = &converted
	if !usd.BaseAmount().Equal(converted) {
		t.Errorf("converted flow: expected 920, got %s", usd.BaseAmount())
	}
}

func TestFxTable_Rate(t *testing.T) {
	table := NewFxTable([]FxRate{
		{Date: date(2025, 3, 14), Currency: "USD", Rate: MustDecimal("0.92")},
	})

	if r, ok := table.Rate(date(2025, 3, 14), "USD"); !ok || !r.Equal(MustDecimal("0.92")) {
		t.Errorf("expected recorded rate, got %s (ok=%v)", r, ok)
	}
	if r, ok := table.Rate(date(2025, 3, 14), "EUR"); !ok || !r.Equal(One) {
		t.Errorf("EUR must always resolve to 1, got %s (ok=%v)", r, ok)
	}
	if _, ok := table.Rate(date(2025, 3, 15), "USD"); ok {
		t.Error("unrecorded date must not resolve")
	}
}

func TestSoldPosition_RealizedPnL(t *testing.T) {
	lot := NewSoldPosition("US0378331005", "AAPL", MustDecimal("10"),
		MustDecimal("100"), MustDecimal("120"), date(2024, 6, 1), date(2025, 2, 1), "USD")
	if !lot.RealizedPnL.Equal(MustDecimal("200")) {
		t.Errorf("expected realized 200, got %s", lot.RealizedPnL)
	}
	if !lot.BaseRealized().IsZero() {
		t.Errorf("unconverted USD lot must suppress to zero, got %s", lot.BaseRealized())
	}

	eur := MustDecimal("184")
	lot.RealizedEUR = &eur
	if !lot.BaseRealized().Equal(eur) {
		t.Errorf("expected converted 184, got %s", lot.BaseRealized())
	}
}
