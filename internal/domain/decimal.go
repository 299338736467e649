package domain

import (
	"database/sql/driver"
	"fmt"
	"math"

	"github.com/cockroachdb/apd/v3"
)

// Decimal wraps apd.Decimal so money and quantity values get exact
// arithmetic, database serialization and JSON marshalling in one type.
// Binary floating point is never used for ledger amounts.
type Decimal struct {
	apd.Decimal
}

// DefaultContext is used for all arithmetic operations. 28 significant
// digits covers any broker-reported amount with room for FX chains.
var DefaultContext = apd.BaseContext.WithPrecision(28)

// Zero is the zero value, exported for convenience.
var Zero = NewDecimalFromInt(0)

// One is the unit value, used as the EUR/EUR FX rate.
var One = NewDecimalFromInt(1)

// NewDecimalFromInt creates a Decimal from an int64.
func NewDecimalFromInt(v int64) Decimal {
	d := Decimal{}
	d.SetInt64(v)
	return d
}

// NewDecimalFromString creates a Decimal from a string.
func NewDecimalFromString(v string) (Decimal, error) {
	d := Decimal{}
	if _, _, err := d.SetString(v); err != nil {
		return d, fmt.Errorf("invalid decimal string %q: %w", v, err)
	}
	return d, nil
}

// MustDecimal parses a decimal literal and panics on malformed input.
// Intended for constants and test fixtures only.
func MustDecimal(v string) Decimal {
	d, err := NewDecimalFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

// NewDecimalFromFloat creates a Decimal from a float64. Only for
// boundary conversions (quote providers); never for ledger math.
func NewDecimalFromFloat(v float64) Decimal {
	d := Decimal{}
	// SetFloat64 fails only on NaN/Inf, which callers never pass.
	if _, err := d.SetFloat64(v); err != nil {
		d.SetInt64(0)
	}
	return d
}

func (d Decimal) String() string {
	return d.Decimal.String()
}

// Value implements driver.Valuer for database serialization.
func (d Decimal) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner for database deserialization.
func (d *Decimal) Scan(value interface{}) error {
	if value == nil {
		d.SetInt64(0)
		return nil
	}

	switch v := value.(type) {
	case []byte:
		_, _, err := d.SetString(string(v))
		return err
	case string:
		_, _, err := d.SetString(v)
		return err
	case int64:
		d.SetInt64(v)
		return nil
	case float64:
		_, err := d.SetFloat64(v)
		return err
	default:
		return fmt.Errorf("unsupported type for Decimal scan: %T", value)
	}
}

// Arithmetic helpers. All operations are total: operands are always
// finite here, and division by zero yields Zero instead of an error so
// aggregate pipelines never have to thread impossible failures.

func (d Decimal) Add(other Decimal) Decimal {
	res := Decimal{}
	_, _ = DefaultContext.Add(&res.Decimal, &d.Decimal, &other.Decimal)
	return res
}

func (d Decimal) Sub(other Decimal) Decimal {
	res := Decimal{}
	_, _ = DefaultContext.Sub(&res.Decimal, &d.Decimal, &other.Decimal)
	return res
}

func (d Decimal) Mul(other Decimal) Decimal {
	res := Decimal{}
	_, _ = DefaultContext.Mul(&res.Decimal, &d.Decimal, &other.Decimal)
	return res
}

// Div returns d/other, or Zero when other is zero.
func (d Decimal) Div(other Decimal) Decimal {
	if other.IsZero() {
		return Zero
	}
	res := Decimal{}
	_, _ = DefaultContext.Quo(&res.Decimal, &d.Decimal, &other.Decimal)
	return res
}

// Neg returns -d.
func (d Decimal) Neg() Decimal {
	res := Decimal{}
	res.Decimal.Neg(&d.Decimal)
	return res
}

// Abs returns |d|.
func (d Decimal) Abs() Decimal {
	res := Decimal{}
	res.Decimal.Abs(&d.Decimal)
	return res
}

func (d Decimal) IsZero() bool {
	return d.Decimal.IsZero()
}

// IsPositive reports whether d > 0.
func (d Decimal) IsPositive() bool {
	return d.Decimal.Sign() > 0 && !d.Decimal.IsZero()
}

// IsNegative reports whether d < 0.
func (d Decimal) IsNegative() bool {
	return d.Decimal.Sign() < 0
}

func (d Decimal) Equal(other Decimal) bool {
	return d.Decimal.Cmp(&other.Decimal) == 0
}

func (d Decimal) Cmp(other Decimal) int {
	return d.Decimal.Cmp(&other.Decimal)
}

// Float64 returns the nearest float64. Only for analytics output
// (yields, percentages), never fed back into money arithmetic.
func (d Decimal) Float64() float64 {
	f, err := d.Decimal.Float64()
	if err != nil {
		return math.NaN()
	}
	return f
}

// Round rounds half-up to the given number of decimal places.
func (d Decimal) Round(places int32) Decimal {
	ctx := apd.BaseContext.WithPrecision(28)
	ctx.Rounding = apd.RoundHalfUp

	res := Decimal{}
	_, _ = ctx.Quantize(&res.Decimal, &d.Decimal, -places)
	return res
}

// MarshalJSON implements json.Marshaler. Amounts are emitted as JSON
// strings so clients never round-trip them through float64.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler, accepting both quoted and
// bare numeric forms.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) > 1 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	_, _, err := d.SetString(s)
	return err
}
