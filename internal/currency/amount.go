package currency

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"strings"
)

// Amount is a non-negative integer amount in the smallest currency unit
// (wei for on-chain settlement). It is serialized as a decimal string at
// every boundary: JSON, SQL and events. Never a float.
type Amount struct {
	v big.Int
}

// New returns an Amount for a small constant value.
func New(i int64) Amount {
	var a Amount
	a.v.SetInt64(i)
	return a
}

// Parse parses a decimal-string amount. Rejects empty strings, signs other
// than a plain leading digit, and any non-digit characters.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("empty amount")
	}
	var a Amount
	if _, ok := a.v.SetString(s, 10); !ok {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	if a.v.Sign() < 0 {
		return Amount{}, fmt.Errorf("negative amount %q", s)
	}
	return a, nil
}

// MustParse is Parse for trusted constants; panics on bad input.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) String() string { return a.v.String() }

func (a Amount) IsZero() bool { return a.v.Sign() == 0 }

// Cmp returns -1, 0 or +1 comparing a against b.
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

func (a Amount) Add(b Amount) Amount {
	var r Amount
	r.v.Add(&a.v, &b.v)
	return r
}

// Sub returns a-b, floored at zero. Amounts are never negative.
func (a Amount) Sub(b Amount) Amount {
	var r Amount
	r.v.Sub(&a.v, &b.v)
	if r.v.Sign() < 0 {
		r.v.SetInt64(0)
	}
	return r
}

// Half returns a/2 with the remainder truncated toward zero.
func (a Amount) Half() Amount {
	var r Amount
	r.v.Rsh(&a.v, 1)
	return r
}

// Percent returns a*n/100 using integer division.
func (a Amount) Percent(n int64) Amount {
	var r Amount
	r.v.Mul(&a.v, big.NewInt(n))
	r.v.Quo(&r.v, big.NewInt(100))
	return r
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.v.String() + `"`), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer; amounts are stored in NUMERIC columns.
func (a Amount) Value() (driver.Value, error) {
	return a.v.String(), nil
}

// Scan implements sql.Scanner. lib/pq hands NUMERIC values over as []byte.
func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		a.v.SetInt64(0)
		return nil
	case int64:
		a.v.SetInt64(v)
		return nil
	case []byte:
		return a.scanString(string(v))
	case string:
		return a.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into currency.Amount", src)
	}
}

func (a *Amount) scanString(s string) error {
	// NUMERIC can come back as "100.00"; the fractional part is always zero
	// for amounts we write, so strip it rather than reject the row.
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
