// Package types provides the value types shared by the ledger engines.
package types

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors in revenue,
// cash balances and unit costs.
type Money = decimal.Decimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ZeroMoney returns zero Money value.
func ZeroMoney() Money {
	return decimal.Zero
}

// Count is a whole-cylinder quantity. Cylinders are indivisible units,
// so counts are plain integers rather than scaled decimals; allocation
// math floors to whole cylinders.
type Count int64

func (c Count) Int64() int64 { return int64(c) }

func (c Count) IsZero() bool { return c == 0 }

func (c Count) IsPositive() bool { return c > 0 }

func (c Count) IsNegative() bool { return c < 0 }

func (c Count) Neg() Count { return -c }

func (c Count) Abs() Count {
	if c < 0 {
		return -c
	}
	return c
}

// ClampZero returns the count floored at zero.
func (c Count) ClampZero() Count {
	if c < 0 {
		return 0
	}
	return c
}

func (c Count) String() string {
	return strconv.FormatInt(int64(c), 10)
}

// ParseCount parses a decimal string into a Count.
func ParseCount(s string) (Count, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return Count(v), nil
}

// Date is a calendar day in UTC with zero time-of-day. Ledger rows are
// keyed by Date, so every event timestamp must be truncated through
// NewDate before it reaches a balance key.
type Date struct {
	t time.Time
}

// NewDate truncates t to its UTC calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateOf builds a Date from year, month, day.
func DateOf(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Time returns the midnight-UTC time value backing the date.
func (d Date) Time() time.Time { return d.t }

// Prev returns the previous calendar day.
func (d Date) Prev() Date { return Date{t: d.t.AddDate(0, 0, -1)} }

// Next returns the following calendar day.
func (d Date) Next() Date { return Date{t: d.t.AddDate(0, 0, 1)} }

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// After reports whether d is later than other.
func (d Date) After(other Date) bool { return d.t.After(other.t) }

// Equal reports whether d and other are the same day.
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.t.IsZero() }

// DaysSince returns the number of whole days from other to d.
func (d Date) DaysSince(other Date) int {
	return int(d.t.Sub(other.t) / (24 * time.Hour))
}

func (d Date) String() string { return d.t.Format("2006-01-02") }

// Scan implements sql.Scanner so Date maps from a DATE column.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

// Value implements driver.Valuer so Date maps to a DATE column.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.t, nil
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD".
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date: %w", err)
	}
	return NewDate(t), nil
}
