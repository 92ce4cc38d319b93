package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxPrice is the largest price that fits ten digits with two decimals.
const MaxPrice Price = 9999999999

// ErrInvalidPrice is returned when a price string cannot be parsed.
var ErrInvalidPrice = errors.New("invalid price")

// Price is a non-negative fixed-point amount stored as cents.
// It encodes to JSON as a string with exactly two fractional digits.
type Price int64

// ParsePrice parses "123", "123.4" or "123.45" into a Price.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidPrice)
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || !isDigits(whole) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	if hasFrac && (frac == "" || len(frac) > 2 || !isDigits(frac)) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if len(strings.TrimLeft(whole, "0")) > 8 {
		return 0, fmt.Errorf("%w: %q exceeds %s", ErrInvalidPrice, s, MaxPrice)
	}
	n, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return Price(n), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Cents returns the raw number of cents.
func (p Price) Cents() int64 { return int64(p) }

// String formats the price with two fractional digits, e.g. "100000.00".
func (p Price) String() string {
	n := int64(p)
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	return fmt.Sprintf("%s%d.%02d", sign, n/100, n%100)
}

// MarshalJSON encodes the price as a quoted decimal string.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

// UnmarshalJSON accepts either a quoted decimal string or a bare number.
func (p *Price) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	v, err := ParsePrice(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
