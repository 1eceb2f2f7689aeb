package pricing

import "fmt"

// Money is an amount in kopiyky (1/100 hryvnia).
type Money int64

// Hryvnias converts a whole hryvnia amount to Money.
func Hryvnias(uah int64) Money {
	return Money(uah * 100)
}

// String formats m with two decimals, e.g. "144.00".
func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%d.%02d", sign, int64(m)/100, int64(m)%100)
}
