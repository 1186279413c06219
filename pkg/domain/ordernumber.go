package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OrderDateLayout is the date prefix of an order number.
const OrderDateLayout = "20060102"

// OrderNumberPrefix returns the YYYYMMDD prefix for now in its own location.
func OrderNumberPrefix(now time.Time) string {
	return now.Format(OrderDateLayout)
}

// FormatOrderNumber renders prefix and sequence as YYYYMMDD-NNN. Sequences
// above 999 widen rather than wrap.
func FormatOrderNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s-%03d", prefix, seq)
}

// ParseOrderNumber splits an order number into its date prefix and sequence.
func ParseOrderNumber(number string) (prefix string, seq int, ok bool) {
	prefix, tail, found := strings.Cut(number, "-")
	if !found || len(prefix) != len(OrderDateLayout) || len(tail) < 3 || !digits(prefix) || !digits(tail) {
		return "", 0, false
	}
	seq, err := strconv.Atoi(tail)
	if err != nil {
		return "", 0, false
	}
	return prefix, seq, true
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
