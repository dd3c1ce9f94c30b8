package postgres

import (
	"fmt"
	"strconv"
	"strings"
)

// numericStringToCents converts the text form of a numeric(10,2) column
// to integer cents using pure integer arithmetic, so values never pass
// through floating point.
func numericStringToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty numeric string")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" {
		intPart = "0"
	}

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse numeric %q: %w", s, err)
	}

	var frac int64
	switch {
	case fracPart == "":
	case len(fracPart) <= 2:
		frac, err = strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse numeric %q: %w", s, err)
		}
		if len(fracPart) == 1 {
			frac *= 10
		}
	default:
		// Longer fractions cannot come from a (10,2) column; round half up.
		if _, err := strconv.ParseInt(fracPart, 10, 64); err != nil {
			return 0, fmt.Errorf("parse numeric %q: %w", s, err)
		}
		frac, _ = strconv.ParseInt(fracPart[:2], 10, 64)
		if fracPart[2] >= '5' {
			frac++
		}
	}

	cents := whole*100 + frac
	if neg {
		cents = -cents
	}
	return cents, nil
}

// centsToNumericString renders integer cents as the dotted decimal text
// Postgres expects for a numeric(10,2) column.
func centsToNumericString(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	if neg {
		return "-" + s
	}
	return s
}
