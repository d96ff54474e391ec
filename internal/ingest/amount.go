package ingest

import (
	"fmt"
	"strings"
)

// ParseAmountMinor converts a statement amount string into integer minor
// units at the given currency precision. Floating point is never involved,
// so "0.10" at precision 2 is exactly 10.
//
// Accepted shapes: "12.34", "-12.34", "+12", "(12.34)" for negatives,
// and thousands separators as in "1,234.56".
func ParseAmountMinor(s string, precision int) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	switch {
	case strings.HasPrefix(s, "-"):
		negative = !negative
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("amount has no digits")
	}

	wholePart := s
	fracPart := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		wholePart = s[:dot]
		fracPart = s[dot+1:]
		if strings.IndexByte(fracPart, '.') >= 0 {
			return 0, fmt.Errorf("malformed amount %q", s)
		}
	}
	if wholePart == "" {
		wholePart = "0"
	}
	if len(fracPart) > precision {
		return 0, fmt.Errorf("amount %q has more than %d fractional digits", s, precision)
	}

	var minor int64
	for _, r := range wholePart {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("malformed amount %q", s)
		}
		digit := int64(r - '0')
		if minor > (1<<62)/10 {
			return 0, fmt.Errorf("amount %q overflows", s)
		}
		minor = minor*10 + digit
	}
	for i := 0; i < precision; i++ {
		var digit int64
		if i < len(fracPart) {
			r := fracPart[i]
			if r < '0' || r > '9' {
				return 0, fmt.Errorf("malformed amount %q", s)
			}
			digit = int64(r - '0')
		}
		if minor > (1<<62)/10 {
			return 0, fmt.Errorf("amount %q overflows", s)
		}
		minor = minor*10 + digit
	}

	if negative {
		minor = -minor
	}
	return minor, nil
}
