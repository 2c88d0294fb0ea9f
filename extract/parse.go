package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var moneyToken = regexp.MustCompile(`([0-9]+(?:\.[0-9]{1,2})?)`)

// ParseMoney extracts the first amount from display text such as
// "$1,234.56". It returns nil when no numeric token is present; zero is a
// real value and is returned as such.
func ParseMoney(text string) *float64 {
	if text == "" {
		return nil
	}
	m := moneyToken.FindStringSubmatch(strings.ReplaceAll(text, ",", ""))
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

// issuedLayout is the "Month Year" shape portals print for issue dates.
const issuedLayout = "January 2006"

// ParseIssuedMonth parses "March 2024" as the first instant of that month
// in loc. Anything else (abbreviated months, sentinels such as "e-Toll")
// yields nil.
func ParseIssuedMonth(text string, loc *time.Location) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	t, err := time.ParseInLocation(issuedLayout, text, loc)
	if err != nil {
		return nil
	}
	return &t
}
