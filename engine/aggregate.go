package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/use-agent/tollwatch/models"
)

// DiagnosticSeparator joins per-source diagnostics into one line.
const DiagnosticSeparator = " • "

// SourceResult is what one extraction attempt produced.
type SourceResult struct {
	Source     models.Source
	Notices    []models.Notice
	Diagnostic string
}

// Merged is one vehicle's combined view across sources.
type Merged struct {
	Notices    []models.Notice
	Totals     models.Totals
	Diagnostic string
}

// WindowCutoff is the earliest issue timestamp still reported: the start
// of now's calendar day in loc, minus days.
func WindowCutoff(now time.Time, loc *time.Location, days int) time.Time {
	n := now.In(loc)
	start := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	return start.AddDate(0, 0, -days)
}

// Merge concatenates the sources' notices in the given order, drops dated
// notices issued before cutoff, and orders the rest newest first with
// undated notices last. Ties keep their concatenation order.
func Merge(results []SourceResult, cutoff time.Time) Merged {
	var (
		merged Merged
		diags  []string
	)
	merged.Notices = []models.Notice{}

	for _, r := range results {
		for _, n := range r.Notices {
			if n.IssuedAt != nil && n.IssuedAt.Before(cutoff) {
				continue
			}
			merged.Notices = append(merged.Notices, n)
		}
		if d := strings.TrimSpace(r.Diagnostic); d != "" {
			diags = append(diags, d)
		}
	}

	sort.SliceStable(merged.Notices, func(i, j int) bool {
		a, b := merged.Notices[i].IssuedAt, merged.Notices[j].IssuedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	merged.Totals = Total(merged.Notices)
	merged.Diagnostic = strings.Join(diags, DiagnosticSeparator)
	return merged
}

// Total sums toll amounts and admin fees, counting unparseable ones as 0.
func Total(notices []models.Notice) models.Totals {
	var t models.Totals
	for _, n := range notices {
		if n.TollAmount != nil {
			t.Toll += *n.TollAmount
		}
		if n.AdminFee != nil {
			t.Admin += *n.AdminFee
		}
	}
	return t
}
