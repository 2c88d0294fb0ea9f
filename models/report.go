package models

import "time"

// Totals are the per-vehicle sums of toll amounts and admin fees.
// Unparseable amounts count as zero here and only here.
type Totals struct {
	Toll  float64 `json:"toll"`
	Admin float64 `json:"admin"`
}

// Any reports whether either total is positive.
func (t Totals) Any() bool {
	return t.Toll > 0 || t.Admin > 0
}

// VehicleReport is the engine's output for one vehicle: the merged, ordered
// notices and an optional diagnostic describing sources that found nothing
// or failed.
type VehicleReport struct {
	Entry      VehicleEntry `json:"entry"`
	Notices    []Notice     `json:"notices"`
	Totals     Totals       `json:"totals"`
	Diagnostic string       `json:"diagnostic,omitempty"`
	CheckedAt  time.Time    `json:"checkedAt"`
}
