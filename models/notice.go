package models

import "time"

// Source identifies the portal a notice was scraped from.
type Source string

const (
	SourceLinkt Source = "linkt"
	SourceEtoll Source = "etoll"
)

// Label is the human-facing portal name used in diagnostics and cards.
func (s Source) Label() string {
	switch s {
	case SourceLinkt:
		return "Linkt"
	case SourceEtoll:
		return "e-Toll"
	default:
		return string(s)
	}
}

// Notice is one toll or administrative charge found on one portal for one
// vehicle. Numeric fields are pointers: nil means the raw text carried no
// recoverable number, which is not the same as zero.
type Notice struct {
	Rego           string     `json:"rego"`
	Source         Source     `json:"source"`
	RowID          *string    `json:"rowId"`
	IsPayable      bool       `json:"isPayable"`
	LPN            string     `json:"lpn"`
	Motorway       string     `json:"motorway"`
	IssuedText     string     `json:"issuedText"`
	IssuedAt       *time.Time `json:"issuedAt"`
	Status         string     `json:"tripStatus"`
	StatusDetail   string     `json:"tripStatusDetail"`
	AdminFeeText   string     `json:"adminFeeText"`
	AdminFee       *float64   `json:"adminFee"`
	TollAmountText string     `json:"tollAmountText"`
	TollAmount     *float64   `json:"tollAmount"`
}
