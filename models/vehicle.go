package models

// VehicleEntry is one roster line: a vehicle and the renter paying for it.
type VehicleEntry struct {
	// Rego is the registration plate, trimmed and upper-cased.
	Rego string `json:"rego"`

	// Renter is the display name of the person renting the vehicle.
	Renter string `json:"renter"`

	// PaymentDay is a weekday name ("Monday".."Sunday") as written in the roster.
	PaymentDay string `json:"paymentDay"`

	// RentAmount is the weekly rent; zero when absent.
	RentAmount float64 `json:"rentAmount"`

	// Phone holds digits only (e.g. "614..."), or "" when unknown.
	Phone string `json:"phone,omitempty"`
}
