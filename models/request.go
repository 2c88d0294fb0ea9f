package models

// CheckRequest is the payload for POST /api/v1/check.
type CheckRequest struct {
	// Rego is the plate to look up. Required.
	Rego string `json:"rego" binding:"required,min=1,max=16"`

	// Renter is optional and only echoed back in the report.
	Renter string `json:"renter,omitempty"`

	// WindowDays overrides the configured lookback window. 0 = default.
	WindowDays int `json:"window_days,omitempty" binding:"omitempty,min=1,max=3650"`

	// MaxAge accepts a cached report up to this many seconds old. 0 = always scrape.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0,max=3600"`
}
