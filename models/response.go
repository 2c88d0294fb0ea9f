package models

// CheckResponse is the response for POST /api/v1/check.
type CheckResponse struct {
	Success     bool           `json:"success"`
	Report      *VehicleReport `json:"report,omitempty"`
	CacheStatus string         `json:"cache_status,omitempty"` // "hit" or "miss" when max_age was set
	Timing      TimingInfo     `json:"timing"`
	Error       *ErrorDetail   `json:"error,omitempty"`
}

// DueResponse is the response for GET /api/v1/due.
type DueResponse struct {
	Success bool           `json:"success"`
	Day     string         `json:"day"`
	Entries []VehicleEntry `json:"entries"`
	Error   *ErrorDetail   `json:"error,omitempty"`
}

// TimingInfo provides duration breakdowns in milliseconds.
type TimingInfo struct {
	TotalMs int64 `json:"total_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Busy    bool   `json:"busy"`
	Waiting int    `json:"waiting"`
	Version string `json:"version"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}
