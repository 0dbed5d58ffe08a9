package monitor

import "time"

// Status is the outcome of the latest round of probes.
type Status struct {
	Services  map[string]bool `json:"services"`
	Healthy   bool            `json:"healthy"`
	LastCheck time.Time       `json:"lastCheck"`
}
