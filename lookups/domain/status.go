package domain

import "time"

// Status is a point-in-time report on the cache, for observability.
type Status struct {
	Fresh         bool               `json:"fresh"`
	Origin        Origin             `json:"origin"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Sizes         map[BucketKind]int `json:"sizes"`
	LastLoadError string             `json:"last_load_error,omitempty"`
	LastPersistOK *bool              `json:"last_persist_ok,omitempty"`
	LastPersistAt time.Time          `json:"last_persist_at,omitempty"`
}
