// Package objects contains the wire objects shared by the API handlers and
// the biz services. To avoid circular dependencies, we put them here.
package objects

import (
	"time"

	"github.com/lorekeep/lorekeep/internal/entity"
)

// EntitySummary is the listing view of an entity: the engine envelope
// without content.
type EntitySummary struct {
	UID             string     `json:"uid"`
	Level           string     `json:"level"`
	State           string     `json:"state"`
	ReviewAt        *time.Time `json:"review_at,omitempty"`
	DissolveAt      *time.Time `json:"dissolve_at,omitempty"`
	HumanLast       *time.Time `json:"human_last,omitempty"`
	PreventDissolve bool       `json:"prevent_dissolve"`
	Created         time.Time  `json:"created"`
	Updated         time.Time  `json:"updated"`
	Version         int64      `json:"version"`
	Checksum        string     `json:"checksum"`
}

// SummarizeEntity projects an entity onto its listing view.
func SummarizeEntity(e *entity.Entity) EntitySummary {
	return EntitySummary{
		UID:             e.UID,
		Level:           string(e.Sensitivity.Level),
		State:           string(e.Lifecycle.State),
		ReviewAt:        e.Lifecycle.ReviewAt,
		DissolveAt:      e.Lifecycle.DissolveAt,
		HumanLast:       e.Override.HumanLast,
		PreventDissolve: e.Override.PreventDissolve,
		Created:         e.Created,
		Updated:         e.Updated,
		Version:         e.Version,
		Checksum:        e.Checksum,
	}
}

// SummarizeEntities projects a listing batch.
func SummarizeEntities(es []*entity.Entity) []EntitySummary {
	out := make([]EntitySummary, 0, len(es))
	for _, e := range es {
		out = append(out, SummarizeEntity(e))
	}

	return out
}

// LifecycleStats is the tenant dashboard counter set.
type LifecycleStats struct {
	Active    int `json:"active"`
	Stale     int `json:"stale"`
	Archived  int `json:"archived"`
	Dissolved int `json:"dissolved"`
	Total     int `json:"total"`
}

// ClassifyResult reports the outcome of one entity in a bulk
// classification.
type ClassifyResult struct {
	UID     string `json:"uid"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
