package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Lifecycle carries the state machine position and its deadlines.
type Lifecycle struct {
	State      State      `json:"state"`
	ReviewAt   *time.Time `json:"review_at,omitempty"`
	DissolveAt *time.Time `json:"dissolve_at,omitempty"`
}

// Override records human intervention on the automatic lifecycle.
type Override struct {
	HumanLast       *time.Time `json:"human_last,omitempty"`
	PreventDissolve bool       `json:"prevent_dissolve"`
}

// Entity is the unit managed by the engine. The engine owns Sensitivity,
// Lifecycle and Override; Content belongs to the calling domain module and
// is never interpreted beyond checksumming and retrieval masking.
type Entity struct {
	UID      string `json:"uid"`
	TenantID string `json:"tenant_id"`

	Sensitivity Sensitivity `json:"sensitivity"`
	Lifecycle   Lifecycle   `json:"lifecycle"`
	Override    Override    `json:"override"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`

	// Version is the optimistic-concurrency token, incremented by every
	// store write.
	Version int64 `json:"version"`

	Checksum string `json:"checksum"`
	Content  []byte `json:"content,omitempty"`
}

// New creates an entity in capture state with the default personal
// sensitivity, exactly as domain modules hand them to the engine.
func New(tenantID string, content []byte) *Entity {
	now := time.Now().UTC()
	flags, _ := DefaultPrivacy(LevelPersonal)

	return &Entity{
		UID:      uuid.NewString(),
		TenantID: tenantID,
		Sensitivity: Sensitivity{
			Level:   LevelPersonal,
			Privacy: flags,
		},
		Lifecycle: Lifecycle{State: StateCapture},
		Created:   now,
		Updated:   now,
		Checksum:  Checksum(content),
		Content:   content,
	}
}

// Checksum computes the content-integrity hash.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// SetContent replaces the content and recomputes the checksum.
func (e *Entity) SetContent(content []byte) {
	e.Content = content
	e.Checksum = Checksum(content)
	e.Updated = time.Now().UTC()
}

// Dissolved reports whether the entity reached its terminal state.
func (e *Entity) Dissolved() bool {
	return e.Lifecycle.State == StateDissolved
}

// Clone returns a deep copy, so callers can mutate a working copy and write
// it back conditionally.
func (e *Entity) Clone() *Entity {
	clone := *e

	if e.Lifecycle.ReviewAt != nil {
		v := *e.Lifecycle.ReviewAt
		clone.Lifecycle.ReviewAt = &v
	}

	if e.Lifecycle.DissolveAt != nil {
		v := *e.Lifecycle.DissolveAt
		clone.Lifecycle.DissolveAt = &v
	}

	if e.Override.HumanLast != nil {
		v := *e.Override.HumanLast
		clone.Override.HumanLast = &v
	}

	if e.Sensitivity.CustomRules != nil {
		clone.Sensitivity.CustomRules = make([]PrivacyRule, len(e.Sensitivity.CustomRules))
		copy(clone.Sensitivity.CustomRules, e.Sensitivity.CustomRules)
	}

	if e.Content != nil {
		clone.Content = make([]byte, len(e.Content))
		copy(clone.Content, e.Content)
	}

	return &clone
}

// TransitionRecord is an append-only audit entry for a lifecycle transition.
type TransitionRecord struct {
	TenantID  string    `json:"tenant_id"`
	EntityUID string    `json:"entity_uid"`
	FromState State     `json:"from_state"`
	ToState   State     `json:"to_state"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
}

// PreventRecord is an append-only audit entry for a prevent-dissolution
// decision.
type PreventRecord struct {
	TenantID  string    `json:"tenant_id"`
	EntityUID string    `json:"entity_uid"`
	Actor     string    `json:"actor"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Urgency scores how soon a dissolution candidate needs attention.
type Urgency string

const (
	UrgencyUrgent  Urgency = "urgent"
	UrgencyWarning Urgency = "warning"
	UrgencyNormal  Urgency = "normal"
)

// DissolutionCandidate is derived from an archived entity's deadline; it is
// never persisted.
type DissolutionCandidate struct {
	UID          string        `json:"uid"`
	TenantID     string        `json:"tenant_id"`
	ScheduledFor time.Time     `json:"scheduled_for"`
	Remaining    time.Duration `json:"remaining_time"`
	Urgency      Urgency       `json:"urgency"`
	Reason       string        `json:"reason"`
}
