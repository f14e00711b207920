package scopes

import "slices"

// ScopeSlug names an action a role policy may grant on knowledge entities.
// Privacy-flag scopes (cloud_ai_allowed, export_allowed, ...) live on the
// entity envelope; the slugs here cover engine operations.
type ScopeSlug string

const (
	// ScopeLifecycleRead read entity lifecycle state, stats and history.
	ScopeLifecycleRead ScopeSlug = "lifecycle_read"
	// ScopeLifecycleWrite perform lifecycle transitions and reviews.
	ScopeLifecycleWrite ScopeSlug = "lifecycle_write"
	// ScopeLifecycleOverride override automatic dissolution (prevent, postpone).
	ScopeLifecycleOverride ScopeSlug = "lifecycle_override"

	// ScopePrivacyRead read sensitivity classification and effective flags.
	ScopePrivacyRead ScopeSlug = "privacy_read"
	// ScopePrivacyWrite reclassify entity sensitivity.
	ScopePrivacyWrite ScopeSlug = "privacy_write"

	// ScopeTracebackRead resolve retrieval hits to (masked) content.
	ScopeTracebackRead ScopeSlug = "traceback_read"
)

type Scope struct {
	Slug        ScopeSlug
	Description string
}

// scopeConfigs defines all available scopes with their configurations.
var scopeConfigs = []Scope{
	{
		Slug:        ScopeLifecycleRead,
		Description: "View entity lifecycle state, statistics and transition history",
	},
	{
		Slug:        ScopeLifecycleWrite,
		Description: "Perform lifecycle transitions and mark entities reviewed",
	},
	{
		Slug:        ScopeLifecycleOverride,
		Description: "Prevent or postpone scheduled dissolution",
	},
	{
		Slug:        ScopePrivacyRead,
		Description: "View sensitivity classification and effective privacy flags",
	},
	{
		Slug:        ScopePrivacyWrite,
		Description: "Reclassify entity sensitivity",
	},
	{
		Slug:        ScopeTracebackRead,
		Description: "Resolve retrieval hits to masked content",
	},
}

// All returns every scope known to the engine.
func All() []Scope {
	out := make([]Scope, len(scopeConfigs))
	copy(out, scopeConfigs)

	return out
}

// Slugs returns the slugs of every scope known to the engine.
func Slugs() []ScopeSlug {
	out := make([]ScopeSlug, 0, len(scopeConfigs))
	for _, s := range scopeConfigs {
		out = append(out, s.Slug)
	}

	return out
}

// Valid reports whether slug names a known scope.
func Valid(slug ScopeSlug) bool {
	return slices.Contains(Slugs(), slug)
}
