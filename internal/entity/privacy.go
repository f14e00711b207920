package entity

// Privacy-flag scope names. Rules and policy decisions address flags by
// these names.
const (
	FlagCloudAI = "cloud_ai_allowed"
	FlagLocalAI = "local_ai_allowed"
	FlagExport  = "export_allowed"
	FlagSync    = "sync_allowed"
	FlagShare   = "share_allowed"
)

// FlagScopes returns the privacy-flag scope names in declaration order.
func FlagScopes() []string {
	return []string{FlagCloudAI, FlagLocalAI, FlagExport, FlagSync, FlagShare}
}

// PrivacyFlags are the boolean capabilities governing what may be done with
// an entity's content.
type PrivacyFlags struct {
	CloudAIAllowed bool `json:"cloud_ai_allowed"`
	LocalAIAllowed bool `json:"local_ai_allowed"`
	ExportAllowed  bool `json:"export_allowed"`
	SyncAllowed    bool `json:"sync_allowed"`
	ShareAllowed   bool `json:"share_allowed"`
}

// Get returns the value of the named flag. The second result is false for
// unknown scope names.
func (f PrivacyFlags) Get(scope string) (bool, bool) {
	switch scope {
	case FlagCloudAI:
		return f.CloudAIAllowed, true
	case FlagLocalAI:
		return f.LocalAIAllowed, true
	case FlagExport:
		return f.ExportAllowed, true
	case FlagSync:
		return f.SyncAllowed, true
	case FlagShare:
		return f.ShareAllowed, true
	default:
		return false, false
	}
}

// With returns a copy of the flags with the named flag set to value.
// Unknown scope names leave the flags unchanged.
func (f PrivacyFlags) With(scope string, value bool) PrivacyFlags {
	switch scope {
	case FlagCloudAI:
		f.CloudAIAllowed = value
	case FlagLocalAI:
		f.LocalAIAllowed = value
	case FlagExport:
		f.ExportAllowed = value
	case FlagSync:
		f.SyncAllowed = value
	case FlagShare:
		f.ShareAllowed = value
	}

	return f
}

// DefaultPrivacy returns the canonical flag floor for a sensitivity level:
// secret grants nothing, public grants everything. The second result is
// false for unknown levels.
func DefaultPrivacy(level Level) (PrivacyFlags, bool) {
	switch level {
	case LevelPublic:
		return PrivacyFlags{
			CloudAIAllowed: true,
			LocalAIAllowed: true,
			ExportAllowed:  true,
			SyncAllowed:    true,
			ShareAllowed:   true,
		}, true
	case LevelPersonal:
		return PrivacyFlags{
			LocalAIAllowed: true,
			ExportAllowed:  true,
			SyncAllowed:    true,
		}, true
	case LevelConfidential:
		return PrivacyFlags{
			LocalAIAllowed: true,
		}, true
	case LevelSecret:
		return PrivacyFlags{}, true
	default:
		return PrivacyFlags{}, false
	}
}

// RuleAction is the effect of a privacy rule when its condition holds.
type RuleAction string

const (
	ActionAllow  RuleAction = "allow"
	ActionDeny   RuleAction = "deny"
	ActionRedact RuleAction = "redact"
)

// PrivacyRule adjusts a single privacy flag when its condition holds for a
// given (entity, context) pair. Higher priority wins; ties are broken by
// declaration order, first declared first.
type PrivacyRule struct {
	// Condition is a predicate over the entity envelope and the tenant
	// context, expressed in the closed expression language evaluated by the
	// privacy package. Never executable code.
	Condition string     `json:"condition"`
	Action    RuleAction `json:"action"`
	Scope     string     `json:"scope"`
	Priority  int        `json:"priority"`
}

// Sensitivity is the declared sensitivity envelope of an entity.
type Sensitivity struct {
	Level       Level         `json:"level"`
	Privacy     PrivacyFlags  `json:"privacy"`
	CustomRules []PrivacyRule `json:"custom_rules,omitempty"`
}
