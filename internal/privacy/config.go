package privacy

// Config is the tenant role-policy configuration.
type Config struct {
	// Roles maps role names to their granted actions and sensitivity ceiling.
	// When empty, the built-in owner/editor/viewer roles apply.
	Roles map[string]RoleConfig `conf:"roles" yaml:"roles" json:"roles"`
}

// RoleConfig declares a single role's authorization policy.
type RoleConfig struct {
	Actions        []string `conf:"actions" yaml:"actions" json:"actions"`
	MaxSensitivity string   `conf:"max_sensitivity" yaml:"max_sensitivity" json:"max_sensitivity"`
}
