package privacy

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/lorekeep/lorekeep/internal/entity"
	"github.com/lorekeep/lorekeep/internal/scopes"
)

// AuthorizationPolicy is what a single role grants: a flat set of allowed
// actions plus the most sensitive level the role may act on. There is no
// role inheritance; composition across held roles is by union.
type AuthorizationPolicy struct {
	AllowedActions []scopes.ScopeSlug
	MaxSensitivity entity.Level
}

// Allows reports whether the policy grants the action.
func (p AuthorizationPolicy) Allows(action scopes.ScopeSlug) bool {
	return lo.Contains(p.AllowedActions, action)
}

// Covers reports whether the policy may act on an entity of the given level.
// Unknown levels are treated as most restrictive, and a policy without a
// valid ceiling covers nothing, so the check fails closed both ways.
func (p AuthorizationPolicy) Covers(level entity.Level) bool {
	if !p.MaxSensitivity.Valid() {
		return false
	}

	return !level.MoreRestrictiveThan(p.MaxSensitivity)
}

// Registry maps role names to their authorization policies. It is loaded
// once from tenant configuration and read-only afterwards.
type Registry struct {
	policies map[string]AuthorizationPolicy
}

// NewRegistry builds a registry from configuration, falling back to the
// built-in roles when the configuration names none.
func NewRegistry(cfg Config) (*Registry, error) {
	roles := cfg.Roles
	if len(roles) == 0 {
		roles = defaultRoles()
	}

	policies := make(map[string]AuthorizationPolicy, len(roles))

	for name, rc := range roles {
		level := entity.Level(rc.MaxSensitivity)
		if !level.Valid() {
			return nil, fmt.Errorf("role %q: %w: %q", name, entity.ErrInvalidSensitivityLevel, rc.MaxSensitivity)
		}

		actions := make([]scopes.ScopeSlug, 0, len(rc.Actions))
		for _, a := range rc.Actions {
			slug := scopes.ScopeSlug(a)
			if !scopes.Valid(slug) {
				return nil, fmt.Errorf("role %q: unknown action scope %q", name, a)
			}

			actions = append(actions, slug)
		}

		policies[name] = AuthorizationPolicy{
			AllowedActions: actions,
			MaxSensitivity: level,
		}
	}

	return &Registry{policies: policies}, nil
}

// Lookup returns the policy registered for a role.
func (r *Registry) Lookup(role string) (AuthorizationPolicy, bool) {
	p, ok := r.policies[role]
	return p, ok
}

// Compose merges the policies of the held roles: the union of allowed
// actions and the least-restrictive max sensitivity among them. Roles with
// no registered policy contribute nothing and are returned separately so
// callers can fail closed when nothing composed.
func (r *Registry) Compose(roles []string) (AuthorizationPolicy, []string) {
	var (
		composed AuthorizationPolicy
		unknown  []string
		found    bool
	)

	composed.MaxSensitivity = entity.LevelPublic

	for _, role := range roles {
		policy, ok := r.policies[role]
		if !ok {
			unknown = append(unknown, role)
			continue
		}

		found = true

		for _, action := range policy.AllowedActions {
			if !composed.Allows(action) {
				composed.AllowedActions = append(composed.AllowedActions, action)
			}
		}

		if policy.MaxSensitivity.MoreRestrictiveThan(composed.MaxSensitivity) {
			composed.MaxSensitivity = policy.MaxSensitivity
		}
	}

	if !found {
		return AuthorizationPolicy{}, unknown
	}

	return composed, unknown
}

func defaultRoles() map[string]RoleConfig {
	all := lo.Map(scopes.Slugs(), func(s scopes.ScopeSlug, _ int) string { return string(s) })

	return map[string]RoleConfig{
		"owner": {
			Actions:        all,
			MaxSensitivity: string(entity.LevelSecret),
		},
		"editor": {
			Actions: []string{
				string(scopes.ScopeLifecycleRead),
				string(scopes.ScopeLifecycleWrite),
				string(scopes.ScopePrivacyRead),
				string(scopes.ScopePrivacyWrite),
				string(scopes.ScopeTracebackRead),
			},
			MaxSensitivity: string(entity.LevelConfidential),
		},
		"viewer": {
			Actions: []string{
				string(scopes.ScopeLifecycleRead),
				string(scopes.ScopePrivacyRead),
				string(scopes.ScopeTracebackRead),
			},
			MaxSensitivity: string(entity.LevelPersonal),
		},
	}
}
