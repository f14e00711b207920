package privacy

import (
	"fmt"
	"strings"

	"github.com/lorekeep/lorekeep/internal/entity"
	"github.com/lorekeep/lorekeep/internal/scopes"
	"github.com/lorekeep/lorekeep/internal/tenant"
)

// Effect is the outcome of a policy decision.
type Effect string

const (
	EffectAllow  Effect = "allow"
	EffectDeny   Effect = "deny"
	EffectRedact Effect = "redact"
)

// Decision is a policy outcome with the structured reason callers surface to
// audit and UI. A denial is never a bare boolean.
type Decision struct {
	Effect Effect
	Scope  string
	// Reason names the rule or policy that produced a deny/redact.
	Reason string
	// Err is the taxonomy error backing a deny, for errors.Is checks.
	Err error
}

// Allowed reports whether the decision permits the operation.
func (d Decision) Allowed() bool {
	return d.Effect == EffectAllow
}

// Denied returns the taxonomy error for a deny decision, nil otherwise.
func (d Decision) Denied() error {
	if d.Effect != EffectDeny {
		return nil
	}

	if d.Err == nil {
		return fmt.Errorf("%w: scope %s: %s", entity.ErrPolicyViolation, d.Scope, d.Reason)
	}

	return fmt.Errorf("%w: scope %s: %s", d.Err, d.Scope, d.Reason)
}

// Evaluator combines the sensitivity classifier with role-based tenant
// policy to decide whether an operation on an entity may proceed.
type Evaluator struct {
	classifier *Classifier
	registry   *Registry
}

func NewEvaluator(registry *Registry, classifier *Classifier) *Evaluator {
	return &Evaluator{classifier: classifier, registry: registry}
}

// EffectiveFlags exposes the classifier through the evaluator for consumers
// that need the raw flag set (the traceback resolver).
func (ev *Evaluator) EffectiveFlags(e *entity.Entity, tctx tenant.Context) (entity.PrivacyFlags, error) {
	return ev.classifier.EffectiveFlags(e, tctx)
}

// Decide evaluates a scope for an (entity, context) pair. The scope is
// either an engine action (lifecycle_write, ...) checked against the
// composed role policy, or a privacy-flag name checked against the entity's
// effective flags. Ambiguous input always resolves to deny.
func (ev *Evaluator) Decide(e *entity.Entity, tctx tenant.Context, scope string) Decision {
	policy, unknown := ev.registry.Compose(tctx.Roles())
	if len(policy.AllowedActions) == 0 && len(unknown) > 0 {
		return Decision{
			Effect: EffectDeny,
			Scope:  scope,
			Reason: fmt.Sprintf("no registered policy for roles [%s]", strings.Join(unknown, ", ")),
			Err:    entity.ErrUnknownRole,
		}
	}

	// A context that composed no policy at all has no standing, even for
	// privacy-flag scopes the defaults would allow.
	if !policy.MaxSensitivity.Valid() {
		return Decision{
			Effect: EffectDeny,
			Scope:  scope,
			Reason: "context holds no roles with a registered policy",
			Err:    entity.ErrPolicyViolation,
		}
	}

	if e != nil && !policy.Covers(e.Sensitivity.Level) {
		return Decision{
			Effect: EffectDeny,
			Scope:  scope,
			Reason: fmt.Sprintf("entity sensitivity %s exceeds role ceiling %s", e.Sensitivity.Level, policy.MaxSensitivity),
			Err:    entity.ErrAuthorizationDenied,
		}
	}

	if scopes.Valid(scopes.ScopeSlug(scope)) {
		if !policy.Allows(scopes.ScopeSlug(scope)) {
			return Decision{
				Effect: EffectDeny,
				Scope:  scope,
				Reason: fmt.Sprintf("roles %v do not grant %s", tctx.Roles(), scope),
				Err:    entity.ErrAuthorizationDenied,
			}
		}

		return Decision{Effect: EffectAllow, Scope: scope}
	}

	return ev.decideFlag(e, tctx, scope)
}

func (ev *Evaluator) decideFlag(e *entity.Entity, tctx tenant.Context, scope string) Decision {
	if e == nil {
		return Decision{
			Effect: EffectDeny,
			Scope:  scope,
			Reason: "privacy-flag decision requires an entity",
			Err:    entity.ErrPolicyViolation,
		}
	}

	flags, matches, err := ev.classifier.evaluate(e, tctx)
	if err != nil {
		return Decision{
			Effect: EffectDeny,
			Scope:  scope,
			Reason: err.Error(),
			Err:    entity.ErrInvalidSensitivityLevel,
		}
	}

	match, matched := matches[scope]
	if matched && match.Rule.Action == entity.ActionRedact {
		return Decision{
			Effect: EffectRedact,
			Scope:  scope,
			Reason: fmt.Sprintf("rule #%d (priority %d) redacts %s", match.Index, match.Rule.Priority, scope),
		}
	}

	allowed, known := flags.Get(scope)
	if !known {
		return Decision{
			Effect: EffectDeny,
			Scope:  scope,
			Reason: fmt.Sprintf("unknown scope %q", scope),
			Err:    entity.ErrPolicyViolation,
		}
	}

	if !allowed {
		reason := fmt.Sprintf("level %s default denies %s", e.Sensitivity.Level, scope)
		if matched {
			reason = fmt.Sprintf("rule #%d (priority %d) denies %s", match.Index, match.Rule.Priority, scope)
		}

		return Decision{
			Effect: EffectDeny,
			Scope:  scope,
			Reason: reason,
			Err:    entity.ErrPolicyViolation,
		}
	}

	return Decision{Effect: EffectAllow, Scope: scope}
}

// CanPerform reports whether the tenant context may perform an engine action
// irrespective of a concrete entity. Pure and read-only.
func (ev *Evaluator) CanPerform(tctx tenant.Context, action scopes.ScopeSlug) bool {
	return ev.Decide(nil, tctx, string(action)).Allowed()
}

// RequireAction returns the structured denial for an action on an entity,
// or nil when allowed.
func (ev *Evaluator) RequireAction(e *entity.Entity, tctx tenant.Context, action scopes.ScopeSlug) error {
	return ev.Decide(e, tctx, string(action)).Denied()
}
