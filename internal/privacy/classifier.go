package privacy

import (
	"fmt"
	"sort"

	"github.com/lorekeep/lorekeep/internal/entity"
	"github.com/lorekeep/lorekeep/internal/tenant"
)

// DefaultsFor returns the canonical, maximally-restrictive privacy flags for
// a sensitivity level. The defaults are a floor for restriction: only an
// explicit allow rule can loosen them.
func DefaultsFor(level entity.Level) (entity.PrivacyFlags, error) {
	flags, ok := entity.DefaultPrivacy(level)
	if !ok {
		return entity.PrivacyFlags{}, fmt.Errorf("%w: %q", entity.ErrInvalidSensitivityLevel, level)
	}

	return flags, nil
}

// ruleMatch records which rule decided a flag scope.
type ruleMatch struct {
	Rule  entity.PrivacyRule
	Index int
}

// Classifier folds custom privacy rules over the level defaults. It is a
// pure function over its inputs; rule conditions are evaluated through the
// closed predicate language, never executed as code.
type Classifier struct {
	conditions *ConditionCache
}

func NewClassifier(conditions *ConditionCache) *Classifier {
	return &Classifier{conditions: conditions}
}

// EffectiveFlags computes the privacy flags for an entity under a tenant
// context. Rules are evaluated by priority descending, declaration order
// ascending; the first matching rule per flag scope wins. Redact rules do
// not change flags, they are consumed by the traceback resolver.
func (c *Classifier) EffectiveFlags(e *entity.Entity, tctx tenant.Context) (entity.PrivacyFlags, error) {
	flags, _, err := c.evaluate(e, tctx)
	return flags, err
}

// evaluate returns the effective flags plus the winning rule per scope, so
// the evaluator can surface redact outcomes and denial reasons.
func (c *Classifier) evaluate(e *entity.Entity, tctx tenant.Context) (entity.PrivacyFlags, map[string]ruleMatch, error) {
	flags, err := DefaultsFor(e.Sensitivity.Level)
	if err != nil {
		return entity.PrivacyFlags{}, nil, err
	}

	rules := sortRules(e.Sensitivity.CustomRules)
	matches := make(map[string]ruleMatch, len(rules))

	for _, r := range rules {
		if _, decided := matches[r.Rule.Scope]; decided {
			continue
		}

		if _, known := flags.Get(r.Rule.Scope); !known {
			continue
		}

		ok, err := c.conditions.Match(r.Rule.Condition, e, tctx)
		if err != nil || !ok {
			// Broken conditions never match: fail closed.
			continue
		}

		matches[r.Rule.Scope] = r

		switch r.Rule.Action {
		case entity.ActionAllow:
			flags = flags.With(r.Rule.Scope, true)
		case entity.ActionDeny:
			flags = flags.With(r.Rule.Scope, false)
		case entity.ActionRedact:
			// Leaves the flag untouched; surfaced through the match map.
		}
	}

	return flags, matches, nil
}

// sortRules orders rules by priority descending, breaking ties by declaration
// order so evaluation stays deterministic.
func sortRules(rules []entity.PrivacyRule) []ruleMatch {
	out := make([]ruleMatch, 0, len(rules))
	for i, r := range rules {
		out = append(out, ruleMatch{Rule: r, Index: i})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rule.Priority != out[j].Rule.Priority {
			return out[i].Rule.Priority > out[j].Rule.Priority
		}

		return out[i].Index < out[j].Index
	})

	return out
}
