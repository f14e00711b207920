package privacy

import (
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	gocache "github.com/patrickmn/go-cache"

	"github.com/lorekeep/lorekeep/internal/entity"
	"github.com/lorekeep/lorekeep/internal/tenant"
)

// ConditionCache compiles rule conditions once and caches the programs.
// Conditions are a closed predicate language over the entity envelope and
// the tenant context: field comparisons and boolean logic only, compiled to
// a sandboxed expression VM. Arbitrary code never runs.
type ConditionCache struct {
	programs *gocache.Cache
}

func NewConditionCache() *ConditionCache {
	return &ConditionCache{
		programs: gocache.New(30*time.Minute, 10*time.Minute),
	}
}

// Match evaluates a rule condition for an (entity, context) pair. An empty
// condition always matches. Compile or evaluation failures return an error;
// callers treat errored conditions as non-matching.
func (c *ConditionCache) Match(condition string, e *entity.Entity, tctx tenant.Context) (bool, error) {
	if condition == "" {
		return true, nil
	}

	program, err := c.compile(condition)
	if err != nil {
		return false, err
	}

	out, err := expr.Run(program, conditionEnv(e, tctx))
	if err != nil {
		return false, fmt.Errorf("evaluate condition %q: %w", condition, err)
	}

	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q is not a boolean predicate", condition)
	}

	return matched, nil
}

func (c *ConditionCache) compile(condition string) (*vm.Program, error) {
	if cached, ok := c.programs.Get(condition); ok {
		return cached.(*vm.Program), nil
	}

	program, err := expr.Compile(condition,
		expr.Env(conditionEnv(nil, tenant.Context{})),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile condition %q: %w", condition, err)
	}

	c.programs.SetDefault(condition, program)

	return program, nil
}

// conditionEnv exposes the closed set of fields a condition may reference.
// Content is deliberately absent: rules see the envelope, never the payload.
func conditionEnv(e *entity.Entity, tctx tenant.Context) map[string]any {
	ent := map[string]any{
		"uid":       "",
		"tenant_id": "",
		"level":     "",
		"state":     "",
	}

	if e != nil {
		ent = map[string]any{
			"uid":       e.UID,
			"tenant_id": e.TenantID,
			"level":     string(e.Sensitivity.Level),
			"state":     string(e.Lifecycle.State),
		}
	}

	return map[string]any{
		"entity": ent,
		"context": map[string]any{
			"tenant_id":  tctx.TenantID(),
			"user_id":    tctx.UserID(),
			"roles":      tctx.Roles(),
			"attributes": tctx.Attributes(),
		},
	}
}
