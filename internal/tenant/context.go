// Package tenant defines the per-request authorization context consulted by
// the policy evaluator and by every mutating operation.
package tenant

import (
	"fmt"

	"github.com/samber/lo"
)

// Context identifies the tenant, user and roles a request acts under.
// It is immutable once constructed and must never be persisted as global
// state; each request carries its own value.
type Context struct {
	tenantID   string
	userID     string
	roles      []string
	attributes map[string]any
}

// NewContext builds an immutable tenant context. Roles and attributes are
// copied so later mutation of the inputs cannot leak into the context.
func NewContext(tenantID, userID string, roles []string, attributes map[string]any) Context {
	attrs := make(map[string]any, len(attributes))
	for k, v := range attributes {
		attrs[k] = v
	}

	return Context{
		tenantID:   tenantID,
		userID:     userID,
		roles:      append([]string(nil), roles...),
		attributes: attrs,
	}
}

func (c Context) TenantID() string { return c.tenantID }

func (c Context) UserID() string { return c.userID }

// Roles returns a copy of the roles held by this context.
func (c Context) Roles() []string {
	return append([]string(nil), c.roles...)
}

func (c Context) HasRole(role string) bool {
	return lo.Contains(c.roles, role)
}

// Attribute returns a request attribute by name.
func (c Context) Attribute(key string) (any, bool) {
	v, ok := c.attributes[key]
	return v, ok
}

// Attributes returns a copy of the attribute map.
func (c Context) Attributes() map[string]any {
	out := make(map[string]any, len(c.attributes))
	for k, v := range c.attributes {
		out[k] = v
	}

	return out
}

// Actor is the stable audit identifier for this context.
func (c Context) Actor() string {
	if c.userID == "" {
		return fmt.Sprintf("tenant:%s", c.tenantID)
	}

	return fmt.Sprintf("user:%s@%s", c.userID, c.tenantID)
}
