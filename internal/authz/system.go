package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/lorekeep/lorekeep/internal/log"
)

// NewSystemContext creates context with System principal (for background tasks).
func NewSystemContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, principalKey{}, Principal{Type: PrincipalTypeSystem})
}

// WithSystemBypass declares a System principal and records an audited policy
// bypass. Background workers (the dissolution scheduler) use this on every
// tick; the reason must be a stable audit identifier.
func WithSystemBypass(ctx context.Context, reason string) context.Context {
	ctx = NewSystemContext(ctx)
	recordBypassAudit(ctx, bypassInfo{
		Reason:    reason,
		Timestamp: time.Now(),
		Principal: MustGetPrincipal(ctx),
	})

	return ctx
}

// RunWithSystemBypass runs fn under a System principal. The bypass is
// audited with the given reason.
func RunWithSystemBypass(ctx context.Context, reason string, fn func(ctx context.Context) error) error {
	return fn(WithSystemBypass(ctx, reason))
}

// RequireSystemPrincipal checks if current principal is System, otherwise returns error.
// Used to protect sensitive background operations.
func RequireSystemPrincipal(ctx context.Context) error {
	p, ok := GetPrincipal(ctx)
	if !ok {
		return fmt.Errorf("authz: no principal in context")
	}

	if !p.IsSystem() {
		return fmt.Errorf("authz: operation requires system principal, got %s", p.String())
	}

	return nil
}

// bypassInfo stores bypass metadata.
type bypassInfo struct {
	Reason    string
	Timestamp time.Time
	Principal Principal
}

func recordBypassAudit(ctx context.Context, info bypassInfo) {
	log.Debug(ctx, "authz: policy bypass",
		log.String("principal", info.Principal.String()),
		log.String("reason", info.Reason),
	)
}
