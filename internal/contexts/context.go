package contexts

import (
	"context"

	"github.com/lorekeep/lorekeep/internal/tenant"
)

// ContextKey defines the context key type.
type ContextKey string

const (
	// containerContextKey is used to store the context container in the context.
	containerContextKey ContextKey = "context_container"
)

// tenantHolder wraps the tenant context so the container can distinguish
// "unset" from the zero value.
type tenantHolder struct {
	Tenant tenant.Context
}

// WithTenant stores the tenant context for the current request.
func WithTenant(ctx context.Context, t tenant.Context) context.Context {
	container := getContainer(ctx)
	container.Tenant = &tenantHolder{Tenant: t}

	return withContainer(ctx, container)
}

// GetTenant retrieves the tenant context for the current request.
func GetTenant(ctx context.Context) (tenant.Context, bool) {
	container := getContainer(ctx)
	if container.Tenant == nil {
		return tenant.Context{}, false
	}

	return container.Tenant.Tenant, true
}

// WithTraceID stores the trace id in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	container := getContainer(ctx)
	container.TraceID = &traceID

	return withContainer(ctx, container)
}

// GetTraceID retrieves the trace id from the context.
func GetTraceID(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	if container.TraceID != nil {
		return *container.TraceID, true
	}

	return "", false
}

// WithRequestID stores the request id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	container := getContainer(ctx)
	container.RequestID = &requestID

	return withContainer(ctx, container)
}

// GetRequestID retrieves the request id from the context.
func GetRequestID(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	if container.RequestID != nil {
		return *container.RequestID, true
	}

	return "", false
}

// WithOperationName stores the operation name in the context.
func WithOperationName(ctx context.Context, name string) context.Context {
	container := getContainer(ctx)
	container.OperationName = &name

	return withContainer(ctx, container)
}

// GetOperationName retrieves the operation name from the context.
func GetOperationName(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	if container.OperationName != nil {
		return *container.OperationName, true
	}

	return "", false
}

// AppendError records an error for access logging.
func AppendError(ctx context.Context, err error) context.Context {
	container := getContainer(ctx)
	container.Errors = append(container.Errors, err)

	return withContainer(ctx, container)
}

// GetErrors retrieves the errors recorded for the current request.
func GetErrors(ctx context.Context) []error {
	return getContainer(ctx).Errors
}
