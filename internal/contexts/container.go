package contexts

import "context"

// container bundles the per-request values so a single context key is used.
type container struct {
	Tenant        *tenantHolder
	TraceID       *string
	RequestID     *string
	OperationName *string
	Errors        []error
}

func getContainer(ctx context.Context) container {
	if c, ok := ctx.Value(containerContextKey).(container); ok {
		return c
	}

	return container{}
}

func withContainer(ctx context.Context, c container) context.Context {
	return context.WithValue(ctx, containerContextKey, c)
}
