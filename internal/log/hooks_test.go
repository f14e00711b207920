package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type ctxKey string

func TestHookFunc(t *testing.T) {
	hook := HookFunc(func(ctx context.Context, msg string, fields ...Field) []Field {
		if v, ok := ctx.Value(ctxKey("tenant")).(string); ok {
			fields = append(fields, String("tenant_id", v))
		}

		return fields
	})

	t.Run("with tenant value", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), ctxKey("tenant"), "acme")
		fields := hook.Apply(ctx, "test message")
		assert.Len(t, fields, 1)
		assert.Equal(t, "tenant_id", fields[0].Key)
		assert.Equal(t, "acme", fields[0].String)
	})

	t.Run("without tenant value", func(t *testing.T) {
		fields := hook.Apply(context.Background(), "test message")
		assert.Empty(t, fields)
	})

	t.Run("preserves existing fields", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), ctxKey("tenant"), "acme")
		fields := hook.Apply(ctx, "test message", Int("count", 3))
		assert.Len(t, fields, 2)
		assert.Equal(t, "count", fields[0].Key)
	})
}

func TestLoggerAddHook(t *testing.T) {
	logger := New(DefaultConfig())
	logger.AddHook(HookFunc(func(ctx context.Context, msg string, fields ...Field) []Field {
		return append(fields, String("hooked", "yes"))
	}))

	fields := logger.applyHooks(context.Background(), "msg", nil)
	assert.Len(t, fields, 1)
	assert.Equal(t, "hooked", fields[0].Key)
}
