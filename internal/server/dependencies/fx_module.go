package dependencies

import (
	"context"

	"github.com/zhenzou/executors"
	"go.uber.org/fx"

	"github.com/lorekeep/lorekeep/internal/lifecycle"
	"github.com/lorekeep/lorekeep/internal/log"
	"github.com/lorekeep/lorekeep/internal/privacy"
	"github.com/lorekeep/lorekeep/internal/store"
	"github.com/lorekeep/lorekeep/internal/traceback"
)

var Module = fx.Module("dependencies",
	fx.Provide(log.New),
	fx.Provide(store.NewStore),
	fx.Provide(privacy.NewConditionCache),
	fx.Provide(privacy.NewClassifier),
	fx.Provide(privacy.NewRegistry),
	fx.Provide(privacy.NewEvaluator),
	fx.Provide(lifecycle.NewMachine),
	fx.Provide(traceback.NewResolver),
	fx.Provide(NewExecutors),
	fx.Invoke(func(lc fx.Lifecycle, st store.Store) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return st.Close()
			},
		})
	}),
	fx.Invoke(func(lc fx.Lifecycle, executor executors.ScheduledExecutor, st store.Store) {
		// Hourly storage maintenance on the shared executor.
		_, _ = executor.ScheduleFuncAtCronRate(func(ctx context.Context) {
			if err := st.Checkpoint(ctx); err != nil {
				log.Error(ctx, "store checkpoint failed", log.Cause(err))
			}
		}, executors.CRONRule{Expr: "0 30 * * * *"})

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return executor.Shutdown(ctx)
			},
		})
	}),
)
