package api

import (
	"go.uber.org/fx"
)

var Module = fx.Module("api",
	fx.Provide(NewSystemHandlers),
	fx.Provide(NewLifecycleHandlers),
	fx.Provide(NewPrivacyHandlers),
	fx.Provide(NewSearchHandlers),
)
