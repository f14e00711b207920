package biz

import (
	"go.uber.org/fx"
)

var Module = fx.Module("biz",
	fx.Provide(NewAuthService),
	fx.Provide(NewLifecycleService),
	fx.Provide(NewPrivacyService),
	fx.Provide(NewTracebackService),
)
