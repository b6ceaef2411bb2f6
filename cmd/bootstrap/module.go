package bootstrap

import (
	"voicedesk/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	components.PersistenceModule,
	components.CalendarModule,
	components.UseCaseModule,
	components.HandlerModule,
)
