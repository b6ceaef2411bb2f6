package components

import (
	"voicedesk/internal/pkg/clock"
	"voicedesk/internal/pkg/config"
	"voicedesk/internal/usecase/commands"
	"voicedesk/internal/usecase/queries"
	"voicedesk/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewTenantQueries,
		queries.NewAvailabilityQueries,
		queries.NewBookingQueries,
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		NewBookingCommands,
	),
)

func NewBookingCommands(u shared.UnitOfWork, cal commands.CalendarSync, cfg config.Config) commands.BookingCommands {
	return commands.NewBookingCommands(u, cal, cfg.Calendar.SyncTimeout)
}
