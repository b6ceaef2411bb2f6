package components

import (
	"voicedesk/internal/infra/calendar"
	"voicedesk/internal/usecase/commands"

	"go.uber.org/fx"
)

var CalendarModule = fx.Module("calendar",
	fx.Provide(
		fx.Annotate(
			calendar.NewPgCredentialsStore,
			fx.As(new(calendar.CredentialsStore)),
		),
		fx.Annotate(
			calendar.NewGoogleSync,
			fx.As(new(commands.CalendarSync)),
		),
	),
)
