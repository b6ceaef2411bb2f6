package components

import (
	"voicedesk/internal/handler"
	"voicedesk/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewToolsHandler,
		api.NewInboundHandler,
	),
	fx.Invoke(handler.NewRouter),
)
