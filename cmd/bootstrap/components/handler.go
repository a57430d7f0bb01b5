package components

import (
	"ticketgate/internal/handler"
	"ticketgate/internal/handler/api"
	"ticketgate/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewAuthHandler,
		api.NewReservationHandler,
		api.NewTicketHandler,
		api.NewCheckInHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
