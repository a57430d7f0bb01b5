package components

import (
	"ticketgate/internal/infra/repository"
	"ticketgate/internal/usecase/commands"
	"ticketgate/internal/usecase/queries"

	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			repository.NewInventoryRepository,
			fx.As(new(commands.InventoryRepository)),
		),
		fx.Annotate(
			repository.NewReservationRepository,
			fx.As(new(commands.ReservationRepository)),
			fx.As(new(queries.ReservationReader)),
		),
		fx.Annotate(
			repository.NewTicketRepository,
			fx.As(new(commands.TicketRepository)),
			fx.As(new(queries.TicketReader)),
		),
		fx.Annotate(
			repository.NewCheckInRepository,
			fx.As(new(commands.CheckInRepository)),
			fx.As(new(queries.CheckInReader)),
		),
		fx.Annotate(
			repository.NewUserRepository,
			fx.As(new(commands.UserRepository)),
		),
		fx.Annotate(
			repository.NewIdempotencyRepository,
			fx.As(new(commands.IdempotencyRepository)),
		),
	),
)
