package components

import (
	"ticketgate/internal/infra/fraudgate"
	"ticketgate/internal/pkg/clock"
	"ticketgate/internal/pkg/config"
	"ticketgate/internal/usecase/commands"
	"ticketgate/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	func(cfg config.Config) config.ReservationConfig { return cfg.Reservation },
	func(cfg config.Config) config.CredentialConfig { return cfg.Credential },
	func(cfg config.Config) config.CacheConfig { return cfg.Cache },
	func(cfg config.Config) config.SweepConfig { return cfg.Sweep },
	fx.Annotate(
		func(cfg config.Config) *fraudgate.StaticGate {
			return fraudgate.NewStaticGate(cfg.Reservation.MaxQty)
		},
		fx.As(new(commands.FraudGate)),
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewAuthCommands,
		commands.NewReservationCommands,
		commands.NewCredentialCommands,
		commands.NewCheckInCommands,
		commands.NewSyncCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewReservationQueries,
		queries.NewCheckInQueries,
		queries.NewCacheQueries,
	),
)
