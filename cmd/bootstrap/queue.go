package bootstrap

import (
	"context"

	"ticketgate/internal/infra/queue"
	"ticketgate/internal/pkg/config"
	"ticketgate/internal/usecase/commands"

	"go.uber.org/fx"
)

var QueueModule = fx.Module("queue",
	fx.Provide(
		fx.Annotate(
			NewPublisher,
			fx.As(new(commands.EventPublisher)),
		),
	),
)

func NewPublisher(lc fx.Lifecycle, cfg config.Config) (queue.Publisher, error) {
	if !cfg.AMQP.Enabled {
		return queue.NewNoopPublisher(), nil
	}

	publisher, err := queue.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return publisher.Close()
		},
	})

	return publisher, nil
}
