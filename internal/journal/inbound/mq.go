package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/goalpass/goalpass/internal/pkg/config"
	"github.com/goalpass/goalpass/internal/pkg/goroutine"
	"github.com/goalpass/goalpass/internal/pkg/instrument"
	"github.com/goalpass/goalpass/internal/pkg/messaging"
	"github.com/goalpass/goalpass/internal/pkg/uid"
	"github.com/goalpass/goalpass/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.journal.consumer_names")

	var consumers = []struct {
		name              string
		topic             string // destination where publisher sent message
		nsqConsumerName   string // for nsq
		natsConsumerName  string // for nats
		kafkaConsumerName string // for kafka
		handler           messaging.Handler
	}{
		{
			name:              event.PasscodeIssuedConsumerJournal,
			topic:             event.PasscodeIssuedDestination,
			nsqConsumerName:   event.PasscodeIssuedConsumerJournal,
			natsConsumerName:  event.PasscodeIssuedConsumerJournal,
			kafkaConsumerName: event.PasscodeIssuedConsumerJournal,
			handler:           mqHandler.PasscodeIssuedJournal,
		},
		{
			name:              event.PasscodeValidatedConsumerJournal,
			topic:             event.PasscodeValidatedDestination,
			nsqConsumerName:   event.PasscodeValidatedConsumerJournal,
			natsConsumerName:  event.PasscodeValidatedConsumerJournal,
			kafkaConsumerName: event.PasscodeValidatedConsumerJournal,
			handler:           mqHandler.PasscodeValidatedJournal,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, consumer.name) {
			routine.Go(ctx, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
				return messenger.Consume(pCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithChannel(consumer.nsqConsumerName),
					messaging.WithQueueGroup(consumer.natsConsumerName),
					messaging.WithGroup(consumer.kafkaConsumerName),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(10),
					messaging.WithMaxInFlight(10),
				)
			})
		}
	}
}
