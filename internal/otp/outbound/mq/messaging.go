package mq

import (
	"context"
	"encoding/json"

	"github.com/goalpass/goalpass/internal/otp/usecase"
	"github.com/goalpass/goalpass/internal/pkg/instrument"
	"github.com/goalpass/goalpass/internal/pkg/messaging"
	"github.com/goalpass/goalpass/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) publish(ctx context.Context, name, destination string, payload any) error {
	ctx, span := m.ins.Tracer("otp.outbound.mq").Start(ctx, name)
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, destination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) PublishPasscodeIssued(ctx context.Context, msg usecase.PasscodeIssuedEvent) error {
	return m.publish(ctx, "PublishPasscodeIssued", event.PasscodeIssuedDestination, event.PasscodeIssuedMessage{
		PlayerID:           msg.PlayerID,
		ContactAddress:     msg.ContactAddress,
		ExpiresAt:          msg.ExpiresAt,
		GenerationAttempts: msg.GenerationAttempts,
	})
}

func (m *Messaging) PublishPasscodeValidated(ctx context.Context, msg usecase.PasscodeValidatedEvent) error {
	return m.publish(ctx, "PublishPasscodeValidated", event.PasscodeValidatedDestination, event.PasscodeValidatedMessage{
		PlayerID:           msg.PlayerID,
		ContactAddress:     msg.ContactAddress,
		Outcome:            msg.Outcome,
		ValidationAttempts: msg.ValidationAttempts,
	})
}
