package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/goalpass/goalpass/internal/journal/usecase"
	"github.com/goalpass/goalpass/internal/pkg/instrument"
	"github.com/goalpass/goalpass/internal/pkg/messaging"
	"github.com/goalpass/goalpass/internal/pkg/uid"
	"github.com/goalpass/goalpass/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) PasscodeIssuedJournal(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("journal.inbound.mq").Start(ctx, "PasscodeIssuedJournal")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: passcode issued journal", "msg_body", string(body))

	var payload event.PasscodeIssuedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of passcode issued journal", "msg_body", string(body), "error", err)
		return nil
	}

	return h.uc.RecordIssued(ctx, usecase.RecordIssuedInput{
		PlayerID:           payload.PlayerID,
		ContactAddress:     payload.ContactAddress,
		GenerationAttempts: payload.GenerationAttempts,
	})
}

func (h *MQHandler) PasscodeValidatedJournal(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("journal.inbound.mq").Start(ctx, "PasscodeValidatedJournal")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: passcode validated journal", "msg_body", string(body))

	var payload event.PasscodeValidatedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of passcode validated journal", "msg_body", string(body), "error", err)
		return nil
	}

	return h.uc.RecordValidated(ctx, usecase.RecordValidatedInput{
		PlayerID:           payload.PlayerID,
		ContactAddress:     payload.ContactAddress,
		Outcome:            payload.Outcome,
		ValidationAttempts: payload.ValidationAttempts,
	})
}
