package email

import (
	"context"
	"fmt"
	"time"

	"github.com/goalpass/goalpass/internal/pkg/instrument"
	"github.com/goalpass/goalpass/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

const subject = "Your one-time passcode"

// Mail delivers passcodes to a player's contact address over the configured
// mail provider.
type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, ins: ins}
}

func (m *Mail) Send(ctx context.Context, address, code string, expiresAt time.Time) error {
	ctx, span := m.ins.Tracer("otp.outbound.email").Start(ctx, "Send")
	defer span.End()

	msg := mail.Message{
		To:      []string{address},
		Subject: subject,
		TextBody: fmt.Sprintf(
			"Your OTP is: %s\n\nIt expires at %s. If you did not request it, ignore this message.",
			code, expiresAt.UTC().Format(time.RFC1123),
		),
	}

	if err := m.client.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
