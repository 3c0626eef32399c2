package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/goalpass/goalpass/internal/otp/entity"
	"github.com/goalpass/goalpass/internal/pkg/goerror"
)

type IssueInput struct {
	PlayerID       string `validate:"required,playerid"`
	ContactAddress string `validate:"required,email"`
}

type IssueOutput struct {
	ExpiresAt          time.Time
	GenerationAttempts int
}

// Issue generates a fresh passcode for the player, replacing any previous one,
// and delivers it to the contact address. A record past its validity window
// counts as absent, so an expired lockout does not outlive the window.
func (s *Usecase) Issue(ctx context.Context, in IssueInput) (*IssueOutput, error) {
	ctx, span := s.startSpan(ctx, "Issue")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	code, err := s.codegen.Next(s.codeDigits())
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate passcode", "player_id", in.PlayerID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	maxGen := s.maxGenerationAttempts()

	var out IssueOutput
	err = s.repoDB.Mutate(ctx, in.PlayerID, func(cur *entity.Passcode) (*entity.Passcode, error) {
		attempts := 0
		if cur != nil && !cur.ExpiredAt(now) {
			if cur.GenerationAttempts >= maxGen {
				return nil, goerror.NewBusiness("too many passcode requests", goerror.CodeTooManyRequest)
			}
			attempts = cur.GenerationAttempts
		}

		next := &entity.Passcode{
			PlayerID:           in.PlayerID,
			ContactAddress:     in.ContactAddress,
			Code:               code,
			IssuedAt:           now,
			ExpiresAt:          now.Add(s.validityWindow()),
			GenerationAttempts: attempts + 1,
			ValidationAttempts: 0,
		}
		out = IssueOutput{ExpiresAt: next.ExpiresAt, GenerationAttempts: next.GenerationAttempts}

		return next, nil
	})
	if err != nil {
		var gerr *goerror.Error
		if errors.As(err, &gerr) {
			slog.WarnContext(ctx, "passcode issuance refused", "player_id", in.PlayerID, "error", err)
			return nil, err
		}

		slog.ErrorContext(ctx, "failed to repo store passcode", "player_id", in.PlayerID, "error", err)
		return nil, goerror.NewServer(err)
	}

	// The record is already durable; a failed delivery is reported but never
	// rolls the new code back.
	if err := s.notifier.Send(ctx, in.ContactAddress, code, out.ExpiresAt); err != nil {
		slog.ErrorContext(ctx, "failed to deliver passcode", "player_id", in.PlayerID, "error", err)
		return nil, goerror.NewBusiness("passcode was generated but could not be delivered", goerror.CodeDependency)
	}

	if err := s.repoMessaging.PublishPasscodeIssued(ctx, PasscodeIssuedEvent{
		PlayerID:           in.PlayerID,
		ContactAddress:     in.ContactAddress,
		ExpiresAt:          out.ExpiresAt,
		GenerationAttempts: out.GenerationAttempts,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish passcode issued event", "player_id", in.PlayerID, "error", err)
	}

	return &out, nil
}
