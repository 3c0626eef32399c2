package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goalpass/goalpass/internal/otp/entity"
	"github.com/goalpass/goalpass/internal/pkg/goerror"
)

// Outcomes published with PasscodeValidatedEvent.
const (
	OutcomeSuccess   = "success"
	OutcomeNotFound  = "not_found"
	OutcomeMalformed = "malformed"
	OutcomeLocked    = "locked"
	OutcomeMismatch  = "mismatch"
	OutcomeExpired   = "expired"
)

type ValidateInput struct {
	PlayerID       string `validate:"required,playerid"`
	ContactAddress string `validate:"required,email"`
	Code           string `validate:"required"`
}

// Validate checks a submitted passcode against the player's stored record.
//
// Checks run in a fixed order: missing record, code shape, validation lockout,
// contact or code mismatch, expiry. A malformed code is rejected before the
// attempt counter moves; every attempt that passes the shape check burns one
// validation attempt, persisted even when the verdict is a failure. A
// successful validation consumes the record, so a replay sees a missing
// record.
func (s *Usecase) Validate(ctx context.Context, in ValidateInput) error {
	ctx, span := s.startSpan(ctx, "Validate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	now := s.clock.Now()
	digits := s.codeDigits()
	maxVal := s.maxValidationAttempts()

	attempts := 0
	err := s.repoDB.Mutate(ctx, in.PlayerID, func(cur *entity.Passcode) (*entity.Passcode, error) {
		if cur == nil {
			return nil, goerror.NewBusiness("no active passcode", goerror.CodeNotFound)
		}
		attempts = cur.ValidationAttempts

		if !numericCode(in.Code, digits) {
			return nil, goerror.NewInvalidFormat(fmt.Sprintf("passcode must be exactly %d digits", digits))
		}

		if cur.ValidationAttempts >= maxVal {
			return nil, goerror.NewBusiness("too many failed attempts", goerror.CodeTooManyRequest)
		}

		next := *cur
		next.ValidationAttempts++
		attempts = next.ValidationAttempts

		addressOK := subtle.ConstantTimeCompare([]byte(in.ContactAddress), []byte(cur.ContactAddress)) == 1
		codeOK := subtle.ConstantTimeCompare([]byte(in.Code), []byte(cur.Code)) == 1
		if !addressOK || !codeOK {
			return &next, goerror.NewBusiness("incorrect passcode", goerror.CodeUnauthorized)
		}

		if cur.ExpiredAt(now) {
			return &next, goerror.NewBusiness("passcode has expired", goerror.CodeExpired)
		}

		return nil, nil
	})
	if err != nil {
		var gerr *goerror.Error
		if !errors.As(err, &gerr) {
			slog.ErrorContext(ctx, "failed to repo mutate passcode", "player_id", in.PlayerID, "error", err)
			return goerror.NewServer(err)
		}

		slog.WarnContext(ctx, "passcode validation failed", "player_id", in.PlayerID, "error", err)
		s.publishValidated(ctx, in, validateOutcome(gerr), attempts)
		return err
	}

	s.publishValidated(ctx, in, OutcomeSuccess, attempts)

	return nil
}

func (s *Usecase) publishValidated(ctx context.Context, in ValidateInput, outcome string, attempts int) {
	if err := s.repoMessaging.PublishPasscodeValidated(ctx, PasscodeValidatedEvent{
		PlayerID:           in.PlayerID,
		ContactAddress:     in.ContactAddress,
		Outcome:            outcome,
		ValidationAttempts: attempts,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish passcode validated event", "player_id", in.PlayerID, "error", err)
	}
}

func validateOutcome(gerr *goerror.Error) string {
	switch gerr.Code() {
	case goerror.CodeNotFound:
		return OutcomeNotFound
	case goerror.CodeInvalidFormat:
		return OutcomeMalformed
	case goerror.CodeTooManyRequest:
		return OutcomeLocked
	case goerror.CodeUnauthorized:
		return OutcomeMismatch
	case goerror.CodeExpired:
		return OutcomeExpired
	default:
		return gerr.Code().String()
	}
}

func numericCode(code string, digits int) bool {
	if len(code) != digits {
		return false
	}

	for i := range len(code) {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}

	return true
}
