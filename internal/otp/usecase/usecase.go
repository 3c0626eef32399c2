package usecase

import (
	"context"
	"time"

	"github.com/goalpass/goalpass/internal/otp/entity"
	"github.com/goalpass/goalpass/internal/pkg/clock"
	"github.com/goalpass/goalpass/internal/pkg/codegen"
	"github.com/goalpass/goalpass/internal/pkg/config"
	"github.com/goalpass/goalpass/internal/pkg/instrument"
	"github.com/goalpass/goalpass/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

// Defaults applied when the corresponding configuration key is unset.
const (
	defaultCodeDigits            = 6
	defaultValidityWindow        = 5 * time.Minute
	defaultMaxGenerationAttempts = 3
	defaultMaxValidationAttempts = 3
)

type PasscodeIssuedEvent struct {
	PlayerID           string
	ContactAddress     string
	ExpiresAt          time.Time
	GenerationAttempts int
}

type PasscodeValidatedEvent struct {
	PlayerID           string
	ContactAddress     string
	Outcome            string
	ValidationAttempts int
}

type repoMessaging interface {
	PublishPasscodeIssued(ctx context.Context, msg PasscodeIssuedEvent) error
	PublishPasscodeValidated(ctx context.Context, msg PasscodeValidatedEvent) error
}

type notifier interface {
	Send(ctx context.Context, address, code string, expiresAt time.Time) error
}

type repoDB interface {
	Get(ctx context.Context, playerID string) (*entity.Passcode, error)
	Put(ctx context.Context, rec entity.Passcode) error
	Mutate(ctx context.Context, playerID string, fn entity.Mutator) error
	Delete(ctx context.Context, playerID string) error
	DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	notifier      notifier
	validator     validator.Validator
	cfg           config.Config
	codegen       codegen.Generator
	clock         clock.Clocker
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Notifier      notifier
	Validator     validator.Validator
	Config        config.Config
	Codegen       codegen.Generator
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		notifier:      dep.Notifier,
		validator:     dep.Validator,
		cfg:           dep.Config,
		codegen:       dep.Codegen,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

func (s *Usecase) codeDigits() int {
	if d := s.cfg.GetInt("modules.otp.code_digits"); d != 0 {
		return d
	}

	return defaultCodeDigits
}

func (s *Usecase) validityWindow() time.Duration {
	if w := s.cfg.GetSecond("modules.otp.validity_window_seconds"); w != 0 {
		return w
	}

	return defaultValidityWindow
}

func (s *Usecase) maxGenerationAttempts() int {
	if m := s.cfg.GetInt("modules.otp.max_generation_attempts"); m != 0 {
		return m
	}

	return defaultMaxGenerationAttempts
}

func (s *Usecase) maxValidationAttempts() int {
	if m := s.cfg.GetInt("modules.otp.max_validation_attempts"); m != 0 {
		return m
	}

	return defaultMaxValidationAttempts
}
