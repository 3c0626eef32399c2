package usecase

import (
	"context"

	"github.com/goalpass/goalpass/internal/journal/entity"
	"github.com/goalpass/goalpass/internal/pkg/clock"
	"github.com/goalpass/goalpass/internal/pkg/config"
	"github.com/goalpass/goalpass/internal/pkg/instrument"
	"github.com/goalpass/goalpass/internal/pkg/uid"
	"github.com/goalpass/goalpass/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateEntry(ctx context.Context, entry entity.Entry) error
	ListEntries(ctx context.Context, playerID string, limit int32) ([]entity.Entry, error)
}

type Usecase struct {
	repoDB    repoDB
	validator validator.Validator
	cfg       config.Config
	uid       uid.NumberID
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	Validator  validator.Validator
	Config     config.Config
	UID        uid.NumberID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		validator: dep.Validator,
		cfg:       dep.Config,
		uid:       dep.UID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("journal.usecase").Start(ctx, name)
}
