package journal

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/goalpass/goalpass/internal/journal/inbound"
	"github.com/goalpass/goalpass/internal/journal/outbound/db"
	"github.com/goalpass/goalpass/internal/journal/usecase"
	"github.com/goalpass/goalpass/internal/pkg/clock"
	"github.com/goalpass/goalpass/internal/pkg/config"
	"github.com/goalpass/goalpass/internal/pkg/goroutine"
	"github.com/goalpass/goalpass/internal/pkg/instrument"
	"github.com/goalpass/goalpass/internal/pkg/messaging"
	"github.com/goalpass/goalpass/internal/pkg/router"
	"github.com/goalpass/goalpass/internal/pkg/uid"
	"github.com/goalpass/goalpass/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(ctx context.Context, dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     db.NewDB(dep.DBConn, dep.Instrument),
		Validator:  dep.Validator,
		Config:     dep.Config,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	inbound.RegisterMQConsumer(ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)

	return nil
}
