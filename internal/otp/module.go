package otp

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/goalpass/goalpass/internal/otp/inbound"
	"github.com/goalpass/goalpass/internal/otp/outbound/db"
	"github.com/goalpass/goalpass/internal/otp/outbound/email"
	"github.com/goalpass/goalpass/internal/otp/outbound/memory"
	"github.com/goalpass/goalpass/internal/otp/outbound/mq"
	"github.com/goalpass/goalpass/internal/otp/outbound/redisdb"
	"github.com/goalpass/goalpass/internal/otp/usecase"
	"github.com/goalpass/goalpass/internal/pkg/clock"
	"github.com/goalpass/goalpass/internal/pkg/codegen"
	"github.com/goalpass/goalpass/internal/pkg/config"
	"github.com/goalpass/goalpass/internal/pkg/goroutine"
	"github.com/goalpass/goalpass/internal/pkg/instrument"
	"github.com/goalpass/goalpass/internal/pkg/mail"
	"github.com/goalpass/goalpass/internal/pkg/messaging"
	"github.com/goalpass/goalpass/internal/pkg/router"
	"github.com/goalpass/goalpass/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
)

// Store drivers selectable via modules.otp.store_driver.
const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type Dependency struct {
	DBConn     *pgxpool.Pool // required when store_driver is postgres
	CacheConn  *redis.Client // required when store_driver is redis
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Codegen    codegen.Generator          `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(ctx context.Context, dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	ucDep := usecase.Dependency{
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Notifier:      email.New(dep.Mail, dep.Instrument),
		Validator:     dep.Validator,
		Config:        dep.Config,
		Codegen:       dep.Codegen,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	}

	switch driver := dep.Config.GetString("modules.otp.store_driver"); driver {
	case DriverPostgres:
		if dep.DBConn == nil {
			return errors.New("otp: postgres store driver requires a database connection")
		}
		ucDep.RepoDB = db.NewDB(dep.DBConn, dep.Instrument)

	case DriverRedis:
		if dep.CacheConn == nil {
			return errors.New("otp: redis store driver requires a redis connection")
		}
		ucDep.RepoDB = redisdb.New(dep.CacheConn, dep.Instrument)

	case DriverMemory, "":
		ucDep.RepoDB = memory.New(dep.Instrument)

	default:
		return errors.New("otp: unknown store driver " + driver)
	}

	uc := usecase.New(ucDep)

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	scheduleSweep(ctx, dep, uc)

	return nil
}

func scheduleSweep(ctx context.Context, dep Dependency, uc *usecase.Usecase) {
	interval := dep.Config.GetSecond("modules.otp.sweep_interval_seconds")
	if interval <= 0 {
		return
	}

	dep.Goroutine.Go(ctx, func(ctx context.Context) error {
		slog.InfoContext(ctx, "Running job for sweeping expired passcodes", "interval", interval.String())

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := uc.SweepExpired(ctx); err != nil {
					slog.ErrorContext(ctx, "failed to sweep expired passcodes", "error", err)
				}
			}
		}
	})
}
