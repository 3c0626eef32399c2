package app

import (
	"log/slog"
	"os"

	"github.com/goalpass/goalpass/internal/journal"
	"github.com/goalpass/goalpass/internal/otp"
)

func (a *App) initModules() {
	if err := otp.New(a.ctx, otp.Dependency{
		DBConn:     a.dbConn,
		CacheConn:  a.cacheConn,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Messaging:  a.messaging,
		Mail:       a.mail,
		Config:     a.config,
		Instrument: a.ins,
		Codegen:    a.codegen,
		Clock:      a.clock,
		Validator:  a.validator,
	}); err != nil {
		slog.Error("failed to init module otp", "error", err)
		os.Exit(1)
	}

	if a.config.GetBool("modules.journal.enabled") {
		if err := journal.New(a.ctx, journal.Dependency{
			DBConn:     a.dbConn,
			Goroutine:  a.goroutine,
			Router:     a.router,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module journal", "error", err)
			os.Exit(1)
		}
	}
}
