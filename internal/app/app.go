package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/goalpass/goalpass/internal/pkg/clock"
	"github.com/goalpass/goalpass/internal/pkg/codegen"
	"github.com/goalpass/goalpass/internal/pkg/config"
	"github.com/goalpass/goalpass/internal/pkg/goroutine"
	"github.com/goalpass/goalpass/internal/pkg/instrument"
	"github.com/goalpass/goalpass/internal/pkg/mail"
	"github.com/goalpass/goalpass/internal/pkg/messaging"
	"github.com/goalpass/goalpass/internal/pkg/router"
	"github.com/goalpass/goalpass/internal/pkg/uid"
	"github.com/goalpass/goalpass/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	codegen   codegen.Generator
	uid       uid.NumberID
	uuid      uid.StringID

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	mail      mail.Mail
	messaging messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
