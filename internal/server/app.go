// Package server initializes and runs the redaction application server.
// It opens the database, runs schema migrations, selects the custody storage
// backend, and starts the HTTP server with graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/securedoc/internal/logging"
	"github.com/dmitrijs2005/securedoc/internal/server/config"
	"github.com/dmitrijs2005/securedoc/internal/server/httpapi"
	"github.com/dmitrijs2005/securedoc/internal/server/pdf"
	"github.com/dmitrijs2005/securedoc/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/securedoc/internal/server/services"
	"github.com/dmitrijs2005/securedoc/internal/server/storage"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	service *services.RedactionService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	store, err := newStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	engine := pdf.NewEngine(logger)
	svc := services.NewRedactionService(db, rm, store, engine, c, logger)

	return &App{config: c, logger: logger, db: db, service: svc}, nil
}

func newStore(ctx context.Context, c *config.Config) (storage.Store, error) {
	switch c.StorageBackend {
	case config.StorageBackendS3:
		return storage.NewS3Store(ctx, storage.S3Options{
			Region:       c.S3Region,
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	case config.StorageBackendFS:
		return storage.NewFileStore(c.UploadDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s, err := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.service,
			app.config.SecretKey, app.config.SessionTokenValidityDuration, app.config.MaxUploadBytes)
		if err != nil {
			return err
		}
		return s.Run(ctx)
	})

	err := g.Wait()

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "closing database", "error", cerr.Error())
	}

	return err
}
