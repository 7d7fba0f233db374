// Package server initializes and runs the AquaWatch service: it wires
// storage, the inference pipeline, the HTTP endpoint, and the telemetry
// ingester, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aquawatch/aquawatch/internal/logging"
	"github.com/aquawatch/aquawatch/internal/server/blob"
	"github.com/aquawatch/aquawatch/internal/server/config"
	"github.com/aquawatch/aquawatch/internal/server/drift"
	"github.com/aquawatch/aquawatch/internal/server/httpapi"
	"github.com/aquawatch/aquawatch/internal/server/inference"
	"github.com/aquawatch/aquawatch/internal/server/model"
	"github.com/aquawatch/aquawatch/internal/server/reports"
	"github.com/aquawatch/aquawatch/internal/server/shared/db"
	"github.com/aquawatch/aquawatch/internal/server/telemetry"
	"github.com/aquawatch/aquawatch/internal/server/users"
)

// defaultModelCutoff is the stand-in capability's decision boundary.
const defaultModelCutoff = 5.0

type App struct {
	config     *config.Config
	logger     logging.Logger
	manager    db.RepositoryManager
	httpServer *httpapi.Server
	ingester   *telemetry.Ingester
}

func NewApp(c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewDefault()

	manager, err := db.NewPostgresRepositoryManager(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	userService := users.NewService(manager.Users(), c)
	reportService := reports.NewService(manager.Reports())

	archive := blob.NewStore(c)
	capability := model.NewThreshold(defaultModelCutoff, 0)
	inferenceService := inference.NewService(capability, reportService, archive, logger, c)

	// The buffer is the only surface shared between the ingestion and
	// request domains; a buffered distributional scorer can replace the
	// placeholder here without touching the endpoint.
	buffer := telemetry.NewBuffer(c.BufferCapacity)
	ingester := telemetry.NewIngester(c.BrokerURL, c.BrokerTopic, buffer, logger)
	estimator := drift.NewEstimator(drift.RandomScorer{}, c.DriftThreshold)

	httpServer := httpapi.NewServer(c.EndpointAddr, logger,
		userService, inferenceService, reportService, estimator, c.SecretKey)

	return &App{
		config:     c,
		logger:     logger,
		manager:    manager,
		httpServer: httpServer,
		ingester:   ingester,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.ingester.Start(ctx); err != nil {
		app.logger.Error(ctx, "ingester start error", "error", err)
		return
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server error", "error", err)
			cancelFunc()
		}
	}()

	wg.Wait()
	app.ingester.Stop()

	if err := app.manager.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
