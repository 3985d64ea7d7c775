// Package server initializes and runs the marketplace application.
// It opens the database and applies migrations, connects Redis, Kafka and
// the payment provider, and serves the REST API until a signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/basementofbooks/internal/logging"
	"github.com/dmitrijs2005/basementofbooks/internal/server/config"
	"github.com/dmitrijs2005/basementofbooks/internal/server/events"
	"github.com/dmitrijs2005/basementofbooks/internal/server/httpapi"
	"github.com/dmitrijs2005/basementofbooks/internal/server/payments"
	"github.com/dmitrijs2005/basementofbooks/internal/server/redisx"
	"github.com/dmitrijs2005/basementofbooks/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/basementofbooks/internal/server/services"
	"github.com/redis/go-redis/v9"
)

const (
	serviceName   = "basementofbooks"
	eventQueueLen = 256
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *redis.Client
	producer *events.Producer
	server   *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	rdb := redisx.New(c.RedisAddr)
	if err := redisx.Ping(ctx, rdb); err != nil {
		_ = db.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("redis init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, redis: rdb}

	var provider services.PaymentProvider
	if c.OmisePublicKey != "" && c.OmiseSecretKey != "" {
		p, err := payments.NewOmiseProvider(c.OmisePublicKey, c.OmiseSecretKey)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("payment provider init error: %w", err)
		}
		provider = p
	} else {
		logger.Warn(ctx, "omise keys not configured, payment intents are disabled")
	}

	var publisher services.EventPublisher
	if len(c.KafkaBrokers) > 0 {
		app.producer = events.NewProducer(c.KafkaBrokers, c.KafkaTopic, serviceName, eventQueueLen, logger.With("module", "events"))
		publisher = app.producer
	} else {
		logger.Warn(ctx, "no kafka brokers configured, domain events are dropped")
	}

	locker := redisx.NewLocker(rdb)
	cache := redisx.NewAdvertisedCache(rdb, redisx.TTLAdvertised)
	svcLogger := logger.With("module", "services")
	guard := services.NewRoleGuard(db, rm)

	h := httpapi.NewHandler(httpapi.Services{
		Tokens:     services.NewTokenService(db, rm, c),
		Users:      services.NewUserService(db, rm, guard, publisher, svcLogger),
		Categories: services.NewCategoryService(db, rm),
		Products:   services.NewProductService(db, rm, guard, cache, publisher, svcLogger),
		Bookings:   services.NewBookingService(db, rm, guard, publisher, svcLogger),
		Payments:   services.NewPaymentService(db, rm, provider, locker, cache, publisher, svcLogger, c),
		Images:     services.NewImageService(guard, c),
	}, logger)

	app.server = httpapi.NewServer(c.HTTPAddr, logger, httpapi.NewRouter(h, c.RequestTimeout))

	return app, nil
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// close releases the backends. The event queue is flushed first so that
// events of drained requests still reach Kafka.
func (app *App) close() {
	ctx := context.Background()

	if app.producer != nil {
		app.producer.Close()
		app.producer.WaitClosed()
	}
	if err := app.redis.Close(); err != nil {
		app.logger.Warn(ctx, "redis close", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close", "error", err)
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if app.producer != nil {
		// the producer outlives ctx so close() can flush it after the server drains
		app.producer.Start(context.WithoutCancel(ctx))
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(ctx, "App stopped")
}
