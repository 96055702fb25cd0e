// Package server assembles the GophDiary server: storage backend, session
// tokens, diary pipeline, and the HTTP and gRPC endpoints, and runs them
// until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/cryptox"
	"github.com/dmitrijs2005/gophdiary/internal/logging"
	"github.com/dmitrijs2005/gophdiary/internal/server/auth"
	"github.com/dmitrijs2005/gophdiary/internal/server/config"
	"github.com/dmitrijs2005/gophdiary/internal/server/generators"
	"github.com/dmitrijs2005/gophdiary/internal/server/httpx"
	"github.com/dmitrijs2005/gophdiary/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophdiary/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/gophdiary/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/gophdiary/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	redis        *redis.Client
	userService  *services.UserService
	diaryService *services.DiaryService
	limiter      httpx.RateLimiter
	router       *httpx.Router
}

// NewApp wires every component from c. Metrics go to reg (usually
// prometheus.DefaultRegisterer) and are served from gatherer.
func NewApp(ctx context.Context, c *config.Config, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, "gophdiary-server", logging.ParseLevel(c.LogLevel))
	app := &App{config: c, logger: logger}

	m, err := app.initStorage(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	revoker, limiter, err := app.initRedis(ctx)
	app.limiter = limiter
	if err != nil {
		app.close()
		return nil, err
	}

	caps, err := app.initGenerators(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	pm, err := services.NewPipelineMetrics(reg)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("metrics init error: %w", err)
	}

	tokens := auth.NewTokenService([]byte(c.SecretKey), c.AccessTokenValidityDuration, c.RevocationHorizon, revoker)
	hasher := cryptox.NewPasswordHasher(c.BcryptCost)

	app.userService = services.NewUserService(app.db, m, tokens, hasher, logger)
	app.diaryService = services.NewDiaryService(app.db, m, caps, pm, logger)

	var dbHealth func(context.Context) error
	if app.db != nil {
		dbHealth = app.db.PingContext
	}
	app.router, err = httpx.NewRouter(logger, app.userService, app.diaryService, limiter, reg,
		promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}), dbHealth)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("router init error: %w", err)
	}

	return app, nil
}

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

func (app *App) initStorage(ctx context.Context) (repomanager.RepositoryManager, error) {
	switch app.config.Storage {
	case config.StorageMemory:
		app.logger.Warn(ctx, "using in-memory storage, data is lost on restart")
		return repomanager.NewMemoryRepositoryManager(), nil
	case config.StoragePostgres:
	default:
		return nil, fmt.Errorf("unknown storage backend %q", app.config.Storage)
	}

	db, err := openDB(app.config.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}
	return m, nil
}

func (app *App) initRedis(ctx context.Context) (auth.Revoker, httpx.RateLimiter, error) {
	if app.config.RedisAddr == "" {
		return revocations.NewMemoryRepository(), httpx.NewMemoryRateLimiter(nil), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     app.config.RedisAddr,
		Password: app.config.RedisPassword,
		DB:       app.config.RedisDB,
	})
	app.redis = client

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, nil, fmt.Errorf("redis ping error: %w", err)
	}

	return revocations.NewRedisRepository(client), httpx.NewRedisRateLimiter(client, app.logger, nil), nil
}

func (app *App) initGenerators(ctx context.Context) (services.Capabilities, error) {
	caps := services.Capabilities{Summarizer: generators.EchoSummarizer{}}

	if !app.config.S3Enabled() {
		caps.Synthesizer = generators.NewFileVideoSynthesizer(app.config.VideoDir)
		caps.Linker = generators.RefLinker{}
		return caps, nil
	}

	client, err := generators.NewS3Client(ctx, generators.S3Settings{
		Region:       app.config.S3Region,
		AccessKey:    app.config.S3RootUser,
		SecretKey:    app.config.S3RootPassword,
		BaseEndpoint: app.config.S3BaseEndpoint,
		Bucket:       app.config.S3Bucket,
	})
	if err != nil {
		return caps, fmt.Errorf("s3 init error: %w", err)
	}
	caps.Synthesizer = generators.NewS3VideoSynthesizer(client, app.config.S3Bucket)
	caps.Linker = generators.NewS3VideoLinker(client, app.config.S3Bucket)
	return caps, nil
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
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService, app.diaryService)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves HTTP and gRPC until ctx is cancelled, a termination signal
// arrives or either server fails, then releases all resources.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.close()
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) close() {
	if app.limiter != nil {
		app.limiter.Close()
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}
