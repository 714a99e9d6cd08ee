package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/tablereserve/libs/config"
	"github.com/md-rashed-zaman/tablereserve/libs/db"
	"github.com/md-rashed-zaman/tablereserve/libs/httpx"
	"github.com/md-rashed-zaman/tablereserve/libs/kafkax"
	otelx "github.com/md-rashed-zaman/tablereserve/libs/otel"
	"github.com/md-rashed-zaman/tablereserve/libs/redisx"
	"github.com/md-rashed-zaman/tablereserve/libs/runtime"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/availability"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/booking"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/cache"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/handlers"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/outbox"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/storage"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/storage/memory"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// backend is what both storage drivers provide.
type backend interface {
	handlers.Directory
	availability.Reader
	booking.Store
}

func main() {
	service := config.String("SERVICE_NAME", "reservation-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext(context.Background())
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	store, pool, err := openBackend(ctx, logger)
	if err != nil {
		logger.Error("storage init failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	rdb, err := redisx.Open(ctx, config.String("REDIS_URL", ""))
	if err != nil {
		logger.Error("redis connection failed; continuing without cache", "err", err)
		rdb = nil
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	brokers := config.String("KAFKA_BROKERS", "")
	if pool != nil {
		publisher := outbox.NewPublisher(pool, outbox.NewRepository(pool), logger, outbox.PublisherConfig{
			Brokers:   brokers,
			PollEvery: 2 * time.Second,
			BatchSize: 50,
		})
		go publisher.Run(ctx)
	}

	hoursCache := cache.NewHoursCache(rdb, store, config.Duration("HOURS_CACHE_TTL", 5*time.Minute), logger)
	engine := availability.NewEngine(store, logger, availability.WithHoursSource(hoursCache))
	bookingSvc := booking.NewService(store, engine, logger)
	handler := handlers.New(store, engine, bookingSvc, hoursCache, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "redis", Check: redisx.ReadyCheck(rdb)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	handler.Register(mux, rateLimit(rdb, logger))

	var cors httpx.Middleware
	if origins := config.List("CORS_ALLOWED_ORIGINS"); len(origins) > 0 {
		cors = httpx.WithCORS(httpx.DefaultCORSPolicy(origins))
	}
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		cors,
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(config.Duration("HTTP_HANDLER_TIMEOUT", 10*time.Second)),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "reservation")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	if err := startGrpcServer(ctx, logger, engine); err != nil {
		logger.Error("grpc server failed to start", "err", err)
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

// openBackend returns a nil pool for the memory driver.
func openBackend(ctx context.Context, logger *slog.Logger) (backend, *db.Pool, error) {
	driver := strings.ToLower(config.String("STORAGE_DRIVER", "postgres"))
	switch driver {
	case "memory":
		logger.Warn("using in-memory storage; data is lost on restart")
		return memory.New(), nil, nil
	case "postgres":
	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_DRIVER %q", driver)
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return nil, nil, err
	}
	if config.Bool("MIGRATE_ON_START", false) {
		if err := storage.Migrate(dbURL, storage.MigrateUp, logger); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
		MinConns: int32(config.Int("DB_MIN_CONNS", 1)),
	})
	if err != nil {
		return nil, nil, err
	}
	return storage.NewRepository(pool, outbox.NewRepository(pool)), pool, nil
}

// rateLimit guards the guest-facing routes. Redis gives a shared budget
// across replicas; without it each process counts on its own.
func rateLimit(rdb *redis.Client, logger *slog.Logger) httpx.Middleware {
	perMinute := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if perMinute <= 0 {
		return nil
	}
	var limiter httpx.Limiter = httpx.NewMemoryRateLimiter(perMinute, time.Minute)
	if rdb != nil {
		limiter = httpx.NewRedisRateLimiter(rdb, perMinute, time.Minute)
	}
	return httpx.RateLimit(limiter, "reservation", true, func(err error) {
		logger.Warn("rate limiter unavailable", "err", err)
	})
}
