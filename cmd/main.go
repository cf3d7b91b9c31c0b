package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/mediashelf/internal/config"
	"github.com/Vovarama1992/mediashelf/internal/delivery"
	ws "github.com/Vovarama1992/mediashelf/internal/delivery/ws"
	"github.com/Vovarama1992/mediashelf/internal/domain"
	"github.com/Vovarama1992/mediashelf/internal/infra"
	"github.com/Vovarama1992/mediashelf/internal/infra/blobstore"
	"github.com/Vovarama1992/mediashelf/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {

	// LOGGER
	zcore, _ := zap.NewProduction()
	defer func() { _ = zcore.Sync() }()
	zl := logger.NewZapLogger(zcore.Sugar())

	fatal := func(msg string, err error) {
		zl.Log(logger.LogEntry{Level: "error", Message: msg, Error: err})
		_ = zcore.Sync()
		os.Exit(1)
	}

	// CONFIG
	cfg, err := config.Load()
	if err != nil {
		fatal("config load failed", err)
	}
	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "config loaded",
		Fields:  map[string]any{"config": cfg.String()},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// TRACING
	if cfg.OTLPEndpoint != "" {
		shutdown, err := infra.InitTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.AppEnv)
		if err != nil {
			fatal("tracing init failed", err)
		}
		defer func() {
			c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(c)
		}()
	}

	// METRICS
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := infra.NewMetrics(reg)

	// POSTGRES
	if err := infra.Migrate(cfg.DatabaseURL, zl); err != nil {
		fatal("migrations failed", err)
	}
	pool, err := infra.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("postgres connect failed", err)
	}
	defer pool.Close()

	checks := map[string]delivery.Check{"postgres": pool.Ping}

	// REPOSITORY (+ optional redis cache)
	mediaRepo := infra.NewPostgresMediaRepo(pool)
	if cfg.RedisAddr != "" {
		rdb := infra.NewRedisClient(infra.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		mediaRepo = infra.NewCachedMediaRepo(mediaRepo, rdb, cfg.CacheTTL, zl)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// BLOB STORE
	blobs, err := blobstore.New(ctx, cfg, metrics, zl)
	if err != nil {
		fatal("blob store init failed", err)
	}

	// MEDIA SERVICE
	mediaService := domain.NewMediaService(mediaRepo, blobs, zl)

	// EVENT FAN-OUT
	hub := ws.NewHub(zl)
	sinks := []ports.EventPublisher{hub}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kp := infra.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		defer kp.Close()
		sinks = append(sinks, kp)
	}
	go domain.Dispatch(ctx, mediaService.Events(), zl, sinks...)

	// HANDLERS
	stager, err := delivery.NewStager(cfg.StagingDir, cfg.UploadMaxBytes)
	if err != nil {
		fatal("staging dir init failed", err)
	}
	hMedia := delivery.NewMediaHandler(mediaService, stager, cfg.UploadMaxBytes, zl)

	deps := delivery.RouterDeps{
		Media:    hMedia,
		Hub:      hub,
		Metrics:  metrics,
		Gatherer: reg,
		Checks:   checks,
		Log:      zl,
	}
	if cfg.BlobBackend == config.BackendLocal {
		deps.UploadDir = cfg.UploadDir
	}
	r := delivery.NewRouter(deps)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           otelhttp.NewHandler(r, "mediashelf"),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "server started",
			Fields:  map[string]any{"port": cfg.AppPort, "blobBackend": blobs.Name()},
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Log(logger.LogEntry{
				Level:   "error",
				Message: "server crashed",
				Error:   err,
			})
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Log(logger.LogEntry{Level: "error", Message: "graceful shutdown failed", Error: err})
	}
	zl.Log(logger.LogEntry{Level: "info", Message: "server stopped"})
}
