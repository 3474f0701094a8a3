package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/duynhne/groc-service/config"
	database "github.com/duynhne/groc-service/internal/core"
	"github.com/duynhne/groc-service/internal/core/repository"
	"github.com/duynhne/groc-service/internal/server"
	"github.com/duynhne/groc-service/middleware"
	"github.com/duynhne/pkg/logger/zerolog"
)

const indexTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	// Initialize Zerolog with LOG_LEVEL from config
	zerolog.Setup(cfg.Logging.Level)

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("env", cfg.Service.Env).
		Str("port", cfg.Service.Port).
		Str("store", cfg.Mongo.Driver).
		Msg("Service starting")

	if cfg.UsesDefaultSecret() {
		log.Warn().Msg("SESSION_SECRET is the default placeholder; set a real secret outside development")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize OpenTelemetry tracing
	var tp interface{ Shutdown(context.Context) error }
	if cfg.Tracing.Enabled {
		provider, err := middleware.InitTracing(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize tracing")
		} else {
			tp = provider
			log.Info().
				Str("endpoint", cfg.Tracing.Endpoint).
				Float64("sample_rate", cfg.Tracing.SampleRate).
				Msg("Tracing initialized")
		}
	} else {
		log.Info().Msg("Tracing disabled (TRACING_ENABLED=false)")
	}

	// Initialize Pyroscope profiling
	if cfg.Profiling.Enabled {
		if err := middleware.InitProfiling(cfg); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize profiling")
		} else {
			log.Info().
				Str("endpoint", cfg.Profiling.Endpoint).
				Msg("Profiling initialized")
			defer middleware.StopProfiling()
		}
	} else {
		log.Info().Msg("Profiling disabled (PROFILING_ENABLED=false)")
	}

	// Database connection is attempted in the background; the server binds
	// and serves regardless of its outcome.
	var connector *database.Connector
	if cfg.Mongo.Driver == config.StoreMongo {
		connector = database.NewConnector(cfg.Mongo.URI, cfg.Mongo.Database, cfg.GetMongoConnectTimeoutDuration())
		connector.OnStateChange(func(state database.State, err error) {
			middleware.MongoConnectionState.Set(float64(state))
			switch state {
			case database.Connected:
				log.Info().Str("database", cfg.Mongo.Database).Msg("Database connected")
				ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
				defer cancel()
				if err := repository.EnsureIndexes(ctx, connector); err != nil {
					log.Error().Err(err).Msg("Failed to create indexes")
				}
			case database.Failed:
				log.Error().Err(err).Msg("Database connection error")
			default:
				log.Debug().Str("state", state.String()).Msg("Database state changed")
			}
		})
		connector.Start(context.Background())
	} else {
		log.Warn().Msg("Using in-memory store (STORE_DRIVER=memory); data is lost on restart")
	}

	srv, err := server.New(server.NewDeps(cfg, connector))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build router")
	}

	// Create HTTP server
	httpServer := &http.Server{
		Addr:              net.JoinHostPort("0.0.0.0", cfg.Service.Port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("Starting groc service")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	// Fail readiness first and wait for propagation.
	srv.Drain()
	drainDelay := cfg.GetReadinessDrainDelayDuration()
	if drainDelay > 0 {
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay started")
		time.Sleep(drainDelay)
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay completed")
	}

	// Shutdown context with configurable timeout
	shutdownTimeout := cfg.GetShutdownTimeoutDuration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info().Dur("timeout", shutdownTimeout).Msg("Shutting down server...")

	// 1. Shutdown HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		log.Info().Msg("HTTP server shutdown complete")
	}

	// 2. Close database connection
	if connector != nil {
		if err := connector.Close(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Database disconnect error")
		} else {
			log.Info().Msg("Database connection closed")
		}
	}

	// 3. Shutdown tracer
	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Tracer shutdown error")
		} else {
			log.Info().Msg("Tracer shutdown complete")
		}
	}

	log.Info().Msg("Graceful shutdown complete")
}
