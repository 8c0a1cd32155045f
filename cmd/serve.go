package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/markjakearzadon/projectboard-gobackend/internal/config"
	"github.com/markjakearzadon/projectboard-gobackend/internal/db"
	"github.com/markjakearzadon/projectboard-gobackend/internal/handlers"
	"github.com/markjakearzadon/projectboard-gobackend/internal/logger"
	"github.com/markjakearzadon/projectboard-gobackend/internal/server"
	"github.com/markjakearzadon/projectboard-gobackend/internal/services"
	"github.com/markjakearzadon/projectboard-gobackend/internal/store"
)

func newServeCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	defaultConfig := config.DefaultConfig()
	flags := command.Flags()

	flags.String("port", defaultConfig.HTTP.Port, "the port to serve the HTTP API on")
	flags.Duration("http-read-timeout", defaultConfig.HTTP.ReadTimeout, "the maximum duration for reading an entire request")
	flags.Duration("http-write-timeout", defaultConfig.HTTP.WriteTimeout, "the maximum duration before timing out writes of a response")
	flags.Duration("request-timeout", defaultConfig.HTTP.RequestTimeout, "the deadline of every datastore round trip made for a request")
	flags.StringSlice("cors-allowed-origins", defaultConfig.HTTP.CORSAllowedOrigins, "specifies the CORS allowed origins")
	flags.StringSlice("cors-allowed-headers", defaultConfig.HTTP.CORSAllowedHeaders, "specifies the CORS allowed headers")

	flags.String("datastore-engine", defaultConfig.Datastore.Engine, "the datastore engine, 'mongo' or 'memory'")
	flags.String("datastore-uri", defaultConfig.Datastore.URI, "the MongoDB connection URI")
	flags.String("datastore-database", defaultConfig.Datastore.Database, "the MongoDB database name")
	flags.Duration("datastore-connect-timeout", defaultConfig.Datastore.ConnectTimeout, "the timeout of each MongoDB connection attempt")
	flags.Uint64("datastore-max-connect-retries", defaultConfig.Datastore.MaxConnectRetries, "how many times the initial MongoDB ping is retried")

	flags.String("log-format", defaultConfig.Log.Format, "the log format to output logs in, 'text' or 'json'")
	flags.String("log-level", defaultConfig.Log.Level, "the log level to use, 'none', 'debug', 'info', 'warn', 'error', 'panic' or 'fatal'")

	flags.Bool("metrics-enabled", defaultConfig.Metrics.Enabled, "enable/disable prometheus metrics on the '/metrics' endpoint")

	bindServeFlags(command)

	return command
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, err := logger.NewLogger(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	executor, closeStore, err := openStore(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer closeStore()

	announcementService := services.NewAnnouncementService(executor,
		services.WithLogger(l.With(zap.String("service", "announcement"))),
		services.WithRequestTimeout(cfg.HTTP.RequestTimeout),
	)
	announcementHandler := handlers.NewAnnouncementHandler(announcementService, l)

	httpServer := &http.Server{
		Addr: cfg.HTTP.Addr(),
		Handler: server.NewRouter(announcementHandler, l, server.Options{
			CORSAllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
			CORSAllowedHeaders: cfg.HTTP.CORSAllowedHeaders,
			MetricsEnabled:     cfg.Metrics.Enabled,
		}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("server running", zap.String("addr", httpServer.Addr), zap.String("datastore", cfg.Datastore.Engine))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	l.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openStore returns the executor of the announcement collection and a
// function releasing it.
func openStore(ctx context.Context, cfg *config.Config, l logger.Logger) (store.Executor, func(), error) {
	if cfg.Datastore.Engine == config.EngineMemory {
		l.Warn("using the in-memory datastore, data is lost on exit")
		return store.NewMemory(), func() {}, nil
	}

	client, err := db.Connect(ctx, cfg.Datastore.URI, cfg.Datastore.ConnectTimeout, cfg.Datastore.MaxConnectRetries, l)
	if err != nil {
		return nil, nil, err
	}
	database := client.Database(cfg.Datastore.Database)

	if err := db.EnsureIndexes(ctx, database); err != nil {
		l.Warn("failed to ensure indexes", zap.Error(err))
	}

	closeFn := func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			l.Error("error disconnecting from MongoDB", zap.Error(err))
		}
	}
	return store.NewMongo(database, db.AnnouncementCollection), closeFn, nil
}
