// Capsula Farmer — держит по одному worker'у на каждый аккаунт.
//
// Процесс:
//   - Загружает конфигурацию (ошибка — выход с кодом 1)
//   - Обновляет общие live-данные по расписанию
//   - Раз в тик запускает worker'ы для включённых аккаунтов и
//     перезапускает упавшие с экспоненциальной задержкой
//   - Отдаёт состояние аккаунтов через HTTP API, /healthz и /metrics
//   - Опционально пишет события в Postgres (DB_URL) и RabbitMQ (RABBITMQ_URL)
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shaiso/Capsula/internal/api"
	"github.com/shaiso/Capsula/internal/config"
	"github.com/shaiso/Capsula/internal/domain"
	"github.com/shaiso/Capsula/internal/mq"
	"github.com/shaiso/Capsula/internal/orchestrator"
	"github.com/shaiso/Capsula/internal/refresher"
	"github.com/shaiso/Capsula/internal/remote"
	"github.com/shaiso/Capsula/internal/repo"
	"github.com/shaiso/Capsula/internal/restart"
	"github.com/shaiso/Capsula/internal/shared"
	"github.com/shaiso/Capsula/internal/stats"
	"github.com/shaiso/Capsula/internal/telemetry"
	"github.com/shaiso/Capsula/internal/worker"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "capsula-farmer",
		Short:         "Keep one watching worker alive per account",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate the config file, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config ok: %d accounts\n", len(cfg.Accounts))
			return nil
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logger, logCloser := telemetry.SetupLogger(cfg.Log)
	defer logCloser.Close()
	slog.SetDefault(logger)

	accounts := cfg.DomainAccounts()
	logger.Info("starting capsula-farmer", "version", version, "accounts", len(accounts))

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(registry)

	// Общее состояние
	status := stats.NewTable()
	restarts := restart.NewPolicy(cfg.Backoff())
	cache := shared.NewCache[domain.LiveData]()
	lock := shared.NewRefreshLock(shared.LockConfig{
		Rate:     cfg.Lock.Rate,
		Burst:    cfg.Lock.Burst,
		Observer: metrics,
	})

	// Удалённый сервис
	client, err := remote.New(remote.Config{
		BaseURL:   cfg.Remote.BaseURL,
		Timeout:   cfg.Remote.Timeout,
		UserAgent: cfg.Remote.UserAgent,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("remote client: %w", err)
	}

	ref, err := refresher.New(refresher.Config{
		Source:   remote.NewLiveSource(client),
		Cache:    cache,
		Schedule: cfg.Refresher.Schedule,
		Timeout:  cfg.Refresher.Timeout,
		Observer: metrics,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("refresher: %w", err)
	}

	// Журнал событий (опционально)
	var recorders []orchestrator.Recorder
	var events api.EventLister

	if cfg.Database.URL != "" {
		pool, err := repo.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()

		if err := repo.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("database schema: %w", err)
		}

		eventRepo := repo.NewEventRepo(pool)
		recorders = append(recorders, eventRepo)
		events = eventRepo
		logger.Info("event journal enabled")
	}

	// RabbitMQ (опционально)
	var mqConn *mq.Connection
	if cfg.RabbitMQ.URL != "" {
		mqConn, err = mq.NewConnection(ctx, cfg.RabbitMQ.URL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, running without broker", "error", err)
			mqConn = nil
		} else {
			defer mqConn.Close()

			if err := mq.SetupTopology(ctx, mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			recorders = append(recorders, mq.NewPublisher(mqConn, logger))
			logger.Info("RabbitMQ connected")
		}
	}

	factory := worker.NewFactory(worker.Config{
		Client:        client,
		Status:        status,
		Restarts:      restarts,
		Cache:         cache,
		Lock:          lock,
		Interval:      cfg.Worker.Interval,
		RetryDelay:    cfg.Worker.RetryDelay,
		MaxRetryDelay: cfg.Worker.MaxRetryDelay,
		StableAfter:   cfg.Restart.StableAfter,
		Logger:        logger,
	})

	orch := orchestrator.New(orchestrator.Config{
		Accounts:        accounts,
		Spawner:         factory,
		Status:          status,
		Restarts:        restarts,
		Recorders:       recorders,
		Metrics:         metrics,
		Conn:            mqConn,
		TickInterval:    cfg.Orchestrator.TickInterval,
		ShutdownTimeout: cfg.Orchestrator.ShutdownTimeout,
		Logger:          logger,
	})

	go func() {
		if err := ref.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("refresher stopped", "error", err)
		}
	}()

	if err := orch.Start(ctx); err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}

	// HTTP: API + /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if orch.IsStopped() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok live=%d/%d data_version=%d", orch.LiveCount(), len(accounts), cache.Version())
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	api.NewHandler(api.Config{
		Accounts: orch,
		Events:   events,
		Live:     cache,
		Logger:   logger,
	}).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	orch.Stop()
	logger.Info("capsula-farmer stopped")
	return nil
}
