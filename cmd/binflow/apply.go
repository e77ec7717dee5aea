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

	"github.com/ethereum/go-ethereum/common"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"binFlow/internal/amm"
	"binFlow/internal/config"
	"binFlow/internal/custody"
	"binFlow/internal/events"
	"binFlow/internal/ledger"
	"binFlow/internal/metrics"
	"binFlow/internal/ops"
	"binFlow/internal/storage"
	"binFlow/internal/storage/postgres"
)

const (
	eventStream = "BINFLOW_EVENTS"
	stateName   = "apply"
)

func runApply(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if !common.IsHexAddress(cfg.ProgramID) {
		return fmt.Errorf("invalid program id: %s", cfg.ProgramID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store ledger.Store
		state ops.StateStore
	)
	if cfg.PGDSN != "" {
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		store = pg
		if cfg.CheckpointEnabled {
			state = &ops.DBStateStore{Store: pg, Name: stateName}
		}
	} else {
		store = ledger.NewMemoryStore()
		state = &ops.FileStateStore{Path: cfg.Checkpoint, Enabled: cfg.CheckpointEnabled}
	}

	var sinks []storage.Storage
	if cfg.EventsOut != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.EventsOut))
	}
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("binflow"))
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Drain()
		js, err := jetstream.New(nc)
		if err != nil {
			return fmt.Errorf("jetstream: %w", err)
		}
		if err := events.EnsureStream(ctx, js, eventStream, cfg.EventsSubject); err != nil {
			return err
		}
		sinks = append(sinks, events.NewNATSPublisher(js, cfg.EventsSubject, cfg.MaxRetries, cfg.RetryBackoff, logger))
	}
	emitter, err := events.NewEmitter(logger, sinks...)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		srv := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	book := custody.NewBook()
	engine, err := amm.NewEngine(amm.Options{
		Keys:    ledger.NewKeys(common.HexToAddress(cfg.ProgramID)),
		Params:  cfg.Params,
		Store:   store,
		Custody: book,
		Issuer:  custody.NewRegistry(),
		Emitter: emitter,
		Metrics: m,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	runner := ops.NewRunner(ops.RunConfig{
		InputPath:   cfg.In,
		ResultsPath: cfg.Out,
		ErrorsPath:  cfg.Errors,
	}, engine, book, state, logger)

	logger.Info("apply start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.String("program_id", cfg.ProgramID),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.Bool("nats", cfg.NATSURL != ""),
		zap.String("events_out", cfg.EventsOut),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.Int("max_bins_per_chunk", cfg.Params.MaxBinsPerChunk()),
	)

	_, err = runner.Run(ctx)
	return err
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr))
	return srv
}
