package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"binFlow/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "binflow",
		Short:        "Bin-based liquidity market engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a JSONL file of market operations",
		RunE:  runApply,
	}

	applyCmd.Flags().String("in", "", "input operations JSONL")
	applyCmd.Flags().String("out", "./data/results.jsonl", "applied operation results JSONL")
	applyCmd.Flags().String("errors", "./data/rejected.jsonl", "rejected operations JSONL")
	applyCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path (ignored with --pg-dsn)")
	applyCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	applyCmd.Flags().String("program-id", config.DefaultProgramID, "program id namespacing derived addresses")
	applyCmd.Flags().StringSlice("allowed-parameters", nil, "allowed binStep:feeRate pairs (comma-separated)")
	applyCmd.Flags().Int("max-bins-per-position", 500, "maximum bins in one position")
	applyCmd.Flags().Int("max-bins-per-chunk", 64, "maximum bins funded by one deposit chunk")
	applyCmd.Flags().Int("max-swap-bins", 64, "maximum bins one swap may walk")
	applyCmd.Flags().String("pg-dsn", "", "Postgres DSN; in-memory ledger when empty")
	applyCmd.Flags().String("nats-url", "", "NATS URL for event publishing")
	applyCmd.Flags().String("events-subject", "binflow.events", "NATS subject prefix for events")
	applyCmd.Flags().String("events-out", "", "event log JSONL path")
	applyCmd.Flags().String("metrics-addr", "", "address serving /metrics (e.g. :9100)")
	applyCmd.Flags().Int("max-retries", 5, "maximum publish retry attempts")
	applyCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	applyCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(applyCmd)

	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Print bin prices for a bin step",
		RunE:  runPrice,
	}

	priceCmd.Flags().Uint16("bin-step", 10, "bin step in basis points")
	priceCmd.Flags().Int32("from", -10, "first bin id (inclusive)")
	priceCmd.Flags().Int32("to", 10, "last bin id (inclusive)")

	root.AddCommand(priceCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode emitted event logs into typed events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "", "input event logs JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres ledger schema",
		RunE:  runMigrate,
	}

	migrateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	migrateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
