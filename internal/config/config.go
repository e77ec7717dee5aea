package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "BINFLOW"

// Config holds configuration for the apply command, loaded from flags, env,
// or config file.
type Config struct {
	ProgramID         string
	Params            Params
	In                string
	Out               string
	Errors            string
	Checkpoint        string
	CheckpointEnabled bool
	PGDSN             string
	NATSURL           string
	EventsSubject     string
	EventsOut         string
	MetricsAddr       string
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("program-id", DefaultProgramID)
		v.SetDefault("allowed-parameters", DefaultAllowedParameters)
		v.SetDefault("max-bins-per-position", DefaultMaxBinsPerPosition)
		v.SetDefault("max-bins-per-chunk", DefaultMaxBinsPerChunk)
		v.SetDefault("max-swap-bins", DefaultMaxSwapBins)
		v.SetDefault("out", "./data/results.jsonl")
		v.SetDefault("errors", "./data/rejected.jsonl")
		v.SetDefault("checkpoint", "./data/checkpoint.json")
		v.SetDefault("checkpoint-enabled", true)
		v.SetDefault("events-subject", "binflow.events")
		v.SetDefault("max-retries", 5)
		v.SetDefault("retry-backoff", 500*time.Millisecond)
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return Config{}, err
	}

	params, err := ParseParams(
		getStringSlice(v, "allowed-parameters"),
		v.GetInt("max-bins-per-position"),
		v.GetInt("max-bins-per-chunk"),
		v.GetInt("max-swap-bins"),
	)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ProgramID:         v.GetString("program-id"),
		Params:            params,
		In:                v.GetString("in"),
		Out:               v.GetString("out"),
		Errors:            v.GetString("errors"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		PGDSN:             v.GetString("pg-dsn"),
		NATSURL:           v.GetString("nats-url"),
		EventsSubject:     v.GetString("events-subject"),
		EventsOut:         v.GetString("events-out"),
		MetricsAddr:       v.GetString("metrics-addr"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults func(*viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if defaults != nil {
		defaults(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
