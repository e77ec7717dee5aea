package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// StoreConfig holds configuration for commands that only talk to Postgres.
type StoreConfig struct {
	PGDSN    string
	LogLevel string
}

// LoadStore merges config file, environment variables, and flags into StoreConfig.
func LoadStore(cfgFile string, flags *pflag.FlagSet) (StoreConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return StoreConfig{}, err
	}

	return StoreConfig{
		PGDSN:    v.GetString("pg-dsn"),
		LogLevel: v.GetString("log-level"),
	}, nil
}
