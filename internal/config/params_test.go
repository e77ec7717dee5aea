package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultParamsAllowList(t *testing.T) {
	params := DefaultParams()

	require.True(t, params.Allowed(10, 30))
	require.True(t, params.Allowed(20, 50))
	require.True(t, params.Allowed(200, 500))
	require.False(t, params.Allowed(10, 10))
	require.False(t, params.Allowed(0, 0))
	require.Equal(t, 500, params.MaxBinsPerPosition())
}

func TestParseParamsRejectsBadEntries(t *testing.T) {
	_, err := ParseParams([]string{"10"}, 500, 64, 64)
	require.Error(t, err)

	_, err = ParseParams([]string{"0:30"}, 500, 64, 64)
	require.Error(t, err)

	_, err = ParseParams([]string{"10:10000"}, 500, 64, 64)
	require.Error(t, err)

	_, err = ParseParams(nil, 500, 64, 64)
	require.Error(t, err)

	_, err = ParseParams([]string{"10:30"}, 500, 0, 64)
	require.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BINFLOW_ALLOWED_PARAMETERS", "7:15, 9:20")
	t.Setenv("BINFLOW_MAX_BINS_PER_CHUNK", "16")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.True(t, cfg.Params.Allowed(7, 15))
	require.True(t, cfg.Params.Allowed(9, 20))
	require.False(t, cfg.Params.Allowed(10, 30))
	require.Equal(t, 16, cfg.Params.MaxBinsPerChunk())
	require.Equal(t, "info", cfg.LogLevel)
}
