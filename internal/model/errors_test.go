package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("swap pool 0x01: %w", ErrSlippageExceeded)

	require.ErrorIs(t, err, ErrSlippageExceeded)
	require.NotErrorIs(t, err, ErrZeroAmount)
	require.Equal(t, "SlippageExceeded", ErrorCode(err))
	require.Empty(t, ErrorCode(fmt.Errorf("dial tcp: refused")))
}
