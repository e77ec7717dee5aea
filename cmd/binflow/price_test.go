package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWritePrices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writePrices(&buf, 10, -15, 10))
	require.Equal(t, "-10\t990054780713\n0\t1000000000000\n10\t1010045120210\n", buf.String())
}

func TestWritePricesValidation(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, writePrices(&buf, 0, 0, 10))
	require.Error(t, writePrices(&buf, 10, 10, 0))
}

func TestCeilMultiple(t *testing.T) {
	require.Equal(t, int64(-10), ceilMultiple(-15, 10))
	require.Equal(t, int64(20), ceilMultiple(11, 10))
	require.Equal(t, int64(0), ceilMultiple(0, 10))
}
