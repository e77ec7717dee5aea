package config

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultProgramID          = "0x000000000000000000000000000000000000b1f0"
	DefaultMaxBinsPerPosition = 500
	DefaultMaxBinsPerChunk    = 64
	DefaultMaxSwapBins        = 64
)

// DefaultAllowedParameters lists the permitted "binStep:feeRate" pairs.
var DefaultAllowedParameters = []string{
	"1:10", "5:10", "10:30", "20:10", "20:50", "50:20", "50:100", "100:30", "100:250", "200:500",
}

type pair struct {
	binStep uint16
	feeRate uint16
}

// Params is the immutable market configuration shared by every operation.
type Params struct {
	allowed            map[pair]struct{}
	maxBinsPerPosition int
	maxBinsPerChunk    int
	maxSwapBins        int
}

// ParseParams builds Params from "binStep:feeRate" entries and limits.
func ParseParams(entries []string, maxBinsPerPosition, maxBinsPerChunk, maxSwapBins int) (Params, error) {
	if maxBinsPerPosition <= 0 || maxBinsPerChunk <= 0 || maxSwapBins <= 0 {
		return Params{}, fmt.Errorf("bin limits must be greater than zero")
	}
	allowed := make(map[pair]struct{}, len(entries))
	for _, entry := range entries {
		p, err := parsePair(entry)
		if err != nil {
			return Params{}, err
		}
		allowed[p] = struct{}{}
	}
	if len(allowed) == 0 {
		return Params{}, fmt.Errorf("allowed parameters must not be empty")
	}
	return Params{
		allowed:            allowed,
		maxBinsPerPosition: maxBinsPerPosition,
		maxBinsPerChunk:    maxBinsPerChunk,
		maxSwapBins:        maxSwapBins,
	}, nil
}

// DefaultParams returns the built-in allow-list and limits.
func DefaultParams() Params {
	params, err := ParseParams(DefaultAllowedParameters, DefaultMaxBinsPerPosition, DefaultMaxBinsPerChunk, DefaultMaxSwapBins)
	if err != nil {
		panic(err)
	}
	return params
}

func parsePair(entry string) (pair, error) {
	parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
	if len(parts) != 2 {
		return pair{}, fmt.Errorf("invalid allowed parameter %q: want binStep:feeRate", entry)
	}
	binStep, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 16)
	if err != nil {
		return pair{}, fmt.Errorf("invalid bin step in %q: %w", entry, err)
	}
	feeRate, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 16)
	if err != nil {
		return pair{}, fmt.Errorf("invalid fee rate in %q: %w", entry, err)
	}
	if binStep == 0 {
		return pair{}, fmt.Errorf("invalid allowed parameter %q: bin step must be > 0", entry)
	}
	if feeRate >= 10_000 {
		return pair{}, fmt.Errorf("invalid allowed parameter %q: fee rate must be < 10000", entry)
	}
	return pair{binStep: uint16(binStep), feeRate: uint16(feeRate)}, nil
}

// Allowed reports whether the (binStep, feeRate) pair may be used for a pool.
func (p Params) Allowed(binStep, feeRate uint16) bool {
	_, ok := p.allowed[pair{binStep: binStep, feeRate: feeRate}]
	return ok
}

func (p Params) MaxBinsPerPosition() int { return p.maxBinsPerPosition }
func (p Params) MaxBinsPerChunk() int    { return p.maxBinsPerChunk }
func (p Params) MaxSwapBins() int        { return p.maxSwapBins }
