package main

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexarb/internal/venue"
)

const validConfig = `
rpc_url = "http://127.0.0.1:8545"
abi_path = "ABI_PATH"

[[venues]]
name = "QuickSwap"
router = "0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff"

[[venues]]
name = "SushiSwap"
router = "0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506"

[tokens]
input = "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619"
output = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"

[settings]
trade_size = 1000000000000000000
min_profit = 0.03
cost_estimate = 0.01

[database]
driver = "sqlite"
path = "DB_PATH"
`

const quotelessABI = `[{"inputs":[],"name":"factory","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"}]`

// configDir writes config.toml into a temp dir, pointing abi_path and the
// sqlite file into the same dir, and applies edit to the result.
func configDir(t *testing.T, abiJSON string, edit func(string) string) string {
	t.Helper()
	dir := t.TempDir()

	abiPath := filepath.Join(dir, "router.json")
	require.NoError(t, os.WriteFile(abiPath, []byte(abiJSON), 0o600))

	body := strings.NewReplacer(
		"ABI_PATH", filepath.ToSlash(abiPath),
		"DB_PATH", filepath.ToSlash(filepath.Join(dir, "arbitrage.db")),
	).Replace(validConfig)
	if edit != nil {
		body = edit(body)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o600))
	return dir
}

func TestRun_StartupFailures(t *testing.T) {
	tests := []struct {
		name   string
		dir    func(t *testing.T) string
		errMsg string
		target error
	}{
		{
			name:   "missing config file",
			dir:    func(t *testing.T) string { return t.TempDir() },
			errMsg: "cannot load config",
		},
		{
			name: "single venue",
			dir: func(t *testing.T) string {
				return configDir(t, quotelessABI, func(s string) string {
					i := strings.LastIndex(s, "[[venues]]")
					j := strings.Index(s, "[tokens]")
					return s[:i] + s[j:]
				})
			},
			errMsg: "at least 2 venues",
		},
		{
			name: "unknown database driver",
			dir: func(t *testing.T) string {
				return configDir(t, quotelessABI, func(s string) string {
					return strings.Replace(s, `driver = "sqlite"`, `driver = "mysql"`, 1)
				})
			},
			errMsg: "unsupported",
		},
		{
			name:   "abi without getAmountsOut",
			dir:    func(t *testing.T) string { return configDir(t, quotelessABI, nil) },
			target: venue.ErrMethodMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.dir(t))
			require.Error(t, err)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

// TestMain_ExitsNonZero re-runs the test binary as the real program inside a
// directory holding an invalid config and checks the exit status.
func TestMain_ExitsNonZero(t *testing.T) {
	if os.Getenv("DEXARB_AS_MAIN") == "1" {
		main()
		return
	}

	dir := configDir(t, quotelessABI, func(s string) string {
		return strings.Replace(s, "trade_size = 1000000000000000000", "trade_size = 0", 1)
	})

	cmd := exec.Command(os.Args[0], "-test.run=^TestMain_ExitsNonZero$")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "DEXARB_AS_MAIN=1")
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "expected exit error, got %v: %s", err, out)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, string(out), "trade_size")
}
