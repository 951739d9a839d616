package user

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperlus/ledger/adapter/cli"
	internalApp "github.com/paperlus/ledger/internal/app"
	mcpinternal "github.com/paperlus/ledger/internal/mcp"
	"github.com/paperlus/ledger/pkg/config"
)

func setupLocalModeTestApp(t *testing.T) {
	t.Helper()

	cfg := &config.Config{
		AppEnv:       "test",
		SQLitePath:   filepath.Join(t.TempDir(), "test.db"),
		LifetimeMode: config.LifetimeModeNever,
		SeedDemo:     true,
		CacheTTL:     time.Minute,
		CacheSize:    64,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	container, err := internalApp.NewContainer(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	cli.SetApp(mcpinternal.NewCLIApp(container, cfg.OperatorID))
	t.Cleanup(func() { cli.SetApp(nil) })
}

func resetFlags() {
	status = ""
	search = ""
	page = 1
	pageSize = 10
	searchLimit = 0
	searchBy = ""
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	t.Cleanup(func() { cmd.SetOut(nil) })

	err := cmd.RunE(cmd, args)
	return out.String(), err
}

func TestListCmd_DefaultsToActive(t *testing.T) {
	setupLocalModeTestApp(t)
	resetFlags()

	out, err := run(t, listCmd)
	require.NoError(t, err)

	assert.Contains(t, out, "Active 3 | Expired 1 | None 4 | All 8")
	assert.Contains(t, out, "U-1138")
	assert.Contains(t, out, "U-8752")
	assert.Contains(t, out, "U-9163")
	assert.NotContains(t, out, "U-2847")
	assert.Contains(t, out, "Page 1 of 1 (3 users)")
}

func TestListCmd_NoneWithSearch(t *testing.T) {
	setupLocalModeTestApp(t)
	resetFlags()
	status = "none"
	search = "clark;maya"

	out, err := run(t, listCmd)
	require.NoError(t, err)

	assert.Contains(t, out, "U-4821")
	assert.Contains(t, out, "U-6492")
	assert.NotContains(t, out, "U-5739")
	// Counts ignore the filter and search.
	assert.Contains(t, out, "All 8")
}

func TestListCmd_RejectsUnknownStatus(t *testing.T) {
	setupLocalModeTestApp(t)
	resetFlags()
	status = "paused"

	_, err := run(t, listCmd)
	assert.Error(t, err)
}

func TestListCmd_RejectsOddPageSize(t *testing.T) {
	setupLocalModeTestApp(t)
	resetFlags()
	pageSize = 7

	_, err := run(t, listCmd)
	assert.Error(t, err)
}

func TestSearchCmd(t *testing.T) {
	setupLocalModeTestApp(t)
	resetFlags()

	out, err := run(t, searchCmd, "U-1138;dailyplanet")
	require.NoError(t, err)
	assert.Contains(t, out, "Anya Sharma")
	assert.Contains(t, out, "Clark Kent")
	assert.NotContains(t, out, "Budi")

	out, err = run(t, searchCmd, "nobody-here")
	require.NoError(t, err)
	assert.Contains(t, out, "No users found.")
}

func TestSearchCmd_ByField(t *testing.T) {
	setupLocalModeTestApp(t)
	resetFlags()

	searchBy = "id"
	out, err := run(t, searchCmd, "dailyplanet")
	require.NoError(t, err)
	assert.Contains(t, out, "No users found.")

	searchBy = "email"
	out, err = run(t, searchCmd, "dailyplanet")
	require.NoError(t, err)
	assert.Contains(t, out, "Clark Kent")

	searchBy = "address"
	_, err = run(t, searchCmd, "dailyplanet")
	assert.Error(t, err)
}

func TestSearchCmd_BlankQueryFindsNobody(t *testing.T) {
	setupLocalModeTestApp(t)
	resetFlags()

	out, err := run(t, searchCmd, " ; ")
	require.NoError(t, err)
	assert.Contains(t, out, "No users found.")
}
