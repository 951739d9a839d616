package cli

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"
)

// ErrNotInitialized is returned by commands that need the database when the
// container failed to start.
var ErrNotInitialized = errors.New("application not initialized - database connection required")

// JSONOutput reports whether --json was given.
func JSONOutput() bool {
	return jsonOutput
}

// SetJSONOutput overrides --json, for tests that invoke RunE directly.
func SetJSONOutput(enabled bool) {
	jsonOutput = enabled
}

// Render writes v as indented JSON when --json is set and calls text otherwise.
func Render(cmd *cobra.Command, v any, text func(w io.Writer) error) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(out)
}
