// Package gh shells out to the GitHub CLI. Both the star fetcher and the
// list syncer go through this single exec seam, mockable in tests.
package gh

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CLI runs gh commands and returns their stdout
type CLI struct {
	binary string
}

// New creates a runner for the given gh binary, "gh" when empty
func New(binary string) *CLI {
	if binary == "" {
		binary = "gh"
	}
	return &CLI{binary: binary}
}

// Run executes gh with the given arguments and returns stdout. Stderr is
// folded into the error on failure.
func (c *CLI) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.binary, args...) //nolint:gosec // binary comes from validated config
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("gh %s: %s", strings.Join(args, " "), msg)
	}
	return stdout.Bytes(), nil
}
