package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/mikluko/xin/internal/dispatch"
)

var errRequiresForce = errors.New("this operation is destructive and requires --force")

// readFileArg reads the content of a file passed via a --file-style flag,
// wrapping a missing/unreadable file as a usage error.
func readFileArg(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("xinUsageError: reading %s: %w", path, err)
	}
	return string(b), nil
}

// connectOrExit resolves config and authenticates a client, exiting with a
// rendered envelope if either step fails — every leaf command does this
// first, mirroring how Connect is the one place account/auth errors surface.
func connectOrExit(command string) *dispatch.Deps {
	d, err := dispatch.Connect(flagAccount, logger())
	if err != nil {
		render(dispatch.Fail(command, flagAccount, err))
	}
	return d
}

// cmdContext returns a context cancelled on SIGINT (os.Interrupt), used by
// every command that performs outbound calls.
func cmdContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
