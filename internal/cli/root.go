// Package cli assembles the cobra command tree and renders every command's
// result through the stable output envelope.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mikluko/xin/internal/envelope"
)

var (
	flagJSON    bool
	flagPlain   bool
	flagForce   bool
	flagNoInput bool
	flagDryRun  bool
	flagAccount string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "xin",
	Short: "An agent-first command-line JMAP mail client",
	Long: `xin talks to a JMAP mail server and renders every result as a single
stable JSON envelope, so it composes cleanly in agent pipelines and shell
scripts alike.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree; it is the sole entry point called from
// cmd/xin/main.go.
func Execute(ctx context.Context) {
	fang.Execute(ctx, rootCmd)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "force JSON envelope output")
	rootCmd.PersistentFlags().BoolVar(&flagPlain, "plain", false, "force human-readable output")
	rootCmd.PersistentFlags().BoolVar(&flagForce, "force", false, "confirm a destructive operation")
	rootCmd.PersistentFlags().BoolVar(&flagNoInput, "no-input", false, "never prompt; fail instead")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "compute but do not apply changes")
	rootCmd.PersistentFlags().StringVar(&flagAccount, "account", "", "named account to use (default: configured default)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "emit diagnostic logging to stderr")

	rootCmd.AddCommand(
		searchCmd, messagesSearchCmd, getCmd, threadCmd, attachmentCmd,
		archiveCmd, readCmd, unreadCmd, trashCmd, batchCmd,
		inboxCmd, labelsCmd, identitiesCmd, sendCmd, draftsCmd,
		historyCmd, watchCmd, configCmd, authCmd, sieveCmd,
	)
}

func logger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// wantsJSON applies the --json/--plain override, defaulting to JSON when
// stdout isn't a terminal (agent/pipeline friendly) and plain otherwise.
func wantsJSON() bool {
	switch {
	case flagJSON:
		return true
	case flagPlain:
		return false
	default:
		return !isatty.IsTerminal(os.Stdout.Fd())
	}
}

// render prints env per the resolved output mode and exits with its code.
// It is called exactly once per command invocation (watch excepted).
func render(env *envelope.Envelope) error {
	if wantsJSON() {
		out, err := env.MarshalPretty()
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		renderPlain(env)
	}
	os.Exit(env.ExitCode())
	return nil
}

// usageExit prints a bare envelope.Err for a pre-dispatch argument-parse
// failure and exits 2, per spec.md's exit-code convention.
func usageExit(command string, err error) {
	env := envelope.Err(command, flagAccount, envelope.UsageError(err.Error()))
	if wantsJSON() {
		out, _ := env.MarshalPretty()
		fmt.Println(string(out))
	} else {
		renderPlain(env)
	}
	os.Exit(2)
}
