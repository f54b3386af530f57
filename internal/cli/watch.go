package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mikluko/xin/internal/dispatch"
	"github.com/mikluko/xin/internal/watch"
)

var (
	watchSince      string
	watchPage       string
	watchCheckpoint string
	watchMax        uint64
	watchIntervalMS int
	watchJitterMS   int
	watchOnce       bool
	watchHydrate    bool
	watchNoEnvelope bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream incremental account changes as NDJSON until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("watch")
		ctx, cancel := cmdContext()
		defer cancel()
		err := dispatch.Watch(ctx, d, watch.Options{
			Since: watchSince, Cursor: watchPage, Checkpoint: watchCheckpoint, MaxChanges: watchMax,
			IntervalMS: watchIntervalMS, JitterMS: watchJitterMS, Once: watchOnce,
			Hydrate: watchHydrate, NoEnvelope: watchNoEnvelope,
		}, os.Stdout)
		if err != nil {
			if watchNoEnvelope {
				os.Exit(1)
			}
			return render(dispatch.Fail("watch", flagAccount, err))
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchSince, "since", "", "state string to start from when no checkpoint exists")
	watchCmd.Flags().StringVar(&watchPage, "page", "", "opaque cursor to resume from, overriding the checkpoint file")
	watchCmd.Flags().StringVar(&watchCheckpoint, "checkpoint", "", "path to persist the latest state string across restarts")
	watchCmd.Flags().Uint64Var(&watchMax, "max", 0, "maximum changes requested per poll")
	watchCmd.Flags().IntVar(&watchIntervalMS, "interval-ms", 5000, "delay between polls")
	watchCmd.Flags().IntVar(&watchJitterMS, "jitter-ms", 500, "random extra delay added to each poll interval")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "exit after the first poll that reports no further changes")
	watchCmd.Flags().BoolVar(&watchHydrate, "hydrate", false, "fetch full summaries for created/updated ids")
	watchCmd.Flags().BoolVar(&watchNoEnvelope, "no-envelope", false, "on failure, exit 1 after the NDJSON error event without printing an error envelope")
}
