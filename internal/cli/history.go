package cli

import (
	"github.com/spf13/cobra"

	"github.com/mikluko/xin/internal/dispatch"
	"github.com/mikluko/xin/internal/history"
)

var (
	historySince      string
	historyMax        uint64
	historyPage       string
	historyHydrate    bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Fetch a page of incremental account changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("history")
		ctx, cancel := cmdContext()
		defer cancel()
		env := dispatch.History(ctx, d, history.Args{
			Since: historySince, MaxChanges: historyMax, Cursor: historyPage, Hydrate: historyHydrate,
			HasSince: cmd.Flags().Changed("since"), HasMaxChanges: cmd.Flags().Changed("max"),
		})
		return render(env)
	},
}

func init() {
	historyCmd.Flags().StringVar(&historySince, "since", "", "state string to diff from (omit with --page to bootstrap a cursor)")
	historyCmd.Flags().Uint64Var(&historyMax, "max", 0, "maximum changes per page")
	historyCmd.Flags().StringVar(&historyPage, "page", "", "opaque next-page cursor from a prior result")
	historyCmd.Flags().BoolVar(&historyHydrate, "hydrate", false, "fetch full summaries for created/updated ids")
}
