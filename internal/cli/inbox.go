package cli

import (
	"github.com/spf13/cobra"

	"github.com/mikluko/xin/internal/dispatch"
)

var inboxAll bool

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Inbox-scoped shortcuts",
}

var inboxNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Fetch the next page of unseen inbox mail",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("inbox.next")
		ctx, cancel := cmdContext()
		defer cancel()
		env := dispatch.Search(ctx, d, dispatch.SearchArgs{
			Command: "inbox.next", All: inboxAll, Limit: searchMax, HasLimit: cmd.Flags().Changed("max"), Page: searchPage,
		})
		return render(env)
	},
}

func init() {
	inboxNextCmd.Flags().BoolVar(&inboxAll, "all", false, "include already-seen messages")
	inboxNextCmd.Flags().Uint64Var(&searchMax, "max", 0, "maximum results per page")
	inboxNextCmd.Flags().StringVar(&searchPage, "page", "", "opaque next-page cursor from a prior result")
	inboxCmd.AddCommand(inboxNextCmd)
}
