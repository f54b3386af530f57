package cli

import (
	"github.com/spf13/cobra"

	"github.com/mikluko/xin/internal/dispatch"
)

var identitiesCmd = &cobra.Command{
	Use:   "identities [identityId]",
	Short: "List sender identities, or fetch one by id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("identities")
		ctx, cancel := cmdContext()
		defer cancel()
		var id string
		if len(args) == 1 {
			id = args[0]
		}
		return render(dispatch.Identities(ctx, d, id))
	},
}
