package cli

import (
	"github.com/spf13/cobra"

	"github.com/mikluko/xin/internal/dispatch"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored credentials",
}

var authSetTokenCmd = &cobra.Command{
	Use:   "set-token <accountName> <token>",
	Short: "Store a bearer token for an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return render(dispatch.AuthSetToken(args[0], args[1]))
	},
}

func init() {
	authCmd.AddCommand(authSetTokenCmd)
}
