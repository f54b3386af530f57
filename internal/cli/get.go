package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikluko/xin/internal/dispatch"
)

var (
	getFormat       string
	getMaxBodyBytes int
	getHeaders      string
)

var getCmd = &cobra.Command{
	Use:   "get <emailId>",
	Short: "Fetch one email by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("get")
		ctx, cancel := cmdContext()
		defer cancel()

		var headers []string
		if getHeaders != "" {
			headers = strings.Split(getHeaders, ",")
		}
		env := dispatch.Get(ctx, d, dispatch.GetArgs{
			EmailID: args[0], Format: getFormat, MaxBodyBytes: getMaxBodyBytes, Headers: headers,
		})
		return render(env)
	},
}

func init() {
	getCmd.Flags().StringVar(&getFormat, "format", "metadata", "metadata|full|raw")
	getCmd.Flags().IntVar(&getMaxBodyBytes, "max-body-bytes", 0, "cap on decoded body bytes requested from the server")
	getCmd.Flags().StringVar(&getHeaders, "headers", "", "comma-separated header names to include")
}
