package cli

import (
	"github.com/spf13/cobra"

	"github.com/mikluko/xin/internal/dispatch"
)

var (
	configInitBaseURL string
	configInitToken   string
	configShowEffective bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the account configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init <accountName>",
	Short: "Write a new config file with one account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return render(dispatch.ConfigInit(args[0], configInitBaseURL, configInitToken))
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured account names",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return render(dispatch.ConfigList())
	},
}

var configSetDefaultCmd = &cobra.Command{
	Use:   "set-default <accountName>",
	Short: "Set the default account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return render(dispatch.ConfigSetDefault(args[0]))
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved (redacted) runtime config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return render(dispatch.ConfigShow(flagAccount, configShowEffective))
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configInitBaseURL, "base-url", "", "JMAP session endpoint base URL")
	configInitCmd.Flags().StringVar(&configInitToken, "token", "", "bearer token")
	configShowCmd.Flags().BoolVar(&configShowEffective, "effective", false, "report under the command name config.show.effective (values are resolved the same way either way)")
	configCmd.AddCommand(configInitCmd, configListCmd, configSetDefaultCmd, configShowCmd)
}
