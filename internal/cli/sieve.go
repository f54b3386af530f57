package cli

import (
	"github.com/spf13/cobra"

	"github.com/mikluko/xin/internal/dispatch"
)

var (
	sieveName     string
	sieveContent  string
	sieveFile     string
	sieveActivate bool
)

var sieveCmd = &cobra.Command{
	Use:   "sieve",
	Short: "Manage server-side Sieve filter scripts",
}

var sieveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List Sieve scripts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("sieve.list")
		ctx, cancel := cmdContext()
		defer cancel()
		return render(dispatch.Sieve(ctx, d, dispatch.SieveArgs{Command: "sieve.list"}))
	},
}

var sieveGetCmd = &cobra.Command{
	Use:   "get <scriptId>",
	Short: "Fetch one Sieve script's content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("sieve.get")
		ctx, cancel := cmdContext()
		defer cancel()
		return render(dispatch.Sieve(ctx, d, dispatch.SieveArgs{Command: "sieve.get", ID: args[0]}))
	},
}

var sieveCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a Sieve script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := resolveSieveContent()
		if err != nil {
			usageExit("sieve.create", err)
		}
		d := connectOrExit("sieve.create")
		ctx, cancel := cmdContext()
		defer cancel()
		return render(dispatch.Sieve(ctx, d, dispatch.SieveArgs{
			Command: "sieve.create", Name: args[0], Content: content, Activate: sieveActivate,
		}))
	},
}

var sieveUpdateCmd = &cobra.Command{
	Use:   "update <scriptId>",
	Short: "Update a Sieve script's content, name, or active state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := resolveSieveContent()
		if err != nil {
			usageExit("sieve.update", err)
		}
		d := connectOrExit("sieve.update")
		ctx, cancel := cmdContext()
		defer cancel()
		return render(dispatch.Sieve(ctx, d, dispatch.SieveArgs{
			Command: "sieve.update", ID: args[0], Name: sieveName, Content: content,
			Activate: sieveActivate, HasActivate: cmd.Flags().Changed("activate"),
		}))
	},
}

var sieveDeleteCmd = &cobra.Command{
	Use:   "delete <scriptId>",
	Short: "Delete a Sieve script (requires --force)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagForce {
			usageExit("sieve.delete", errRequiresForce)
		}
		d := connectOrExit("sieve.delete")
		ctx, cancel := cmdContext()
		defer cancel()
		return render(dispatch.Sieve(ctx, d, dispatch.SieveArgs{Command: "sieve.delete", ID: args[0]}))
	},
}

var sieveValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a Sieve script without saving it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := resolveSieveContent()
		if err != nil {
			usageExit("sieve.validate", err)
		}
		d := connectOrExit("sieve.validate")
		ctx, cancel := cmdContext()
		defer cancel()
		return render(dispatch.Sieve(ctx, d, dispatch.SieveArgs{Command: "sieve.validate", Content: content}))
	},
}

// resolveSieveContent reads script source from --content or --file. With
// neither set it returns empty content: create and validate then fail with
// a usage error, while update accepts it.
func resolveSieveContent() (string, error) {
	if sieveContent != "" {
		return sieveContent, nil
	}
	if sieveFile != "" {
		return readFileArg(sieveFile)
	}
	return "", nil
}

func init() {
	for _, c := range []*cobra.Command{sieveCreateCmd, sieveUpdateCmd, sieveValidateCmd} {
		c.Flags().StringVar(&sieveContent, "content", "", "script source (inline)")
		c.Flags().StringVar(&sieveFile, "file", "", "path to script source")
	}
	sieveCreateCmd.Flags().BoolVar(&sieveActivate, "activate", false, "activate the script on success")
	sieveUpdateCmd.Flags().StringVar(&sieveName, "name", "", "new script name")
	sieveUpdateCmd.Flags().BoolVar(&sieveActivate, "activate", false, "activate the script on success")

	sieveCmd.AddCommand(sieveListCmd, sieveGetCmd, sieveCreateCmd, sieveUpdateCmd, sieveDeleteCmd, sieveValidateCmd)
}
