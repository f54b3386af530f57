package cli

import (
	"github.com/spf13/cobra"

	"github.com/mikluko/xin/internal/dispatch"
)

var (
	labelName     string
	labelParentID string
)

var labelsCmd = &cobra.Command{
	Use:     "labels",
	Aliases: []string{"mailboxes"},
	Short:   "Manage mailboxes (labels)",
}

var labelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all mailboxes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("labels.list")
		ctx, cancel := cmdContext()
		defer cancel()
		return render(dispatch.Mailbox(ctx, d, dispatch.MailboxArgs{Command: "labels.list"}))
	},
}

var labelsGetCmd = &cobra.Command{
	Use:   "get <mailboxId>",
	Short: "Fetch one mailbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("labels.get")
		ctx, cancel := cmdContext()
		defer cancel()
		return render(dispatch.Mailbox(ctx, d, dispatch.MailboxArgs{Command: "labels.get", ID: args[0]}))
	},
}

var labelsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new mailbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("labels.create")
		ctx, cancel := cmdContext()
		defer cancel()
		return render(dispatch.Mailbox(ctx, d, dispatch.MailboxArgs{Command: "labels.create", Name: args[0], ParentID: labelParentID}))
	},
}

var labelsRenameCmd = &cobra.Command{
	Use:   "rename <mailboxId>",
	Short: "Rename or reparent a mailbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("labels.rename")
		ctx, cancel := cmdContext()
		defer cancel()
		return render(dispatch.Mailbox(ctx, d, dispatch.MailboxArgs{Command: "labels.rename", ID: args[0], Name: labelName, ParentID: labelParentID}))
	},
}

var labelsDeleteCmd = &cobra.Command{
	Use:   "delete <mailboxId>",
	Short: "Delete a mailbox (requires --force)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagForce {
			usageExit("labels.delete", errRequiresForce)
		}
		d := connectOrExit("labels.delete")
		ctx, cancel := cmdContext()
		defer cancel()
		return render(dispatch.Mailbox(ctx, d, dispatch.MailboxArgs{Command: "labels.delete", ID: args[0]}))
	},
}

func init() {
	labelsCreateCmd.Flags().StringVar(&labelParentID, "parent", "", "parent mailbox id")
	labelsRenameCmd.Flags().StringVar(&labelName, "name", "", "new mailbox name")
	labelsRenameCmd.Flags().StringVar(&labelParentID, "parent", "", "new parent mailbox id")
	labelsCmd.AddCommand(labelsListCmd, labelsGetCmd, labelsCreateCmd, labelsRenameCmd, labelsDeleteCmd)
}
