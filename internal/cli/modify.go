package cli

import (
	"github.com/spf13/cobra"

	"github.com/mikluko/xin/internal/dispatch"
)

var modifyWholeThread bool

func modifyAction(command string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		d := connectOrExit(command)
		ctx, cancel := cmdContext()
		defer cancel()
		env := dispatch.Modify(ctx, d, dispatch.ModifyArgs{
			Command: command, EmailIDs: args, WholeThread: modifyWholeThread, DryRun: flagDryRun,
		})
		return render(env)
	}
}

var archiveCmd = &cobra.Command{
	Use:   "archive <emailId>...",
	Short: "Move emails out of the inbox",
	Args:  cobra.MinimumNArgs(1),
	RunE:  modifyAction("archive"),
}

var readCmd = &cobra.Command{
	Use:   "read <emailId>...",
	Short: "Mark emails read",
	Args:  cobra.MinimumNArgs(1),
	RunE:  modifyAction("read"),
}

var unreadCmd = &cobra.Command{
	Use:   "unread <emailId>...",
	Short: "Mark emails unread",
	Args:  cobra.MinimumNArgs(1),
	RunE:  modifyAction("unread"),
}

var trashCmd = &cobra.Command{
	Use:   "trash <emailId>...",
	Short: "Move emails to the trash mailbox",
	Args:  cobra.MinimumNArgs(1),
	RunE:  modifyAction("trash"),
}

func init() {
	for _, c := range []*cobra.Command{archiveCmd, readCmd, unreadCmd, trashCmd} {
		c.Flags().BoolVar(&modifyWholeThread, "whole-thread", false, "expand each given email id to every email in its thread")
	}
}
