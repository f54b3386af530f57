package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikluko/xin/internal/dispatch"
)

var (
	batchAdd             string
	batchRemove          string
	batchAddMailboxes    string
	batchRemoveMailboxes string
	batchAddKeywords     string
	batchRemoveKeywords  string
	batchWholeThread     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Bulk modify or delete many emails in one call",
}

var batchModifyCmd = &cobra.Command{
	Use:   "modify <emailId>...",
	Short: "Apply an explicit or auto-routed mailbox/keyword change to many emails",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("batch.modify")
		ctx, cancel := cmdContext()
		defer cancel()
		env := dispatch.Modify(ctx, d, dispatch.ModifyArgs{
			Command: "batch.modify", EmailIDs: args, WholeThread: batchWholeThread, DryRun: flagDryRun,
			Add: splitCSV(batchAdd), Remove: splitCSV(batchRemove),
			AddMailboxes: splitCSV(batchAddMailboxes), RemoveMailboxes: splitCSV(batchRemoveMailboxes),
			AddKeywords: splitCSV(batchAddKeywords), RemoveKeywords: splitCSV(batchRemoveKeywords),
		})
		return render(env)
	},
}

var batchDeleteCmd = &cobra.Command{
	Use:   "delete <emailId>...",
	Short: "Permanently destroy many emails (requires --force)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagForce {
			return render(dispatch.Fail("batch.delete", flagAccount, fmt.Errorf("xinUsageError: batch.delete requires --force")))
		}
		d := connectOrExit("batch.delete")
		ctx, cancel := cmdContext()
		defer cancel()
		env := dispatch.Delete(ctx, d, dispatch.DeleteArgs{
			Command: "batch.delete", EmailIDs: args, WholeThread: batchWholeThread, Force: flagForce,
		})
		return render(env)
	},
}

func init() {
	batchModifyCmd.Flags().StringVar(&batchAdd, "add", "", "comma-separated tokens to auto-route (mailbox name or keyword)")
	batchModifyCmd.Flags().StringVar(&batchRemove, "remove", "", "comma-separated tokens to auto-route for removal")
	batchModifyCmd.Flags().StringVar(&batchAddMailboxes, "add-mailbox", "", "comma-separated mailbox names/ids to add")
	batchModifyCmd.Flags().StringVar(&batchRemoveMailboxes, "remove-mailbox", "", "comma-separated mailbox names/ids to remove")
	batchModifyCmd.Flags().StringVar(&batchAddKeywords, "add-keyword", "", "comma-separated keywords to add")
	batchModifyCmd.Flags().StringVar(&batchRemoveKeywords, "remove-keyword", "", "comma-separated keywords to remove")
	batchModifyCmd.Flags().BoolVar(&batchWholeThread, "whole-thread", false, "expand each given email id to every email in its thread")
	batchDeleteCmd.Flags().BoolVar(&batchWholeThread, "whole-thread", false, "expand each given email id to every email in its thread")
	batchCmd.AddCommand(batchModifyCmd, batchDeleteCmd)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
