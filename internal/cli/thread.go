package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mikluko/xin/internal/dispatch"
)

var threadMaxBodyBytes int

var threadCmd = &cobra.Command{
	Use:   "thread",
	Short: "Thread-level commands",
}

var threadGetCmd = &cobra.Command{
	Use:   "get <threadId>",
	Short: "Fetch every email in a thread, bodies included",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("thread.get")
		ctx, cancel := cmdContext()
		defer cancel()
		return render(dispatch.Thread(ctx, d, dispatch.ThreadArgs{Command: "thread.get", ThreadID: args[0], MaxBodyBytes: threadMaxBodyBytes}))
	},
}

var threadAttachmentsCmd = &cobra.Command{
	Use:   "attachments <threadId>",
	Short: "List attachments across every email in a thread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("thread.attachments")
		ctx, cancel := cmdContext()
		defer cancel()
		return render(dispatch.Thread(ctx, d, dispatch.ThreadArgs{Command: "thread.attachments", ThreadID: args[0]}))
	},
}

var threadModifyCmd = &cobra.Command{
	Use:   "modify <threadId> <emailId>",
	Short: "Applies nothing: always fails, pointing at archive/read/unread/trash/batch modify --whole-thread",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("use archive/read/unread/trash/batch modify --whole-thread with an email id from the thread")
	},
}

var threadDeleteCmd = &cobra.Command{
	Use:   "delete <emailId>",
	Short: "Permanently destroy every email in the thread containing emailId (requires --force)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagForce {
			return render(dispatch.Fail("thread.delete", flagAccount, fmt.Errorf("xinUsageError: thread.delete requires --force")))
		}
		d := connectOrExit("thread.delete")
		ctx, cancel := cmdContext()
		defer cancel()
		env := dispatch.Delete(ctx, d, dispatch.DeleteArgs{
			Command: "thread.delete", EmailIDs: []string{args[0]}, WholeThread: true, Force: flagForce,
		})
		return render(env)
	},
}

func init() {
	for _, c := range []*cobra.Command{threadGetCmd, threadAttachmentsCmd} {
		c.Flags().IntVar(&threadMaxBodyBytes, "max-body-bytes", 0, "cap on decoded body bytes per email")
	}
	threadCmd.AddCommand(threadGetCmd, threadAttachmentsCmd, threadModifyCmd, threadDeleteCmd)
}
