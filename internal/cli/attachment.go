package cli

import (
	"github.com/spf13/cobra"

	"github.com/mikluko/xin/internal/dispatch"
)

var attachmentOut string

var attachmentCmd = &cobra.Command{
	Use:   "attachment <emailId> <blobId>",
	Short: "Download one attachment blob",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("attachment")
		ctx, cancel := cmdContext()
		defer cancel()
		return render(dispatch.Attachment(ctx, d, args[0], args[1], attachmentOut))
	},
}

func init() {
	attachmentCmd.Flags().StringVar(&attachmentOut, "out", "", "write the attachment to this path instead of embedding it inline")
}
