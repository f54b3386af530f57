package cli

import (
	"github.com/spf13/cobra"

	"github.com/mikluko/xin/internal/dispatch"
)

var (
	draftTo                 []string
	draftCC                 []string
	draftBCC                []string
	draftSubject            string
	draftBody               string
	draftIdentity           string
	draftAttach             []string
	draftReplaceAttachments bool
	draftClearAttachments   bool
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Manage draft emails",
}

var draftsListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "Search drafts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var query string
		if len(args) == 1 {
			query = args[0]
		}
		return runSearch(cmd, "drafts.list", query)
	},
}

var draftsGetCmd = &cobra.Command{
	Use:   "get <draftId>",
	Short: "Fetch one draft, bodies included",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("drafts.get")
		ctx, cancel := cmdContext()
		defer cancel()
		return render(dispatch.Get(ctx, d, dispatch.GetArgs{EmailID: args[0], Format: "full"}))
	},
}

var draftsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new draft",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("drafts.create")
		ctx, cancel := cmdContext()
		defer cancel()
		env := dispatch.Draft(ctx, d, dispatch.DraftArgs{
			Command: "drafts.create", To: draftTo, CC: draftCC, BCC: draftBCC,
			Subject: draftSubject, Body: draftBody, AttachmentPaths: draftAttach,
		})
		return render(env)
	},
}

var draftsUpdateCmd = &cobra.Command{
	Use:   "update <draftId>",
	Short: "Patch an existing draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("drafts.update")
		ctx, cancel := cmdContext()
		defer cancel()
		env := dispatch.Draft(ctx, d, dispatch.DraftArgs{
			Command: "drafts.update", DraftID: args[0], To: draftTo, CC: draftCC, BCC: draftBCC,
			Subject: draftSubject, Body: draftBody, AttachmentPaths: draftAttach,
			ReplaceAttachments: draftReplaceAttachments, ClearAttachments: draftClearAttachments,
		})
		return render(env)
	},
}

var draftsDeleteCmd = &cobra.Command{
	Use:   "delete <draftId>",
	Short: "Delete a draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("drafts.delete")
		ctx, cancel := cmdContext()
		defer cancel()
		return render(dispatch.Draft(ctx, d, dispatch.DraftArgs{Command: "drafts.delete", DraftID: args[0]}))
	},
}

var draftsSendCmd = &cobra.Command{
	Use:   "send <draftId>",
	Short: "Submit an existing draft for delivery",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("drafts.send")
		ctx, cancel := cmdContext()
		defer cancel()
		return render(dispatch.Draft(ctx, d, dispatch.DraftArgs{Command: "drafts.send", DraftID: args[0], IdentityID: draftIdentity}))
	},
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Create a draft and submit it for delivery in one step",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d := connectOrExit("send")
		ctx, cancel := cmdContext()
		defer cancel()
		env := dispatch.Draft(ctx, d, dispatch.DraftArgs{
			Command: "send", To: draftTo, CC: draftCC, BCC: draftBCC,
			Subject: draftSubject, Body: draftBody, AttachmentPaths: draftAttach, IdentityID: draftIdentity,
		})
		return render(env)
	},
}

func init() {
	for _, c := range []*cobra.Command{draftsCreateCmd, draftsUpdateCmd, sendCmd} {
		c.Flags().StringArrayVar(&draftTo, "to", nil, "recipient address (repeatable)")
		c.Flags().StringArrayVar(&draftCC, "cc", nil, "cc address (repeatable)")
		c.Flags().StringArrayVar(&draftBCC, "bcc", nil, "bcc address (repeatable)")
		c.Flags().StringVar(&draftSubject, "subject", "", "subject line")
		c.Flags().StringVar(&draftBody, "body", "", "plain-text body")
		c.Flags().StringArrayVar(&draftAttach, "attach", nil, "local file path to upload and attach (repeatable)")
	}
	draftsUpdateCmd.Flags().BoolVar(&draftReplaceAttachments, "replace-attachments", false, "replace existing attachments instead of appending")
	draftsUpdateCmd.Flags().BoolVar(&draftClearAttachments, "clear-attachments", false, "remove all attachments")
	draftsSendCmd.Flags().StringVar(&draftIdentity, "identity", "", "sender identity id (default: account's first identity)")
	sendCmd.Flags().StringVar(&draftIdentity, "identity", "", "sender identity id (default: account's first identity)")

	draftsCmd.AddCommand(draftsListCmd, draftsGetCmd, draftsCreateCmd, draftsUpdateCmd, draftsDeleteCmd, draftsSendCmd)
}
