package modify

import (
	"context"
	"testing"

	"github.com/mikluko/jmap"
	"github.com/mikluko/jmap/mail/mailbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMailboxes() []*mailbox.Mailbox {
	return []*mailbox.Mailbox{
		{ID: jmap.ID("m-inbox"), Name: "Inbox", Role: mailbox.RoleInbox},
		{ID: jmap.ID("m-archive"), Name: "Archive", Role: mailbox.RoleArchive},
		{ID: jmap.ID("m-trash"), Name: "Trash", Role: mailbox.RoleTrash},
		{ID: jmap.ID("m-work"), Name: "Work"},
	}
}

func TestPlan_IsEmpty(t *testing.T) {
	assert.True(t, Plan{}.IsEmpty())
	assert.False(t, Plan{AddKeywords: []string{"$flagged"}}.IsEmpty())
	assert.False(t, Plan{ReplaceMailboxes: []jmap.ID{"x"}}.IsEmpty())
}

func TestPlan_Patch_AddRemove(t *testing.T) {
	p := Plan{
		AddMailboxes:    []jmap.ID{"a"},
		RemoveMailboxes: []jmap.ID{"b"},
		AddKeywords:     []string{"$flagged"},
		RemoveKeywords:  []string{"$seen"},
	}
	patch := p.Patch()
	assert.Equal(t, true, patch["mailboxIds/a"])
	assert.Nil(t, patch["mailboxIds/b"])
	assert.Equal(t, true, patch["keywords/$flagged"])
	assert.Nil(t, patch["keywords/$seen"])
}

func TestPlan_Patch_ReplaceMailboxesWins(t *testing.T) {
	p := Plan{AddMailboxes: []jmap.ID{"a"}, ReplaceMailboxes: []jmap.ID{"b", "c"}}
	patch := p.Patch()
	set, ok := patch["mailboxIds"].(map[string]bool)
	require.True(t, ok)
	assert.Equal(t, map[string]bool{"b": true, "c": true}, set)
	_, hasAdd := patch["mailboxIds/a"]
	assert.False(t, hasAdd)
}

func TestAutoRoute_SplitsMailboxesFromKeywords(t *testing.T) {
	ids, keywords := AutoRoute([]string{"Work", "$flagged", "inbox"}, sampleMailboxes())
	assert.Equal(t, []jmap.ID{jmap.ID("m-work"), jmap.ID("m-inbox")}, ids)
	assert.Equal(t, []string{"$flagged"}, keywords)
}

func TestArchive_RemovesInboxAddsArchive(t *testing.T) {
	plan, err := Archive(sampleMailboxes())
	require.NoError(t, err)
	assert.Equal(t, []jmap.ID{"m-inbox"}, plan.RemoveMailboxes)
	assert.Equal(t, []jmap.ID{"m-archive"}, plan.AddMailboxes)
}

func TestArchive_NoInboxIsConfigError(t *testing.T) {
	_, err := Archive(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xinConfigError")
}

func TestReadUnread(t *testing.T) {
	assert.Equal(t, Plan{AddKeywords: []string{"$seen"}}, ReadUnread(true))
	assert.Equal(t, Plan{RemoveKeywords: []string{"$seen"}}, ReadUnread(false))
}

func TestTrash_ReplacesWithTrashMailbox(t *testing.T) {
	plan, err := Trash(sampleMailboxes())
	require.NoError(t, err)
	assert.Equal(t, []jmap.ID{"m-trash"}, plan.ReplaceMailboxes)
}

func TestTrash_NoTrashIsConfigError(t *testing.T) {
	_, err := Trash(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xinConfigError")
}

func TestApply_EmptyPlanIsUsageError(t *testing.T) {
	_, err := Apply(context.Background(), nil, "", nil, Plan{}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xinUsageError")
}

func TestApply_DryRunIssuesNoRequest(t *testing.T) {
	plan := Plan{AddKeywords: []string{"$flagged"}}
	result, err := Apply(context.Background(), nil, "", []jmap.ID{"e1"}, plan, true)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, plan, result.Plan)
}
