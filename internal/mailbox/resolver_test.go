package mailbox

import (
	"testing"

	"github.com/mikluko/jmap"
	"github.com/mikluko/jmap/mail/mailbox"
	"github.com/stretchr/testify/assert"
)

func sampleMailboxes() []*mailbox.Mailbox {
	return []*mailbox.Mailbox{
		{ID: jmap.ID("m-inbox"), Name: "Inbox", Role: mailbox.RoleInbox},
		{ID: jmap.ID("m-trash"), Name: "Trash", Role: mailbox.RoleTrash},
		{ID: jmap.ID("m-custom"), Name: "Project X"},
	}
}

func TestResolve_ByID(t *testing.T) {
	id, ok := Resolve("m-custom", sampleMailboxes())
	assert.True(t, ok)
	assert.Equal(t, jmap.ID("m-custom"), id)
}

func TestResolve_ByRole(t *testing.T) {
	id, ok := Resolve("inbox", sampleMailboxes())
	assert.True(t, ok)
	assert.Equal(t, jmap.ID("m-inbox"), id)
}

func TestResolve_ByRoleAlias(t *testing.T) {
	id, ok := Resolve("bin", sampleMailboxes())
	assert.True(t, ok)
	assert.Equal(t, jmap.ID("m-trash"), id)
}

func TestResolve_ByExactName(t *testing.T) {
	id, ok := Resolve("Project X", sampleMailboxes())
	assert.True(t, ok)
	assert.Equal(t, jmap.ID("m-custom"), id)
}

func TestResolve_ByCaseInsensitiveName(t *testing.T) {
	id, ok := Resolve("project x", sampleMailboxes())
	assert.True(t, ok)
	assert.Equal(t, jmap.ID("m-custom"), id)
}

func TestResolve_Unknown(t *testing.T) {
	_, ok := Resolve("nope", sampleMailboxes())
	assert.False(t, ok)
}

func TestResolve_Empty(t *testing.T) {
	_, ok := Resolve("  ", sampleMailboxes())
	assert.False(t, ok)
}

func TestRequireCoreRole(t *testing.T) {
	id, ok := RequireCoreRole(mailbox.RoleTrash, sampleMailboxes())
	assert.True(t, ok)
	assert.Equal(t, jmap.ID("m-trash"), id)

	_, ok = RequireCoreRole(mailbox.RoleSent, sampleMailboxes())
	assert.False(t, ok)
}
