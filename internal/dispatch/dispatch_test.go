package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/mikluko/jmap"
	"github.com/mikluko/jmap/mail/email"
	"github.com/stretchr/testify/assert"

	"github.com/mikluko/xin/internal/envelope"
)

func TestClassify_TaggedPrefixes(t *testing.T) {
	tests := []struct {
		err  error
		kind envelope.Kind
	}{
		{errors.New("xinUsageError: bad input"), envelope.KindUsageError},
		{errors.New("xinConfigError: missing account"), envelope.KindConfigError},
		{errors.New("httpError: connection refused"), envelope.KindHTTPError},
		{errors.New("jmapRequestError: Email/set failed"), envelope.KindJMAPRequestError},
		{errors.New("unprefixed failure"), envelope.KindJMAPRequestError},
	}
	for _, tt := range tests {
		got := classify(tt.err)
		assert.Equal(t, tt.kind, got.Kind)
	}
}

func TestClassify_StripsPrefixFromMessage(t *testing.T) {
	got := classify(errors.New("xinUsageError: at least one email id is required"))
	assert.Equal(t, "at least one email id is required", got.Message)
}

func TestFail_BuildsFailedEnvelope(t *testing.T) {
	env := fail("search", "work", errors.New("xinUsageError: bad query"))
	assert.False(t, env.OK)
	assert.Equal(t, "search", env.Command)
	assert.Equal(t, "work", env.Account)
	assert.Equal(t, envelope.KindUsageError, env.Err.Kind)
}

func TestNewMeta_AssignsRequestID(t *testing.T) {
	m := newMeta()
	assert.NotEmpty(t, m.RequestID)
}

func TestFormatTime_NilIsEmptyString(t *testing.T) {
	assert.Equal(t, "", formatTime(nil))
}

func TestFormatTime_FormatsUTC(t *testing.T) {
	tm := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-01T12:30:00Z", formatTime(&tm))
}

func TestEmailSummary_ShapesCoreFields(t *testing.T) {
	e := &email.Email{
		ID:            jmap.ID("e1"),
		ThreadID:      jmap.ID("t1"),
		Subject:       "Hello",
		HasAttachment: true,
		MailboxIDs:    map[jmap.ID]bool{"m1": true},
		Keywords:      map[string]bool{"$seen": true},
	}
	summary := emailSummary(e)
	assert.Equal(t, jmap.ID("e1"), summary["emailId"])
	assert.Equal(t, jmap.ID("t1"), summary["threadId"])
	assert.Equal(t, "Hello", summary["subject"])
	assert.Equal(t, true, summary["hasAttachment"])
	assert.Equal(t, false, summary["unread"])
}

func TestEmailSummary_UnreadWhenNoSeenKeyword(t *testing.T) {
	e := &email.Email{ID: jmap.ID("e2"), Keywords: map[string]bool{}}
	summary := emailSummary(e)
	assert.Equal(t, true, summary["unread"])
}
