package sugar

import (
	"testing"

	"github.com/mikluko/jmap"
	"github.com/mikluko/jmap/mail/mailbox"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noMailboxes() ([]*mailbox.Mailbox, error) { return nil, nil }

func TestCompile_BareTermIsText(t *testing.T) {
	f, err := Compile("hello", noMailboxes)
	require.NoError(t, err)
	assert.Equal(t, Filter{"text": "hello"}, f)
}

func TestCompile_EmptyQueryIsEmptyFilter(t *testing.T) {
	f, err := Compile("   ", noMailboxes)
	require.NoError(t, err)
	assert.Equal(t, Filter{}, f)
}

func TestCompile_KeyValueTerms(t *testing.T) {
	tests := []struct {
		query string
		want  Filter
	}{
		{"from:alice", Filter{"from": "alice"}},
		{"subject:\"hello world\"", Filter{"subject": "hello world"}},
		{"has:attachment", Filter{"hasAttachment": true}},
		{"seen:true", Filter{"hasKeyword": "$seen"}},
		{"seen:false", Filter{"notKeyword": "$seen"}},
		{"flagged:yes", Filter{"hasKeyword": "$flagged"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := Compile(tt.query, noMailboxes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_NegatedTerm(t *testing.T) {
	f, err := Compile("-from:alice", noMailboxes)
	require.NoError(t, err)
	assert.Equal(t, Filter{"operator": "NOT", "conditions": []Filter{{"from": "alice"}}}, f)
}

func TestCompile_MultipleTermsAreAnded(t *testing.T) {
	f, err := Compile("from:alice subject:hi", noMailboxes)
	require.NoError(t, err)
	assert.Equal(t, Filter{"operator": "AND", "conditions": []Filter{{"from": "alice"}, {"subject": "hi"}}}, f)
}

func TestCompile_OrGroup(t *testing.T) {
	f, err := Compile("or:(from:alice|from:bob)", noMailboxes)
	require.NoError(t, err)
	want := Filter{"operator": "OR", "conditions": []Filter{{"from": "alice"}, {"from": "bob"}}}
	assert.Equal(t, want, f)
}

func TestCompile_NestedOrGroupRejected(t *testing.T) {
	_, err := Compile("or:(from:alice|or:(subject:hi))", noMailboxes)
	require.Error(t, err)
	assert.True(t, IsUsageError(err))
	assert.Contains(t, err.Error(), "nested or:(...) is not supported")
}

func TestCompile_GroupNegationRejected(t *testing.T) {
	_, err := Compile("-(from:alice)", noMailboxes)
	require.Error(t, err)
	assert.True(t, IsUsageError(err))
	assert.Contains(t, err.Error(), "group negation")
}

func TestCompile_ParenGroupingRejected(t *testing.T) {
	_, err := Compile("(from:alice)", noMailboxes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parentheses grouping is not supported")
}

func TestCompile_UnknownTermIsUsageError(t *testing.T) {
	_, err := Compile("bogus:1", noMailboxes)
	require.Error(t, err)
	assert.True(t, IsUsageError(err))
}

func TestCompile_InMailboxResolvesRole(t *testing.T) {
	lister := func() ([]*mailbox.Mailbox, error) {
		return []*mailbox.Mailbox{{ID: jmap.ID("m1"), Role: mailbox.RoleInbox}}, nil
	}
	f, err := Compile("in:inbox", lister)
	require.NoError(t, err)
	assert.Equal(t, Filter{"inMailbox": "m1"}, f)
}

func TestCompile_InUnknownMailboxIsUsageError(t *testing.T) {
	_, err := Compile("in:nope", noMailboxes)
	require.Error(t, err)
	assert.True(t, IsUsageError(err))
}

func TestCompile_DateTerms(t *testing.T) {
	f, err := Compile("after:2024-01-01", noMailboxes)
	require.NoError(t, err)
	cond, ok := f["after"].(string)
	require.True(t, ok)
	assert.Equal(t, "2024-01-01T00:00:00Z", cond)
}

func TestCompile_InvalidDateIsUsageError(t *testing.T) {
	_, err := Compile("before:not-a-date", noMailboxes)
	require.Error(t, err)
	assert.True(t, IsUsageError(err))
}

func TestCompile_UnterminatedQuoteIsUsageError(t *testing.T) {
	_, err := Compile(`subject:"unterminated`, noMailboxes)
	require.Error(t, err)
	assert.True(t, IsUsageError(err))
}
