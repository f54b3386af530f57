package submission

import (
	"testing"

	"github.com/mikluko/jmap"
	"github.com/stretchr/testify/assert"
)

func TestGuessContentType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"report.pdf", "application/pdf"},
		{"photo.png", "image/png"},
		{"data.json", "application/json"},
		{"archive.unknownext", "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GuessContentType(tt.name)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToAddresses_Empty(t *testing.T) {
	assert.Nil(t, toAddresses(nil))
}

func TestToAddresses_MapsEachEmail(t *testing.T) {
	out := toAddresses([]string{"a@example.com", "b@example.com"})
	assert.Len(t, out, 2)
	assert.Equal(t, "a@example.com", out[0].Email)
	assert.Equal(t, "b@example.com", out[1].Email)
}

func TestAttachmentParts_Empty(t *testing.T) {
	assert.Nil(t, attachmentParts(nil))
}

func TestAttachmentParts_MapsFields(t *testing.T) {
	atts := []Attachment{{BlobID: jmap.ID("b1"), Name: "a.pdf", Type: "application/pdf", Size: 100}}
	parts := attachmentParts(atts)
	require := assert.New(t)
	require.Len(parts, 1)
	require.Equal(jmap.ID("b1"), parts[0].BlobID)
	require.Equal("a.pdf", parts[0].Name)
	require.Equal("attachment", parts[0].Disposition)
}
