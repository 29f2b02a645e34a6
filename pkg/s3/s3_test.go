package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/internhub_backend/config"
)

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example/messages/7/a%20b.pdf", PublicURL("https://cdn.example/", "/messages/7/a b.pdf"))
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(config.S3Config{})
	require.Error(t, err)
}

func TestURLUsesPublicBase(t *testing.T) {
	c, err := New(config.S3Config{
		Bucket:          "attachments",
		Region:          "us-east-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		PublicBaseURL:   "https://files.example",
	})
	require.NoError(t, err)

	u, err := c.URL(t.Context(), "messages/1/x.png")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example/messages/1/x.png", u)
}
