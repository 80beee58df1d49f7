package s3

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoverKey(t *testing.T) {
	key, ok := CoverKey(7, "image/PNG; charset=binary")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(key, "covers/7/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	_, ok = CoverKey(7, "application/pdf")
	assert.False(t, ok)
}

func TestNew_NotConfigured(t *testing.T) {
	t.Setenv("AWS_BUCKET", "")
	_, err := New(t.Context())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPresign_Offline(t *testing.T) {
	t.Setenv("AWS_BUCKET", "covers")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ENDPOINT", "https://s3.example.test")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_S3_PATH_STYLE", "1")

	c, err := New(t.Context())
	require.NoError(t, err)

	put, exp, err := c.PresignUpload(t.Context(), "covers/1/a.png", "image/png")
	require.NoError(t, err)
	assert.Contains(t, put, "https://s3.example.test/covers/covers/1/a.png")
	assert.Contains(t, put, "X-Amz-Signature=")
	assert.False(t, exp.IsZero())

	get, err := c.PresignDownload(t.Context(), "covers/1/a.png")
	require.NoError(t, err)
	assert.Contains(t, get, "X-Amz-Expires=900")
}
