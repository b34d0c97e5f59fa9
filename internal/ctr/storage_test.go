package ctr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/gzip", contentTypeFor("releases/hello/hello-release.tar.gz"))
	assert.Equal(t, "application/zstd", contentTypeFor("releases/hello/hello-release.tar.zst"))
	assert.Equal(t, "text/plain", contentTypeFor("releases/hello/hello-release.b3"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("releases/hello/hello.3dsx"))
}

func TestNewStorageClientListsMissingKeys(t *testing.T) {
	_, err := newStorageClient(&Config{Values: map[string]string{
		"PUBLISH_BUCKET": "homebrew-releases",
	}})
	require.Error(t, err)

	// All absent keys are named, sorted, in one line.
	assert.Contains(t, err.Error(),
		"PUBLISH_ACCESS_KEY_ID, PUBLISH_ENDPOINT, PUBLISH_SECRET_ACCESS_KEY")
	assert.NotContains(t, err.Error(), "PUBLISH_BUCKET")
}
