package httputil_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryanlong1004/lucida-flow/httputil"
)

func TestFilenameFromHeaders(t *testing.T) {
	t.Parallel()

	t.Run("WellFormed", func(t *testing.T) {
		t.Parallel()
		h := http.Header{"Content-Disposition": []string{`attachment; filename="song.flac"`}}
		assert.Exactly(t, "song.flac", httputil.FilenameFromHeaders(h))
	})

	t.Run("Missing", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, httputil.FilenameFromHeaders(http.Header{}))
	})

	t.Run("NoFilenameParam", func(t *testing.T) {
		t.Parallel()
		h := http.Header{"Content-Disposition": []string{"inline"}}
		assert.Empty(t, httputil.FilenameFromHeaders(h))
	})
}

func TestExtForContentType(t *testing.T) {
	t.Parallel()
	assert.Exactly(t, ".flac", httputil.ExtForContentType("audio/flac"))
	assert.Exactly(t, ".mp3", httputil.ExtForContentType("audio/mpeg; charset=binary"))
	assert.Exactly(t, ".m4a", httputil.ExtForContentType("audio/mp4"))
	assert.Exactly(t, ".bin", httputil.ExtForContentType("application/octet-stream"))
}
