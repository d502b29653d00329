package browserfetch

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestFilenameFromURL(t *testing.T) {
	t.Parallel()
	assert.Exactly(t, "track.flac", filenameFromURL("https://lucida.to/dl/track.flac"))
	assert.Exactly(t, "track.flac", filenameFromURL("https://lucida.to/dl/track.flac/"))
	assert.Exactly(t, "", filenameFromURL("https://lucida.to/"))
	assert.Exactly(t, "", filenameFromURL("://bad"))
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()
	f := New(Config{}, zerolog.Nop())
	assert.Exactly(t, 30*time.Second, f.cfg.NavTimeout)
}

func TestFetchBinaryRequiresStart(t *testing.T) {
	t.Parallel()
	f := New(Config{}, zerolog.Nop())
	_, _, _, err := f.FetchBinary(t.Context(), "https://lucida.to/dl/track.flac")
	assert.Error(t, err)
}
