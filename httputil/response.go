package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"

	"github.com/xeptore/flaw/v8"

	"github.com/ryanlong1004/lucida-flow/errutil"
)

func readResponseBody(ctx context.Context, resp *http.Response) ([]byte, error) {
	respBody, err := io.ReadAll(resp.Body)
	if nil != err {
		switch {
		case errors.Is(err, io.EOF):
			return nil, io.EOF
		case errutil.IsContext(ctx):
			return nil, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			return nil, context.DeadlineExceeded
		default:
			flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
			return nil, flaw.From(fmt.Errorf("failed to read response body: %v", err)).Append(flawP)
		}
	}
	return respBody, nil
}

func ReadResponseBody(ctx context.Context, resp *http.Response) ([]byte, error) {
	respBody, err := readResponseBody(ctx, resp)
	if nil != err {
		if errors.Is(err, io.EOF) {
			return nil, flaw.From(errors.New("unexpected empty response body"))
		}
		return nil, err
	}
	return respBody, nil
}

func ReadOptionalResponseBody(ctx context.Context, resp *http.Response) ([]byte, error) {
	respBody, err := readResponseBody(ctx, resp)
	if nil != err && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return respBody, nil
}

var contentDispositionFilename = regexp.MustCompile(`filename="(.+?)"`)

// FilenameFromHeaders extracts the suggested filename from a
// Content-Disposition header, or returns empty when no usable name is
// present.
func FilenameFromHeaders(h http.Header) string {
	cd := h.Get("Content-Disposition")
	if cd == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(cd); nil == err {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	if m := contentDispositionFilename.FindStringSubmatch(cd); len(m) == 2 {
		return m[1]
	}
	return ""
}

// ExtForContentType maps an audio MIME type to a file extension, with a
// generic binary fallback.
func ExtForContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if nil != err {
		mediaType = contentType
	}
	switch mediaType {
	case "audio/flac", "audio/x-flac":
		return ".flac"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/aac", "audio/x-m4a":
		return ".m4a"
	default:
		return ".bin"
	}
}
