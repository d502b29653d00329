package lucida

import (
	"errors"
)

var (
	// ErrRateLimited reports a server-imposed limit that persisted through
	// the retry budget.
	ErrRateLimited = errors.New("rate limited by server")

	// ErrTransient reports a network or upstream failure that persisted
	// through the retry budget.
	ErrTransient = errors.New("transient upstream failure")

	// ErrUnknownService reports a search against a service outside the
	// supported catalog.
	ErrUnknownService = errors.New("unknown streaming service")

	// ErrMalformed reports a response expected to carry records that
	// neither extraction strategy could parse, which indicates either a
	// site-format change or a genuinely bad response.
	ErrMalformed = errors.New("response contained no extractable records")

	// ErrNoDownloadLink reports a track page exposing no usable direct
	// resource locator.
	ErrNoDownloadLink = errors.New("could not find download link")
)
