package errutil

import (
	"fmt"
	"net/http"

	"github.com/xeptore/flaw/v8"
)

// ResponseFlawPayload captures the interesting parts of a classified
// response for flaw records.
func ResponseFlawPayload(statusCode int, header http.Header) flaw.P {
	headers := make(flaw.P, len(header))
	for k, v := range header {
		headers[k] = v
	}
	return flaw.P{
		"status":      http.StatusText(statusCode),
		"status_code": statusCode,
		"headers":     headers,
	}
}

func UnknownError(err error) string {
	return fmt.Sprintf("unknown error of type %T received: %v", err, err)
}
