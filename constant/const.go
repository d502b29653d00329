package constant

const (
	Version = "1.0.0"

	// UserAgent is sent with every outbound request so the remote service
	// sees a stable, browser-like client identity.
	UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	DefaultBaseURL = "https://lucida.to"
)
