package lucida

import (
	"slices"
	"strings"
)

// Services supported by the remote site, as documented upstream.
var services = []string{
	"tidal",
	"qobuz",
	"deezer",
	"soundcloud",
	"amazon_music",
	"yandex_music",
	"spotify",
}

// Aliases used here map to shorter upstream identifiers.
var serviceNameMap = map[string]string{
	"amazon_music": "amazon",
	"yandex_music": "yandex",
}

// Some services reject the default storefront; use per-service countries.
var serviceCountryMap = map[string]string{
	"qobuz":  "GB",
	"deezer": "FR",
}

const defaultCountry = "US"

func Services() []string {
	return slices.Clone(services)
}

func normalizeService(service string) (apiService, country string, ok bool) {
	service = strings.ToLower(strings.TrimSpace(service))
	if !slices.Contains(services, service) {
		return "", "", false
	}

	apiService = service
	if mapped, found := serviceNameMap[service]; found {
		apiService = mapped
	}

	country = defaultCountry
	if mapped, found := serviceCountryMap[apiService]; found {
		country = mapped
	}

	return apiService, country, true
}
