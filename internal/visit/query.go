package visit

import (
	"strings"

	"github.com/raysh454/beaconcheck/internal/utils"
)

// ParseQuery decodes a query string into a flat map.
//
// The string is percent-decoded once as a whole and then split into '&'
// separated pairs, each decoded again as form data. Pairs without '=' or with
// an empty value are dropped and the last value wins for repeated keys.
func ParseQuery(qs string) map[string]string {
	params := map[string]string{}
	if qs == "" {
		return params
	}
	for _, pair := range strings.Split(utils.Unquote(qs, false), "&") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || v == "" {
			continue
		}
		params[utils.Unquote(k, true)] = utils.Unquote(v, true)
	}
	return params
}

// DecodeQuery parses the text after the last '?' of rawURL. A URL without
// '?' yields an empty, non-nil map.
func DecodeQuery(rawURL string) map[string]string {
	i := strings.LastIndexByte(rawURL, '?')
	if i < 0 {
		return map[string]string{}
	}
	return ParseQuery(rawURL[i+1:])
}

// Matches reports whether url contains any of the markers.
func Matches(url string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(url, m) {
			return true
		}
	}
	return false
}
