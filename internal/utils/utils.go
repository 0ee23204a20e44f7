package utils

import (
	"net"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/idna"
)

// ErrEmptyURL is returned for blank URLs.
var ErrEmptyURL = errors.New("empty url")

// hostProfile converts internationalised host names without the STD3 and
// hyphen checks, so hosts such as my_host.test or r3---sn-abc.example that
// browsers load are accepted.
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.StrictDomainName(false),
	idna.CheckHyphens(false),
)

// NormalizeTarget prepares a CSV supplied URL for navigation: surrounding
// whitespace is dropped, the scheme and host are lower-cased and
// internationalised host names are converted to their ASCII form. Path,
// query and fragment are left untouched. URLs that cannot be parsed or whose
// host cannot be converted are returned trimmed but otherwise as given and
// left to the browser.
//
// Examples:
//
//	" HTTPS://Example.com/a?b=1 " -> "https://example.com/a?b=1"
//	"https://bücher.de/"          -> "https://xn--bcher-kva.de/"
//	"http://[::1]:8080/x"         -> "http://[::1]:8080/x"
//	"https://a.test/p%zz"         -> "https://a.test/p%zz"
func NormalizeTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		// about:blank, data: URLs and the like go through unchanged.
		return raw, nil
	}

	host, port := u.Hostname(), u.Port()
	if net.ParseIP(host) == nil {
		ascii, err := hostProfile.ToASCII(host)
		if err != nil {
			return raw, nil
		}
		host = ascii
	}
	u.Scheme = strings.ToLower(u.Scheme)
	switch {
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		u.Host = "[" + host + "]"
	default:
		u.Host = host
	}
	return u.String(), nil
}

// Unquote percent-decodes s leniently: malformed escapes are kept verbatim
// instead of failing. When plusAsSpace is set '+' decodes to a space, as in
// form encoded query strings.
func Unquote(s string, plusAsSpace bool) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			buf = append(buf, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
		case c == '+' && plusAsSpace:
			buf = append(buf, ' ')
		default:
			buf = append(buf, c)
		}
	}
	return replaceInvalid(buf)
}

// replaceInvalid decodes b as UTF-8, substituting U+FFFD for every invalid
// byte. A truncated multi-byte sequence counts as one replacement.
func replaceInvalid(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b) + 8)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
			size = invalidPrefix(b)
		} else {
			sb.Write(b[:size])
		}
		b = b[size:]
	}
	return sb.String()
}

// invalidPrefix returns the length of the ill-formed sequence at the start of
// b: the lead byte plus any continuation bytes that could still have
// completed it.
func invalidPrefix(b []byte) int {
	var need int
	lo, hi := byte(0x80), byte(0xBF)
	switch c := b[0]; {
	case c >= 0xC2 && c <= 0xDF:
		need = 1
	case c == 0xE0:
		need, lo = 2, 0xA0
	case c == 0xED:
		need, hi = 2, 0x9F
	case c >= 0xE1 && c <= 0xEF:
		need = 2
	case c == 0xF0:
		need, lo = 3, 0x90
	case c == 0xF4:
		need, hi = 3, 0x8F
	case c >= 0xF1 && c <= 0xF3:
		need = 3
	default:
		return 1
	}
	n := 1
	for ; n <= need && n < len(b); n++ {
		if b[n] < lo || b[n] > hi {
			break
		}
		lo, hi = 0x80, 0xBF
	}
	return n
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
