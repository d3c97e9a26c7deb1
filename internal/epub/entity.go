package epub

import (
	"strings"

	"golang.org/x/net/html"
)

// DecodeEntities replaces HTML character references ("&amp;", "&#233;",
// "&eacute;") in s with the characters they stand for.
//
// It never fails. An unknown reference is kept as written, and a '&' with no
// closing ';' is copied through along with whatever follows it. A second '&'
// before the ';' ends the pending reference as literal text and starts a new
// one, so "a & b &amp; c" becomes "a & b & c".
func DecodeEntities(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}

	var out, name strings.Builder
	inEntity := false

	for _, r := range s {
		if !inEntity {
			if r == '&' {
				inEntity = true
				name.Reset()
				continue
			}
			out.WriteRune(r)
			continue
		}

		switch r {
		case ';':
			out.WriteString(translateEntity(name.String()))
			inEntity = false
		case '&':
			out.WriteByte('&')
			out.WriteString(name.String())
			name.Reset()
		default:
			name.WriteRune(r)
		}
	}

	if inEntity {
		out.WriteByte('&')
		out.WriteString(name.String())
	}
	return out.String()
}

// translateEntity returns the text for the reference "&name;", or the
// reference itself when name is not a known entity.
func translateEntity(name string) string {
	ref := "&" + name + ";"
	if name == "" {
		return ref
	}

	decoded := html.UnescapeString(ref)
	if decoded == ref {
		return ref
	}
	// UnescapeString falls back to the longest legacy prefix ("&ampxyz;"
	// becomes "&xyz;"); that leaves the trailing ';' behind.
	if decoded != ";" && strings.HasSuffix(decoded, ";") {
		return ref
	}
	return decoded
}
