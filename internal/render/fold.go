package render

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiReplacer handles characters that do not decompose into an ASCII base
// letter plus combining marks.
var asciiReplacer = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", ",", "‛", "'",
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
	"«", "<<", "»", ">>", "‹", "<", "›", ">",
	"‐", "-", "‑", "-", "‒", "-", "–", "-", "—", "--", "―", "--",
	"…", "...", "•", "*", "·", ".",
	"\u00a0", " ", "\u2002", " ", "\u2003", " ", "\u2009", " ", "\u200b", "",
	"ß", "ss", "æ", "ae", "Æ", "AE", "œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O", "ł", "l", "Ł", "L", "đ", "d", "Đ", "D",
	"þ", "th", "Þ", "Th", "ð", "d", "Ð", "D",
	"©", "(c)", "®", "(R)", "™", "(TM)",
)

// ToASCII folds s to 7-bit ASCII. Typographic punctuation is replaced by
// its plain equivalent, accents are stripped, and anything left over
// becomes '?'.
func ToASCII(s string) string {
	s = asciiReplacer.Replace(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return '?'
		}
		return r
	}, s)
}
