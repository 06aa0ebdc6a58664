// Package normalize produces the comparison key used for name uniqueness and prefix search.
//
// The key is the input lowercased without locale rules, decomposed, stripped of combining
// marks and recomposed. The tilde of ñ survives: "Cómputo" and "computo" share a key, "Año" and "Ano" do not.
// Whitespace and punctuation are left alone.
package normalize

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const combiningTilde = '̃'

// Casers keep state, so each call borrows its own
var lowerPool = sync.Pool{
	New: func() any {
		c := cases.Lower(language.Und)
		return &c
	},
}

// Normalize returns the normalized key of s. It is deterministic, idempotent and never fails;
// invalid UTF-8 bytes are dropped.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")

	lc := lowerPool.Get().(*cases.Caser)
	s = lc.String(s)
	lc.Reset()
	lowerPool.Put(lc)

	if isASCII(s) {
		return s
	}
	return norm.NFC.String(stripMarks(norm.NFD.String(s)))
}

// stripMarks drops nonspacing marks from decomposed text, except a tilde sitting on an n
func stripMarks(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var base rune
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			if r == combiningTilde && base == 'n' {
				b.WriteRune(r)
			}
			continue
		}
		base = r
		b.WriteRune(r)
	}
	return b.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
