package model

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9]+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// foldDiacritics decomposes s and drops combining marks ("Jürgen" -> "Jurgen").
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// CanonicalName normalizes a person name or a free-text key for lookups:
// diacritics folded, lowercased, every non-alphanumeric run collapsed to one space.
func CanonicalName(value string) string {
	s := strings.ToLower(strings.TrimSpace(foldDiacritics(value)))
	s = nonAlnum.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// FoldText normalizes free text for phrase matching: diacritics folded,
// lowercased, "ß" spelled "ss", whitespace collapsed.
func FoldText(value string) string {
	s := strings.ToLower(foldDiacritics(value))
	s = strings.ReplaceAll(s, "ß", "ss")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
