package giveaway

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// CleanName prepares a curated name for display:
// trims, collapses internal whitespace and applies Unicode NFC so
// "é" typed as e + combining accent renders the same as the precomposed form.
func CleanName(s string) string {
	s = strings.TrimSpace(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return norm.NFC.String(s)
}
