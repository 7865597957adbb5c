package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// maxSanitizePasses bounds nested entity decoding. Every pass that changes
// the text makes it shorter, so real input settles in two or three.
const maxSanitizePasses = 8

var angleBrackets = strings.NewReplacer("<", "", ">", "")

// SanitizeText returns user text as plain text: tags are stripped, entities
// decoded and surrounding space trimmed. Entity-encoded markup is decoded and
// stripped again until nothing changes, so the result never renders as HTML.
// A '<' that no later '>' closes is kept as text.
func SanitizeText(s string) string {
	for range maxSanitizePasses {
		next := html.UnescapeString(strictPolicy.Sanitize(escapeUnclosed(s)))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	return strings.TrimSpace(angleBrackets.Replace(s))
}

// escapeUnclosed encodes every '<' after the last '>' so the tokenizer
// reads it as text instead of an unterminated tag.
func escapeUnclosed(s string) string {
	last := strings.LastIndexByte(s, '>')
	tail := s[last+1:]
	if !strings.Contains(tail, "<") {
		return s
	}
	return s[:last+1] + strings.ReplaceAll(tail, "<", "&lt;")
}
