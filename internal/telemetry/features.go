package telemetry

import (
	"strings"
	"unicode/utf8"
)

// TextFeatures holds basic local features of a message.
type TextFeatures struct {
	Bytes int `json:"bytes"`
	Runes int `json:"runes"`
	Words int `json:"words"`
	Lines int `json:"lines"`
}

// CountFeatures computes byte, rune, word, and line counts for s. Lines is 0
// for the empty string.
func CountFeatures(s string) TextFeatures {
	f := TextFeatures{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
	}
	if s != "" {
		f.Lines = 1 + strings.Count(s, "\n")
	}
	return f
}
