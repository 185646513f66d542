package language

import (
	"strings"
	"unicode"
)

// Capability describes how a language is tokenized and what a valid
// learning item in it must carry.
type Capability interface {
	// Code returns the ISO 639-1 code this capability serves.
	Code() string

	// Tokenize splits text into the smallest units containment is
	// checked against.
	Tokenize(text string) []string

	// Contains reports whether term occurs in text under this
	// language's containment strategy.
	Contains(text, term string) bool

	// RequiresRomanization reports whether items in this language must
	// carry a romanization.
	RequiresRomanization() bool
}

// charCapability checks containment at the character level. Used for
// scripts without word delimiters (zh, ja).
type charCapability struct {
	code string
}

func (c charCapability) Code() string { return c.code }

func (c charCapability) Tokenize(text string) []string {
	runes := []rune(text)
	tokens := make([]string, 0, len(runes))
	for _, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		tokens = append(tokens, string(r))
	}
	return tokens
}

func (c charCapability) Contains(text, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(text, term)
}

func (c charCapability) RequiresRomanization() bool { return true }

// wordCapability checks containment at word boundaries. Used for
// space-delimited scripts (en, fr, es, ...).
type wordCapability struct {
	code string
}

func (c wordCapability) Code() string { return c.code }

func (c wordCapability) Tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\'' && r != '-'
	})
}

// Contains matches the term as a whole-token sequence, case-insensitively.
// A multi-word term matches when its tokens appear consecutively.
func (c wordCapability) Contains(text, term string) bool {
	termTokens := c.Tokenize(strings.ToLower(term))
	if len(termTokens) == 0 {
		return false
	}
	textTokens := c.Tokenize(strings.ToLower(text))
	for i := 0; i+len(termTokens) <= len(textTokens); i++ {
		match := true
		for j, tt := range termTokens {
			if textTokens[i+j] != tt {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (c wordCapability) RequiresRomanization() bool { return false }

// ForCode returns the capability for a language code. Unknown codes get
// word-boundary semantics, the safer default for alphabetic scripts.
func ForCode(code string) Capability {
	switch strings.ToLower(code) {
	case "zh", "ja":
		return charCapability{code: strings.ToLower(code)}
	default:
		return wordCapability{code: strings.ToLower(code)}
	}
}
