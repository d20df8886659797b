package bar

import (
	"slices"
	"strings"
	"unicode"
)

const (
	flagRU = "🇷🇺"
	flagUS = "🇺🇸"
)

// LayoutFlag returns a flag for a keymap name such as "Russian" or
// "English (US)". Unknown keymaps are returned unchanged.
//
// Keymaps are matched by whole words, so "French" is not taken for "en".
func LayoutFlag(keymap string) string {
	lower := strings.ToLower(keymap)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	has := func(candidates ...string) bool {
		return slices.ContainsFunc(words, func(word string) bool {
			return slices.Contains(candidates, word)
		})
	}

	switch {
	case has("ru", "russian") || strings.Contains(lower, "русск"):
		return flagRU
	case has("us", "en", "english"):
		return flagUS
	default:
		return keymap
	}
}
