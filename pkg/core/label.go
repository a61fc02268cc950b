package core

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Humanize turns a snake_case or kebab-case key into a Title Case label.
// Leading underscores are dropped: "_hero_image-alt" -> "Hero Image Alt".
func Humanize(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
