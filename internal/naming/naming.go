// Package naming converts identifiers between naming conventions.
package naming

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SnakeToCamel converts a snake_case identifier to CapitalizedCamelCase.
// Each word is title-cased, so "has_no_x" becomes "HasNoX"; empty words
// from repeated or edge underscores are dropped.
func SnakeToCamel(id string) string {
	title := cases.Title(language.Und)
	var b strings.Builder
	for _, word := range strings.Split(id, "_") {
		if word == "" {
			continue
		}
		b.WriteString(title.String(word))
	}
	return b.String()
}
