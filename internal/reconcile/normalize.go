package reconcile

import "strings"

// punctuation stripped before title comparison. Covers the straight
// and curly apostrophes plus the characters that vary between catalog
// records and shelf reads.
var titleCleaner = strings.NewReplacer(
	"*", "",
	"?", "",
	".", "",
	",", "",
	"!", "",
	"'", "",
	"-", "",
	"’", "",
)

// NormalizeTitle lowercases a title, strips comparison-hostile
// punctuation, and collapses runs of whitespace to single spaces.
// The result is stable under repeated application.
func NormalizeTitle(title string) string {
	cleaned := titleCleaner.Replace(strings.ToLower(title))
	return strings.Join(strings.Fields(cleaned), " ")
}
