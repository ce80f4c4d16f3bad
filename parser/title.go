package parser

import "strings"

// MaxNameLength is the number of characters kept before a name is cut.
const MaxNameLength = 80

const ellipsis = "..."

// CleanTitle drops storefront suffixes such as "| AliExpress" or
// "- Shopee Brasil" and truncates the rest.
func CleanTitle(title string) string {
	name, _, _ := strings.Cut(title, "|")
	name, _, _ = strings.Cut(name, "-")
	return Truncate(strings.TrimSpace(name), MaxNameLength)
}

// Truncate cuts s to max characters and appends an ellipsis when it was longer.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + ellipsis
}
