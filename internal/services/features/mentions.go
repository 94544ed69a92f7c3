package features

import "strings"

// CountMentions counts keyword occurrences across texts, case-insensitive.
// Each text contributes at most one hit per keyword.
func CountMentions(texts, keywords []string) int {
	count := 0
	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, kw := range keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(kw)) {
				count++
			}
		}
	}
	return count
}
