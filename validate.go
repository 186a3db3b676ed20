package ticketeta

import (
	"strings"
	"unicode/utf8"
)

// MinDescriptionLength is the minimum trimmed description length in characters.
const MinDescriptionLength = 20

// Validate rejects descriptions that cannot produce a meaningful search.
// It has no side effects and runs before any backend or cache call.
func Validate(description string) error {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		return &ValidationError{Kind: ValidationEmpty, Minimum: MinDescriptionLength}
	}
	if n := utf8.RuneCountInString(trimmed); n < MinDescriptionLength {
		return &ValidationError{Kind: ValidationTooShort, Length: n, Minimum: MinDescriptionLength}
	}
	return nil
}

// normalizeDescription trims, collapses internal whitespace and lowercases.
func normalizeDescription(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
