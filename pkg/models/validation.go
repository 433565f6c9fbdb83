package models

import (
	"errors"
	"strings"
	"unicode"
)

// Document title errors
var (
	ErrEmptyTitle        = errors.New("please enter a title")
	ErrTitleTooLong      = errors.New("title cannot exceed 120 characters")
	ErrInvalidTitleChars = errors.New("title contains control characters")
)

// MaxTitleLength is the longest accepted document title, in runes.
const MaxTitleLength = 120

// NormalizeTitle trims surrounding whitespace and collapses inner runs of
// whitespace to a single space.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}

// ValidateTitle checks a document title before it is sent to a store.
func ValidateTitle(title string) error {
	normalized := NormalizeTitle(title)
	if normalized == "" {
		return ErrEmptyTitle
	}
	if len([]rune(normalized)) > MaxTitleLength {
		return ErrTitleTooLong
	}
	for _, r := range title {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return ErrInvalidTitleChars
		}
	}
	return nil
}
