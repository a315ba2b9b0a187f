package domain

import (
	"regexp"
	"strings"
)

const (
	MinSlugLength = 3
	MaxSlugLength = 50
)

var (
	slugPattern    = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	slugStrip      = regexp.MustCompile(`[^a-z0-9\s_-]`)
	slugWhitespace = regexp.MustCompile(`[\s_]+`)
	slugDashes     = regexp.MustCompile(`-+`)
)

// SlugScope names the namespace a slug must be unique in.
type SlugScope string

const (
	// ScopePublication is the global namespace of public publication slugs.
	ScopePublication SlugScope = "publication"

	// ScopeSpaces is the global namespace of space slugs.
	ScopeSpaces SlugScope = "space"
)

// SpaceScope is the namespace of live document slugs in one space.
func SpaceScope(spaceID string) SlugScope {
	return SlugScope("space:" + spaceID)
}

// NormalizeSlug folds a slug for case-insensitive comparison.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// ValidateSlug checks the folded slug against the slug grammar and length bounds.
func ValidateSlug(slug string) error {
	s := NormalizeSlug(slug)
	if len(s) < MinSlugLength || len(s) > MaxSlugLength {
		return NewValidationError("slug", "must be between 3 and 50 characters")
	}
	if !slugPattern.MatchString(s) {
		return NewValidationError("slug", "may only contain lowercase letters, digits and single hyphens")
	}
	return nil
}

// Slugify derives a slug candidate from a title.
// Returns "" when the title has no ASCII letters or digits to keep.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugWhitespace.ReplaceAllString(strings.TrimSpace(s), "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], "-")
	}
	return s
}
