package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		slug  string
		valid bool
	}{
		{"intro", true},
		{"getting-started", true},
		{"v2-release-notes", true},
		{"abc", true},
		{"Intro", true}, // folded before matching
		{"ab", false},
		{strings.Repeat("a", 50), true},
		{strings.Repeat("a", 51), false},
		{"-intro", false},
		{"intro-", false},
		{"a--b", false},
		{"has space", false},
		{"under_score", false},
		{"ünïcode", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			err := ValidateSlug(tt.slug)
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"Getting Started", "getting-started"},
		{"  Hello,   World!  ", "hello-world"},
		{"API v2 -- Overview", "api-v2-overview"},
		{"snake_case_title", "snake-case-title"},
		{"Café au lait", "caf-au-lait"},
		{"!!!", ""},
		{strings.Repeat("word ", 20), strings.TrimRight(strings.Repeat("word-", 10), "-")},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.expected {
				t.Errorf("Slugify(%q) = %q, expected %q", tt.title, got, tt.expected)
			}
		})
	}
}

func TestSlugScopes(t *testing.T) {
	if SpaceScope("s1") != "space:s1" {
		t.Errorf("unexpected space scope %q", SpaceScope("s1"))
	}
	if SpaceScope("s1") == ScopeSpaces {
		t.Error("document scope must differ from the space slug scope")
	}
}
