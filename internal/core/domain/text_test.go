package domain

import (
	"strings"
	"testing"
)

func TestCountWords(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected int
	}{
		{"empty", "", 0},
		{"plain", "one two three", 3},
		{"heading", "# Title here", 2},
		{"list", "- first\n- second\n1. third", 3},
		{"emphasis", "**bold** and _it_", 3},
		{"code fence", "before\n```go\nfunc main() {}\n```\nafter", 2},
		{"rule", "above\n---\nbelow", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountWords(tt.content); got != tt.expected {
				t.Errorf("expected %d words, got %d", tt.expected, got)
			}
		})
	}
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		words    int
		expected int
	}{
		{0, 0},
		{1, 1},
		{200, 1},
		{201, 2},
		{1000, 5},
	}

	for _, tt := range tests {
		if got := ReadingTime(tt.words); got != tt.expected {
			t.Errorf("ReadingTime(%d) = %d, expected %d", tt.words, got, tt.expected)
		}
	}
}

func TestExcerpt(t *testing.T) {
	short := "A short paragraph."
	if got := Excerpt(short); got != short {
		t.Errorf("expected %q, got %q", short, got)
	}

	long := strings.Repeat("lorem ipsum ", 40)
	got := Excerpt(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis, got %q", got)
	}
	if len([]rune(got)) > ExcerptLength+3 {
		t.Errorf("excerpt too long: %d runes", len([]rune(got)))
	}
	if strings.HasSuffix(strings.TrimSuffix(got, "..."), " ") {
		t.Error("excerpt should end on a word")
	}
}
