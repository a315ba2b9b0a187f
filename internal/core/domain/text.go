package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// ExcerptLength is the rune budget for derived excerpts.
	ExcerptLength = 200

	// WordsPerMinute drives reading_time on snapshot documents.
	WordsPerMinute = 200
)

// CountWords counts whitespace separated tokens after stripping markdown markers.
func CountWords(content string) int {
	text := stripMarkdown(content)
	return len(strings.FieldsFunc(text, unicode.IsSpace))
}

// ReadingTime returns whole minutes, at least 1 for non-empty content.
func ReadingTime(wordCount int) int {
	if wordCount <= 0 {
		return 0
	}
	return (wordCount + WordsPerMinute - 1) / WordsPerMinute
}

// Excerpt returns the first ExcerptLength runes of the plain text, cut on a word boundary.
func Excerpt(content string) string {
	text := strings.Join(strings.Fields(stripMarkdown(content)), " ")
	if utf8.RuneCountInString(text) <= ExcerptLength {
		return text
	}
	runes := []rune(text)[:ExcerptLength]
	cut := string(runes)
	if i := strings.LastIndex(cut, " "); i > ExcerptLength/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

func stripMarkdown(markdown string) string {
	text := removeCodeFences(markdown)

	replacer := strings.NewReplacer(
		"`", "",
		"**", "",
		"__", "",
		"~~", "",
		"*", "",
		"#", "",
		">", "",
	)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		if len(line) > 2 && unicode.IsDigit(rune(line[0])) && line[1] == '.' {
			line = line[2:]
		}
		if line == "---" || line == "***" {
			line = ""
		}
		lines[i] = replacer.Replace(line)
	}
	return strings.Join(lines, "\n")
}

func removeCodeFences(text string) string {
	for {
		start := strings.Index(text, "```")
		if start == -1 {
			return text
		}
		end := strings.Index(text[start+3:], "```")
		if end == -1 {
			return text
		}
		text = text[:start] + text[start+end+6:]
	}
}
