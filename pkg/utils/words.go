package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	lineComment  = regexp.MustCompile(`(?m)//.*$`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	setRule      = regexp.MustCompile(`(?m)^\s*#(set|show|import|let)\b.*$`)
	wordPattern  = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}'’-]*`)
)

// WordsPerMinute is the reading speed used by ReadingTime.
const WordsPerMinute = 200

// CountWords estimates the words of prose in a Typst source. Comments and
// #set, #show, #import and #let lines are not counted.
func CountWords(source string) int {
	if strings.TrimSpace(source) == "" {
		return 0
	}
	text := blockComment.ReplaceAllString(source, " ")
	text = lineComment.ReplaceAllString(text, "")
	text = setRule.ReplaceAllString(text, "")
	return len(wordPattern.FindAllString(text, -1))
}

// ReadingTime returns whole minutes to read words, at least 1 for any
// non-empty text.
func ReadingTime(words int) int {
	if words <= 0 {
		return 0
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// FormatWordCount formats the word count for display
func FormatWordCount(words int) string {
	switch {
	case words == 1:
		return "1 word"
	case words < 10000:
		return fmt.Sprintf("%d words", words)
	default:
		return fmt.Sprintf("%.1fK words", float64(words)/1000)
	}
}
