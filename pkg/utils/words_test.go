package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountWords(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int
	}{
		{"empty", "", 0},
		{"whitespace", " \n\t", 0},
		{"heading and prose", "= Introduction\nHello, world!", 3},
		{"set rules skipped", "#set page(margin: 2cm)\n#show heading: it => it\nOne two", 2},
		{"comments skipped", "one // two three\n/* four\nfive */ six", 2},
		{"contractions and hyphens", "don't over-think it", 3},
		{"unicode", "Grüße aus Köln", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountWords(tt.source))
		})
	}
}

func TestReadingTime(t *testing.T) {
	assert.Equal(t, 0, ReadingTime(0))
	assert.Equal(t, 1, ReadingTime(1))
	assert.Equal(t, 1, ReadingTime(200))
	assert.Equal(t, 2, ReadingTime(201))
}

func TestFormatWordCount(t *testing.T) {
	assert.Equal(t, "1 word", FormatWordCount(1))
	assert.Equal(t, "0 words", FormatWordCount(0))
	assert.Equal(t, "9999 words", FormatWordCount(9999))
	assert.Equal(t, "12.3K words", FormatWordCount(12345))
}
