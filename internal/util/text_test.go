package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMentions(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "single mention",
			content:  "hello @alice how are you",
			expected: []string{"alice"},
		},
		{
			name:     "trailing punctuation stripped",
			content:  "thanks @bob_producer! great work @alice.",
			expected: []string{"bob_producer", "alice"},
		},
		{
			name:     "duplicates collapse",
			content:  "@alice @alice @ALICE",
			expected: []string{"alice"},
		},
		{
			name:     "too short ignored",
			content:  "cc @ab and @x",
			expected: nil,
		},
		{
			name:     "bare at sign ignored",
			content:  "meet @ noon",
			expected: nil,
		},
		{
			name:     "no mentions",
			content:  "nothing to see here",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractMentions(tt.content))
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name     string
		tags     []string
		expected []string
	}{
		{
			name:     "lowercased and hash stripped",
			tags:     []string{"#GoLang", "Music"},
			expected: []string{"golang", "music"},
		},
		{
			name:     "dedupe preserves first appearance order",
			tags:     []string{"go", "music", "GO"},
			expected: []string{"go", "music"},
		},
		{
			name:     "empties dropped",
			tags:     []string{"", "  ", "#", "ok"},
			expected: []string{"ok"},
		},
		{
			name:     "nil in nil out",
			tags:     nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeTags(tt.tags))
		})
	}
}

func TestParsePagination(t *testing.T) {
	limit, offset := ParsePagination("", "")
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, offset = ParsePagination("50", "10")
	assert.Equal(t, 50, limit)
	assert.Equal(t, 10, offset)

	limit, _ = ParsePagination("1000", "0")
	assert.Equal(t, 100, limit)

	limit, offset = ParsePagination("-5", "-3")
	assert.Equal(t, 1, limit)
	assert.Equal(t, 0, offset)

	limit, offset = ParsePagination("abc", "xyz")
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)
}
