package rag

import (
	"slices"
	"testing"
)

func TestParseSuggestions(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "dash bullets",
			raw:  "- What about X?\n- What about Y?\n- What about Z?",
			want: []string{"What about X?", "What about Y?", "What about Z?"},
		},
		{
			name: "numbered list",
			raw:  "1. First question?\n2. Second question?",
			want: []string{"First question?", "Second question?"},
		},
		{
			name: "mixed markers and blank lines",
			raw:  "• One?\n\n* Two?\n   - Three?",
			want: []string{"One?", "Two?", "Three?"},
		},
		{
			name: "truncates to three",
			raw:  "- a?\n- b?\n- c?\n- d?\n- e?",
			want: []string{"a?", "b?", "c?"},
		},
		{
			name: "plain lines without markers",
			raw:  "How does it work?\nWhere is it used?",
			want: []string{"How does it work?", "Where is it used?"},
		},
		{
			name: "empty input",
			raw:  "",
			want: nil,
		},
		{
			name: "whitespace only",
			raw:  "   \n\t\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSuggestions(tt.raw)
			if !slices.Equal(got, tt.want) {
				t.Errorf("parseSuggestions(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
