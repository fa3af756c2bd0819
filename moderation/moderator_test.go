package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions (e.g., "he" inside "The")
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dictionary := []string{"tribble", "klingon", "phaser"}
	mod, err := NewModerator(dictionary, replacementChar, log)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "The tribble is here",
			expected: "The ******* is here",
			words:    []string{"tribble"},
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "tribble tribble tribble",
			expected: "******* ******* *******",
			words:    []string{"tribble", "tribble", "tribble"},
		},
		{
			name: "Leet speak and internal punctuation",
			// p.h.4.s.€.r spans 11 original characters
			input:    "Drop the p.h.4.s.€.r now",
			expected: "Drop the *********** now",
			words:    []string{"phaser"},
		},
		{
			name:     "Uppercase and extreme noise",
			input:    "K-L-I-N-G-O-N at the T.R.I.B.B.L.E",
			expected: "************* at the *************",
			words:    []string{"klingon", "tribble"},
		},
		{
			name:     "Accents and special characters (UTF-8)",
			input:    "Un été avec un tribble",
			expected: "Un été avec un *******",
			words:    []string{"tribble"},
		},
		{
			name:     "Word adjacent to trailing punctuation",
			input:    "I love tribble!",
			expected: "I love *******!",
			words:    []string{"tribble"},
		},
		{
			name:     "Nothing to censor",
			input:    "TrekConnect is amazing",
			expected: "TrekConnect is amazing",
			words:    nil,
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
			words:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, words := mod.Censor(tt.input)
			req.Equal(tt.expected, content, "test=%s,", tt.name)
			req.Equal(tt.words, words, "expected=%s,words=%s", tt.expected, words)
		})
	}
}

func TestModerator_CornerCases(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given real noise and not Leet Speak associated
	dictionary := []string{"...", ",,,", "", "tribble"}

	mod, err := NewModerator(dictionary, replacementChar, log)
	req.NoError(err)

	// Then the sentence is censored
	input := "The tribble is safe"
	expected := "The ******* is safe"
	content, words := mod.Censor(input)
	req.Equal(expected, content)
	req.Equal([]string{"tribble"}, words)

	// Then real noise is uncensored
	input = "Hello ..."
	expected = "Hello ..."
	content, words = mod.Censor(input)
	req.Equal(expected, content)
	req.Nil(words)
}
