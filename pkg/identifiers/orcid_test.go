package identifiers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestORCIDFromURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{
			name:  "invalid domain",
			input: "https://invalid.org/0000-0000-0000-0000",
			ok:    false,
		},
		{
			name:  "missing protocol",
			input: "orcid.org/0000-0000-0000-0000",
			ok:    false,
		},
		{
			name:     "https orcid url",
			input:    "https://orcid.org/0000-0000-0000-0000",
			expected: "0000-0000-0000-0000",
			ok:       true,
		},
		{
			name:     "http orcid url",
			input:    "http://orcid.org/0000-0000-0000-0000",
			expected: "0000-0000-0000-0000",
			ok:       true,
		},
		{
			name:  "empty string",
			input: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orcid, ok := ORCIDFromURL(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, orcid)
		})
	}
}
