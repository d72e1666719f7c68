package identifiers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{
			name:  "invalid host",
			input: "https://invalid.org/zenodo.invalid",
			ok:    false,
		},
		{
			name:     "https doi url",
			input:    "https://doi.org/10.5281/zenodo.1234567",
			expected: "https://doi.org/10.5281/zenodo.1234567",
			ok:       true,
		},
		{
			name:     "http doi url",
			input:    "http://doi.org/10.5281/zenodo.1234567",
			expected: "https://doi.org/10.5281/zenodo.1234567",
			ok:       true,
		},
		{
			name:     "dx resolver url",
			input:    "https://dx.doi.org/10.5281/zenodo.1234567",
			expected: "https://doi.org/10.5281/zenodo.1234567",
			ok:       true,
		},
		{
			name:     "staging handle url",
			input:    "https://handle.test.datacite.org/10.5281/zenodo.1234567",
			expected: "https://doi.org/10.5281/zenodo.1234567",
			ok:       true,
		},
		{
			name:     "single slash after scheme",
			input:    "https:/doi.org/10.5281/zenodo.1234567",
			expected: "https://doi.org/10.5281/zenodo.1234567",
			ok:       true,
		},
		{
			name:     "doi scheme",
			input:    "doi:10.5281/zenodo.1234567",
			expected: "https://doi.org/10.5281/zenodo.1234567",
			ok:       true,
		},
		{
			name:     "bare doi",
			input:    "10.5281/zenodo.1234567",
			expected: "https://doi.org/10.5281/zenodo.1234567",
			ok:       true,
		},
		{
			name:     "uppercase suffix is lowered",
			input:    "10.5281/ZENODO.1234567",
			expected: "https://doi.org/10.5281/zenodo.1234567",
			ok:       true,
		},
		{
			name:     "zero width space stripped",
			input:    "10.5281/zen​odo.1234567",
			expected: "https://doi.org/10.5281/zenodo.1234567",
			ok:       true,
		},
		{
			name:  "three digit prefix rejected",
			input: "10.528/zenodo.1234567",
			ok:    false,
		},
		{
			name:  "prefix without suffix rejected",
			input: "10.5281/",
			ok:    false,
		},
		{
			name:  "empty string",
			input: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doi, ok := NormalizeDOI(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, doi)
		})
	}
}

func TestNormalizeDOI_Idempotent(t *testing.T) {
	inputs := []string{
		"10.5281/zenodo.1234567",
		"doi:10.5281/zenodo.1234567",
		"https://doi.org/10.5281/zenodo.1234567",
		"http://doi.org/10.5281/zenodo.1234567",
		"https://dx.doi.org/10.5281/zenodo.1234567",
		"https://handle.test.datacite.org/10.5281/zenodo.1234567",
		"https:/doi.org/10.5281/zenodo.1234567",
	}

	for _, input := range inputs {
		once, ok := NormalizeDOI(input)
		require.True(t, ok, input)

		twice, ok := NormalizeDOI(once)
		require.True(t, ok, once)
		assert.Equal(t, once, twice)
	}
}

func TestUppercaseDOIFromURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{
			name:  "invalid host",
			input: "https://invalid.org/zenodo.invalid",
			ok:    false,
		},
		{
			name:     "https doi url",
			input:    "https://doi.org/10.5281/zenodo.1234567",
			expected: "10.5281/ZENODO.1234567",
			ok:       true,
		},
		{
			name:     "dx resolver url",
			input:    "https://dx.doi.org/10.5281/zenodo.1234567",
			expected: "10.5281/ZENODO.1234567",
			ok:       true,
		},
		{
			name:     "staging handle url",
			input:    "https://handle.test.datacite.org/10.5281/zenodo.1234567",
			expected: "10.5281/ZENODO.1234567",
			ok:       true,
		},
		{
			name:     "doi scheme",
			input:    "doi:10.5281/zenodo.1234567",
			expected: "10.5281/ZENODO.1234567",
			ok:       true,
		},
		{
			name:     "bare doi",
			input:    "10.5281/zenodo.1234567",
			expected: "10.5281/ZENODO.1234567",
			ok:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doi, ok := UppercaseDOIFromURL(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, doi)
		})
	}
}

func TestDOIFromURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{
			name:  "invalid host",
			input: "https://invalid.org/zenodo.invalid",
			ok:    false,
		},
		{
			name:     "https doi url",
			input:    "https://doi.org/10.5281/ZENODO.1234567",
			expected: "10.5281/zenodo.1234567",
			ok:       true,
		},
		{
			name:     "bare doi",
			input:    "10.5281/zenodo.1234567",
			expected: "10.5281/zenodo.1234567",
			ok:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doi, ok := DOIFromURL(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, doi)
		})
	}
}
