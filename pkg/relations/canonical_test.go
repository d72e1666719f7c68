package relations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize_ReferenceVocabulary(t *testing.T) {
	subj := "https://doi.org/10.5281/zenodo.1234567"
	obj := "https://doi.org/10.5281/zenodo.7654321"

	for _, relationType := range ReferenceRelationTypes {
		t.Run(relationType, func(t *testing.T) {
			c := Canonicalize(subj, obj, relationType)

			assert.Equal(t, "10.5281/ZENODO.1234567", c.SourceDOI)
			assert.Equal(t, "10.5281/ZENODO.7654321", c.TargetDOI)
			assert.Equal(t, BucketReferences, c.SourceRelationTypeID)
			assert.Equal(t, BucketCitations, c.TargetRelationTypeID)
		})
	}
}

func TestCanonicalize_CitationVocabularySwapsDOIs(t *testing.T) {
	subj := "https://doi.org/10.5281/zenodo.1234567"
	obj := "https://doi.org/10.5281/zenodo.7654321"

	for _, relationType := range CitationRelationTypes {
		t.Run(relationType, func(t *testing.T) {
			c := Canonicalize(subj, obj, relationType)

			assert.Equal(t, "10.5281/ZENODO.7654321", c.SourceDOI)
			assert.Equal(t, "10.5281/ZENODO.1234567", c.TargetDOI)
			assert.Equal(t, BucketReferences, c.SourceRelationTypeID)
			assert.Equal(t, BucketCitations, c.TargetRelationTypeID)
		})
	}
}

func TestCanonicalize_UsageRelations(t *testing.T) {
	tests := []struct {
		relationType string
		targetBucket string
	}{
		{"unique-dataset-investigations-regular", BucketViews},
		{"unique-dataset-requests-regular", BucketDownloads},
	}

	for _, tt := range tests {
		t.Run(tt.relationType, func(t *testing.T) {
			c := Canonicalize("https://example.org/reports/2023", "10.5281/zenodo.1234567", tt.relationType)

			assert.Empty(t, c.SourceDOI)
			assert.Empty(t, c.SourceRelationTypeID)
			assert.Equal(t, "10.5281/ZENODO.1234567", c.TargetDOI)
			assert.Equal(t, tt.targetBucket, c.TargetRelationTypeID)
		})
	}
}

func TestCanonicalize_VersionAndPartRelations(t *testing.T) {
	subj := "10.1234/a"
	obj := "10.1234/b"

	tests := []struct {
		relationType string
		sourceDOI    string
		targetDOI    string
		sourceBucket string
		targetBucket string
	}{
		{"has-version", "10.1234/A", "10.1234/B", BucketVersions, BucketVersionOf},
		{"is-version-of", "10.1234/B", "10.1234/A", BucketVersions, BucketVersionOf},
		{"has-part", "10.1234/A", "10.1234/B", BucketParts, BucketPartOf},
		{"is-part-of", "10.1234/B", "10.1234/A", BucketParts, BucketPartOf},
	}

	for _, tt := range tests {
		t.Run(tt.relationType, func(t *testing.T) {
			c := Canonicalize(subj, obj, tt.relationType)

			assert.Equal(t, tt.sourceDOI, c.SourceDOI)
			assert.Equal(t, tt.targetDOI, c.TargetDOI)
			assert.Equal(t, tt.sourceBucket, c.SourceRelationTypeID)
			assert.Equal(t, tt.targetBucket, c.TargetRelationTypeID)
		})
	}
}

func TestCanonicalize_UnknownRelationIsNoop(t *testing.T) {
	c := Canonicalize("10.1234/a", "10.1234/b", "is-reviewed-by")
	assert.Equal(t, Canonical{}, c)

	c = Canonicalize("10.1234/a", "10.1234/b", "")
	assert.Equal(t, Canonical{}, c)
}

func TestCanonicalize_EmptyIdentifiersAreNoop(t *testing.T) {
	for _, relationType := range append(append([]string{}, ReferenceRelationTypes...), "has-part", "unique-dataset-requests-regular") {
		assert.Equal(t, Canonical{}, Canonicalize("", "10.1234/b", relationType), relationType)
		assert.Equal(t, Canonical{}, Canonicalize("10.1234/a", "", relationType), relationType)
		assert.Equal(t, Canonical{}, Canonicalize("", "", relationType), relationType)
	}
}

func TestEligibleForCitationYear(t *testing.T) {
	assert.True(t, EligibleForCitationYear("cites"))
	assert.True(t, EligibleForCitationYear("is-cited-by"))
	assert.True(t, EligibleForCitationYear("is-version-of"))
	assert.True(t, EligibleForCitationYear("reviews"))
	assert.False(t, EligibleForCitationYear("unique-dataset-requests-regular"))
	assert.False(t, EligibleForCitationYear("is-reply-to"))
	assert.False(t, EligibleForCitationYear(""))
}
