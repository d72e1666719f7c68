package relations

import "github.com/datacite/events/pkg/identifiers"

// Canonical is the direction-normalized projection of a raw relation. The
// source is the thing performing the action, the target the thing acted
// upon, regardless of which side of the raw relation reported the event.
// Empty fields mean the canonicalizer had nothing to say.
type Canonical struct {
	SourceDOI            string
	TargetDOI            string
	SourceRelationTypeID string
	TargetRelationTypeID string
}

// rule is one entry in the closed canonicalization table. Swapped rules read
// the source from the object side; sourceless rules (usage metrics) only set
// the target.
type rule struct {
	swapped      bool
	sourceless   bool
	sourceBucket string
	targetBucket string
}

var rules = map[string]rule{
	"cites":              {sourceBucket: BucketReferences, targetBucket: BucketCitations},
	"is-supplemented-by": {sourceBucket: BucketReferences, targetBucket: BucketCitations},
	"references":         {sourceBucket: BucketReferences, targetBucket: BucketCitations},

	"is-cited-by":      {swapped: true, sourceBucket: BucketReferences, targetBucket: BucketCitations},
	"is-supplement-to": {swapped: true, sourceBucket: BucketReferences, targetBucket: BucketCitations},
	"is-referenced-by": {swapped: true, sourceBucket: BucketReferences, targetBucket: BucketCitations},

	"unique-dataset-investigations-regular": {sourceless: true, targetBucket: BucketViews},
	"unique-dataset-requests-regular":       {sourceless: true, targetBucket: BucketDownloads},

	"has-version":   {sourceBucket: BucketVersions, targetBucket: BucketVersionOf},
	"is-version-of": {swapped: true, sourceBucket: BucketVersions, targetBucket: BucketVersionOf},

	"has-part":   {sourceBucket: BucketParts, targetBucket: BucketPartOf},
	"is-part-of": {swapped: true, sourceBucket: BucketParts, targetBucket: BucketPartOf},
}

// Canonicalize maps a raw relation onto the canonical source/target frame.
// Both subjID and objID must be non-empty; otherwise, and for any relation
// type outside the table, the zero Canonical is returned.
func Canonicalize(subjID, objID, relationTypeID string) Canonical {
	if subjID == "" || objID == "" {
		return Canonical{}
	}

	r, ok := rules[relationTypeID]
	if !ok {
		return Canonical{}
	}

	sourceID, targetID := subjID, objID
	if r.swapped {
		sourceID, targetID = objID, subjID
	}

	c := Canonical{
		TargetRelationTypeID: r.targetBucket,
	}
	c.TargetDOI, _ = identifiers.UppercaseDOIFromURL(targetID)

	if !r.sourceless {
		c.SourceDOI, _ = identifiers.UppercaseDOIFromURL(sourceID)
		c.SourceRelationTypeID = r.sourceBucket
	}

	return c
}
