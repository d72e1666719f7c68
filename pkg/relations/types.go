// Package relations defines the relation-type vocabularies used by citation
// event sources and the canonicalization of their directionality.
package relations

// Canonical bucket labels. Every raw relation type that the canonicalizer
// understands maps onto one of these direction-normalized labels.
const (
	BucketReferences = "references"
	BucketCitations  = "citations"
	BucketViews      = "views"
	BucketDownloads  = "downloads"
	BucketVersions   = "versions"
	BucketVersionOf  = "version_of"
	BucketParts      = "parts"
	BucketPartOf     = "part_of"
)

// ReferenceRelationTypes are relation types where the subject performs the
// citing action.
var ReferenceRelationTypes = []string{
	"cites",
	"is-supplemented-by",
	"references",
}

// CitationRelationTypes are the inverse-direction relation types, grouped
// together as citations.
var CitationRelationTypes = []string{
	"is-cited-by",
	"is-supplement-to",
	"is-referenced-by",
}

// PartRelationTypes describe structural containment between works.
var PartRelationTypes = []string{
	"is-part-of",
	"has-part",
}

// NewRelationTypes were added after the original vocabulary was frozen.
var NewRelationTypes = []string{
	"is-reply-to",
	"is-translation-of",
	"is-published-in",
}

// RelationsRelationTypes is the extended set of structural relation types
// (versions, parts, reviews, etc.) eligible for citation-year computation
// alongside the reference/citation types.
var RelationsRelationTypes = []string{
	"compiles",
	"is-compiled-by",
	"documents",
	"is-documented-by",
	"has-metadata",
	"is-metadata-for",
	"is-derived-from",
	"is-source-of",
	"reviews",
	"is-reviewed-by",
	"requires",
	"is-required-by",
	"continues",
	"is-coutinued-by",
	"has-version",
	"is-version-of",
	"has-part",
	"is-part-of",
	"is-variant-from-of",
	"is-original-form-of",
	"is-identical-to",
	"obsoletes",
	"is-obsolete-by",
	"is-new-version-of",
	"is-previous-version-of",
	"describes",
	"is-described-by",
}

// RelatedSourceIDs are the source ids that report related-identifier events.
var RelatedSourceIDs = []string{
	"datacite-related",
	"datacite-crossref",
	"crossref",
}

// includedSet is the reference ∪ citation vocabulary.
var includedSet = toSet(ReferenceRelationTypes, CitationRelationTypes)

// citationYearSet is the vocabulary eligible for citation-year computation.
var citationYearSet = toSet(ReferenceRelationTypes, CitationRelationTypes, RelationsRelationTypes)

func toSet(lists ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, v := range list {
			set[v] = struct{}{}
		}
	}
	return set
}

// IsIncluded reports whether the relation type is in the reference or
// citation vocabulary.
func IsIncluded(relationTypeID string) bool {
	_, ok := includedSet[relationTypeID]
	return ok
}

// EligibleForCitationYear reports whether a citation year should be computed
// for the relation type.
func EligibleForCitationYear(relationTypeID string) bool {
	_, ok := citationYearSet[relationTypeID]
	return ok
}
