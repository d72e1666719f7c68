// Package identifiers provides pure normalization helpers for scholarly
// identifiers (DOIs, ORCID iDs) in the shapes they arrive on the wire.
package identifiers

import (
	"regexp"
	"strings"
)

// doiPattern accepts a bare DOI, a doi: scheme, or a DOI resolver URL
// (doi.org, dx.doi.org, or the staging handle host) with either one or two
// slashes after the scheme. The capture group is the DOI itself.
var doiPattern = regexp.MustCompile(`^(?:(?:http|https):/(?:/)?(?:dx\.)?(?:doi\.org|handle\.test\.datacite\.org)/)?(?:doi:)?(10\.\d{4,5}/.+)$`)

// NormalizeDOI canonicalizes a raw DOI string or resolver URL into the
// https://doi.org/<doi> form with a lower-cased suffix. Returns false when
// the input does not match any accepted shape.
func NormalizeDOI(raw string) (string, bool) {
	m := doiPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}

	doi := strings.ToLower(strings.ReplaceAll(m[1], "​", ""))
	if doi == "" {
		return "", false
	}

	return "https://doi.org/" + doi, true
}

// UppercaseDOIFromURL extracts the DOI path component from any accepted DOI
// shape and upper-cases it. Used for the canonical source/target DOI fields.
func UppercaseDOIFromURL(raw string) (string, bool) {
	m := doiPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// DOIFromURL extracts the DOI path component from any accepted DOI shape and
// lower-cases it. Used for identifier aggregation in the indexed document.
func DOIFromURL(raw string) (string, bool) {
	m := doiPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}
