package identifiers

import "regexp"

var orcidPattern = regexp.MustCompile(`^(?:http|https)://orcid\.org/(.+)$`)

// ORCIDFromURL extracts the ORCID iD from an orcid.org URL. The scheme is
// required; bare iDs are not accepted. Returns false when the input does not
// match.
func ORCIDFromURL(raw string) (string, bool) {
	m := orcidPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}
