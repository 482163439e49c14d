// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex validates a single segment of an address, e.g. `http_client`.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	if name == "-" || name == "_" {
		return false
	}
	return segmentRegex.MatchString(name)
}

// Parse creates an Address by parsing its canonical `kind.type.name` form.
func Parse(rawID string) (Address, error) {
	if rawID == "" {
		return Address{}, fmt.Errorf("identifier cannot be empty")
	}

	segments := strings.Split(rawID, ".")
	if len(segments) != 3 {
		return Address{}, fmt.Errorf("identifier %q must have the form kind.type.name", rawID)
	}

	kind := Kind(segments[0])
	if kind != KindStep && kind != KindResource {
		return Address{}, fmt.Errorf("identifier %q has unknown kind %q", rawID, segments[0])
	}

	for _, segment := range segments[1:] {
		if !isValidSegmentName(segment) {
			return Address{}, fmt.Errorf("invalid segment %q in identifier %q", segment, rawID)
		}
	}

	return Address{Kind: kind, Type: segments[1], Name: segments[2]}, nil
}

// ParseRef parses the short `type.name` form used by depends_on lists. The
// kind is supplied by the caller, which resolves the reference against the
// declared steps first and resources second.
func ParseRef(ref string) (string, string, error) {
	segments := strings.Split(ref, ".")
	if len(segments) != 2 {
		return "", "", fmt.Errorf("reference %q must have the form type.name", ref)
	}
	for _, segment := range segments {
		if !isValidSegmentName(segment) {
			return "", "", fmt.Errorf("invalid segment %q in reference %q", segment, ref)
		}
	}
	return segments[0], segments[1], nil
}
