package uuidutil

import "github.com/google/uuid"

// supportedVersions are probed in order; the first match wins.
var supportedVersions = []int{1, 3, 4, 5}

// Version reports which UUID version the candidate string conforms to.
// A candidate matches only when it parses, renders back to the exact same
// canonical form, and carries the probed version bits. The round trip guards
// against the loose formats the parser accepts (braces, urn prefix, missing
// dashes, uppercase hex).
func Version(id string) (int, bool) {
	for _, version := range supportedVersions {
		if matchesVersion(id, version) {
			return version, true
		}
	}
	return 0, false
}

// IsValid reports whether id is a canonical UUID of any supported version.
func IsValid(id string) bool {
	if id == "" {
		return false
	}
	_, ok := Version(id)
	return ok
}

// IsValidVersion reports whether id is a canonical UUID of the given version.
func IsValidVersion(id string, version int) bool {
	if id == "" {
		return false
	}
	return matchesVersion(id, version)
}

func matchesVersion(id string, version int) bool {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	if parsed.String() != id {
		return false
	}
	if parsed.Variant() != uuid.RFC4122 {
		return false
	}
	return int(parsed.Version()) == version
}
