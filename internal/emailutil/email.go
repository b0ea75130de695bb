package emailutil

import (
	"regexp"
	"strings"
)

// separators recognized in raw input: comma and newline.
var separators = regexp.MustCompile(`[,\n]`)

// validAddr is a deliberately lenient syntactic check: one non-whitespace,
// non-@ run, an @, another run, a dot, another run. Not RFC 5322. We would
// rather hand a questionable address to the invite API than reject a real
// one at the door.
var validAddr = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ParseList turns raw free-text input into an ordered list of candidate
// addresses: split on commas and newlines, trim whitespace from each piece,
// drop empties, deduplicate keeping the first occurrence. Comparison is
// case-sensitive exact match.
func ParseList(raw string) []string {
	seen := make(map[string]struct{})
	var list []string
	for _, piece := range separators.Split(raw, -1) {
		entry := strings.TrimSpace(piece)
		if entry == "" {
			continue
		}
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		list = append(list, entry)
	}
	return list
}

// IsValid reports whether addr passes the syntactic check.
func IsValid(addr string) bool {
	return validAddr.MatchString(addr)
}

// Partition splits list into valid and invalid subsets. Together they are a
// complete, disjoint partition of the input, each preserving relative order.
func Partition(list []string) (valid, invalid []string) {
	for _, addr := range list {
		if IsValid(addr) {
			valid = append(valid, addr)
		} else {
			invalid = append(invalid, addr)
		}
	}
	return valid, invalid
}

// Remove returns a new list with every exact occurrence of target dropped.
func Remove(list []string, target string) []string {
	result := make([]string, 0, len(list))
	for _, addr := range list {
		if addr != target {
			result = append(result, addr)
		}
	}
	return result
}

// Rejoin renders a list back to comma-separated text, used to repopulate the
// raw input field after a removal.
func Rejoin(list []string) string {
	return strings.Join(list, ", ")
}
