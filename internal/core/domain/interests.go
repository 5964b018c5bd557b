package domain

import "strings"

// InterestSet is the user's research interests parsed from free-form text.
// Membership is case-insensitive; the first-seen original casing is kept for
// display. Recomputed on every classification, never persisted on its own.
type InterestSet struct {
	canonical []string
	index     map[string]string
}

// ParseInterests splits raw text on commas and semicolons, trims each piece,
// drops empties and case-insensitive duplicates.
func ParseInterests(raw string) InterestSet {
	set := InterestSet{index: make(map[string]string)}
	for _, piece := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		key := strings.ToLower(piece)
		if _, ok := set.index[key]; ok {
			continue
		}
		set.index[key] = piece
		set.canonical = append(set.canonical, piece)
	}
	return set
}

func (s InterestSet) Len() int {
	return len(s.canonical)
}

// Canonical returns the interests in input order with original casing.
func (s InterestSet) Canonical() []string {
	out := make([]string, len(s.canonical))
	copy(out, s.canonical)
	return out
}

// Resolve maps an arbitrarily-cased interest back to its canonical form.
func (s InterestSet) Resolve(raw string) (string, bool) {
	canonical, ok := s.index[strings.ToLower(strings.TrimSpace(raw))]
	return canonical, ok
}

// Intersect normalizes the analyzer's raw matched-interest strings against
// this set: trim, case-insensitive lookup, dedup. Anything the user never
// typed is discarded, which guards against the analyzer inventing interests.
// Canonical casing is recovered from the set.
func (s InterestSet) Intersect(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		canonical, ok := s.Resolve(item)
		if !ok {
			continue
		}
		key := strings.ToLower(canonical)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, canonical)
	}
	return out
}
