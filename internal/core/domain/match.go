package domain

import (
	"math"
	"strings"
)

type MatchType string

const (
	MatchNone    MatchType = "none"
	MatchLow     MatchType = "low"
	MatchPartial MatchType = "partial"
	MatchHigh    MatchType = "high"
	MatchPerfect MatchType = "perfect"
)

// ClassifyMatch maps the matched subset of the user's interests to a match
// tier. Pure and deterministic.
//
// Let T be the size of the interest set and M the size of the
// case-insensitive intersection of matched with that set (entries the user
// never typed do not count). Rules, in order:
//
//	T = 0           -> none, no match
//	M = T           -> perfect
//	M >= ceil(0.8T) -> high   (requires M >= 2)
//	M >= 3          -> partial
//	M = 2           -> low
//	M <= 1          -> none, no match
//
// A single keyword overlap never counts as a match unless it covers the
// whole set.
func ClassifyMatch(interests InterestSet, matched []string) (MatchType, bool) {
	total := interests.Len()
	if total == 0 {
		return MatchNone, false
	}

	seen := make(map[string]struct{}, len(matched))
	for _, item := range matched {
		canonical, ok := interests.Resolve(item)
		if !ok {
			continue
		}
		seen[strings.ToLower(canonical)] = struct{}{}
	}
	count := len(seen)

	switch {
	case count == total:
		return MatchPerfect, true
	case count >= 2:
		highBar := int(math.Ceil(0.8 * float64(total)))
		if count >= highBar {
			return MatchHigh, true
		}
		if count >= 3 {
			return MatchPartial, true
		}
		return MatchLow, true
	default:
		return MatchNone, false
	}
}
