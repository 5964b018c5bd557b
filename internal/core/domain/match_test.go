package domain

import (
	"reflect"
	"strings"
	"testing"
)

func interestsOf(items ...string) InterestSet {
	return ParseInterests(strings.Join(items, ", "))
}

func TestClassifyMatchPerfectWhenAllInterestsCovered(t *testing.T) {
	cases := []struct {
		name      string
		interests []string
		matched   []string
	}{
		{"single interest", []string{"Robotics"}, []string{"robotics"}},
		{"five interests", []string{"A", "B", "C", "D", "E"}, []string{"a", "b", "c", "d", "e"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tier, isMatch := ClassifyMatch(interestsOf(tc.interests...), tc.matched)
			if tier != MatchPerfect || !isMatch {
				t.Fatalf("expected perfect match, got tier=%s isMatch=%v", tier, isMatch)
			}
		})
	}
}

func TestClassifyMatchTierBoundariesForFiveInterests(t *testing.T) {
	interests := interestsOf("A", "B", "C", "D", "E")

	cases := []struct {
		matched  []string
		wantTier MatchType
		wantHit  bool
	}{
		{[]string{"a", "b", "c", "d"}, MatchHigh, true}, // ceil(0.8*5) = 4
		{[]string{"a", "b", "c"}, MatchPartial, true},
		{[]string{"a", "b"}, MatchLow, true},
		{[]string{"a"}, MatchNone, false},
		{nil, MatchNone, false},
	}
	for _, tc := range cases {
		tier, isMatch := ClassifyMatch(interests, tc.matched)
		if tier != tc.wantTier || isMatch != tc.wantHit {
			t.Fatalf("matched=%v: expected %s/%v, got %s/%v",
				tc.matched, tc.wantTier, tc.wantHit, tier, isMatch)
		}
	}
}

func TestClassifyMatchEmptyInterestSetNeverMatches(t *testing.T) {
	tier, isMatch := ClassifyMatch(ParseInterests(""), []string{"robotics", "nlp"})
	if tier != MatchNone || isMatch {
		t.Fatalf("expected none/false for empty interest set, got %s/%v", tier, isMatch)
	}
}

func TestClassifyMatchDiscardsUnknownMatchedInterests(t *testing.T) {
	interests := interestsOf("Robotics", "NLP")
	tier, isMatch := ClassifyMatch(interests, []string{"robotics", "quantum computing"})
	if tier != MatchNone || isMatch {
		t.Fatalf("hallucinated interest must not count: got %s/%v", tier, isMatch)
	}
}

func TestClassifyMatchCountsDuplicatesOnce(t *testing.T) {
	interests := interestsOf("Robotics", "NLP", "Vision")
	tier, isMatch := ClassifyMatch(interests, []string{"robotics", "Robotics", " ROBOTICS "})
	if tier != MatchNone || isMatch {
		t.Fatalf("duplicate matches must count once: got %s/%v", tier, isMatch)
	}
}

func TestClassifyMatchIsDeterministic(t *testing.T) {
	interests := interestsOf("A", "B", "C", "D", "E")
	matched := []string{"a", "c", "e"}
	firstTier, firstHit := ClassifyMatch(interests, matched)
	for i := 0; i < 10; i++ {
		tier, hit := ClassifyMatch(interests, matched)
		if tier != firstTier || hit != firstHit {
			t.Fatalf("run %d diverged: %s/%v vs %s/%v", i, tier, hit, firstTier, firstHit)
		}
	}
}

func TestClassifyMatchEndToEndScenario(t *testing.T) {
	interests := ParseInterests("Medical Imaging, Robotics, NLP")
	matched := interests.Intersect([]string{"medical imaging", "robotics"})

	want := []string{"Medical Imaging", "Robotics"}
	if !reflect.DeepEqual(matched, want) {
		t.Fatalf("expected canonical casing %v, got %v", want, matched)
	}

	tier, isMatch := ClassifyMatch(interests, matched)
	if tier != MatchLow || !isMatch {
		t.Fatalf("T=3 M=2 should be low/true, got %s/%v", tier, isMatch)
	}
}
