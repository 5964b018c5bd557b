package domain

import "time"

type ResearcherStatus string

const (
	StatusAwaitingSource ResearcherStatus = "awaiting_source_id"
	StatusPending        ResearcherStatus = "pending"
	StatusAnalyzing      ResearcherStatus = "analyzing"
	StatusCompleted      ResearcherStatus = "completed"
	StatusError          ResearcherStatus = "error"
)

// Article describes one publication, either from the profile fetch or as a
// supporting reference inside an evidence item.
type Article struct {
	Title         string `json:"title"`
	Year          int    `json:"year,omitempty"`
	CitationCount int    `json:"citation_count,omitempty"`
}

// KeywordEvidence pairs a research keyword with the analyzer's reasoning and
// the publications backing it.
type KeywordEvidence struct {
	Keyword              string    `json:"keyword"`
	Reasoning            string    `json:"reasoning"`
	SupportingReferences []Article `json:"supporting_references,omitempty"`
}

type Researcher struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Status           ResearcherStatus  `json:"status"`
	SourceID         string            `json:"source_id,omitempty"`
	Summary          string            `json:"summary,omitempty"`
	KeywordEvidence  []KeywordEvidence `json:"keyword_evidence,omitempty"`
	IsMatch          bool              `json:"is_match"`
	MatchType        MatchType         `json:"match_type,omitempty"`
	MatchedInterests []string          `json:"matched_interests,omitempty"`
	IsFavorite       bool              `json:"is_favorite"`
	ErrorMessage     string            `json:"error_message,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Evidence is the raw analyzer verdict before interest normalization and
// match classification.
type Evidence struct {
	Summary             string
	KeywordEvidence     []KeywordEvidence
	RawMatchedInterests []string
	Raw                 []byte
}

// AnalysisOutcome is the complete result of one pipeline run. The match
// fields are always populated together.
type AnalysisOutcome struct {
	Summary          string            `json:"summary"`
	KeywordEvidence  []KeywordEvidence `json:"keyword_evidence"`
	MatchType        MatchType         `json:"match_type"`
	IsMatch          bool              `json:"is_match"`
	MatchedInterests []string          `json:"matched_interests"`
}

// ResetAnalysis clears every field derived from a previous pipeline run.
// Linking or unlinking a source id invalidates old results.
func (r *Researcher) ResetAnalysis() {
	r.Summary = ""
	r.KeywordEvidence = nil
	r.IsMatch = false
	r.MatchType = ""
	r.MatchedInterests = nil
	r.ErrorMessage = ""
}

// EligibleForAnalysis reports whether a batch run may claim this record.
func (r *Researcher) EligibleForAnalysis() bool {
	return r.SourceID != "" && r.Status != StatusCompleted && r.Status != StatusAnalyzing
}

// EligibleForRetry reports whether an error-retry run may claim this record.
// Favorite status never affects retry eligibility.
func (r *Researcher) EligibleForRetry() bool {
	return r.SourceID != "" && r.Status == StatusError
}

type ResearcherFilter struct {
	Status        ResearcherStatus
	FavoritesOnly bool
}

// BatchReport aggregates one batch run. Skipped counts records another run
// claimed between listing and execution.
type BatchReport struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}
