package ports

import (
	"context"
	"io"

	"github.com/mkorneev/scholarmatch/internal/core/domain"
)

// ResearcherRepository persists researcher records and is the only component
// allowed to move their status. Transitions are whole-record, conditional
// updates so concurrent readers always see a consistent snapshot.
type ResearcherRepository interface {
	Create(ctx context.Context, rec *domain.Researcher) error
	GetByID(ctx context.Context, id string) (*domain.Researcher, error)
	List(ctx context.Context, filter domain.ResearcherFilter) ([]domain.Researcher, error)

	// LinkSource attaches a source id, clears prior analysis fields and
	// moves the record to pending. UnlinkSource resets identically back to
	// awaiting_source_id.
	LinkSource(ctx context.Context, id, sourceID string) error
	UnlinkSource(ctx context.Context, id string) error

	// ClaimForAnalysis atomically moves pending/error/completed -> analyzing;
	// no status is terminal for re-submission. Returns false without error
	// when the record is already analyzing or has no source id; this is the
	// duplicate-submission guard.
	ClaimForAnalysis(ctx context.Context, id string) (bool, error)

	// SaveOutcome commits a successful pipeline run: analyzing -> completed
	// with summary, evidence and the match verdict written together.
	SaveOutcome(ctx context.Context, id string, outcome domain.AnalysisOutcome) error

	// MarkError moves analyzing -> error and records a human-readable message.
	MarkError(ctx context.Context, id, message string) error

	SetFavorite(ctx context.Context, id string, favorite bool) error
	Delete(ctx context.Context, id string) error

	// ClearNonFavorites deletes every record that is neither favorited nor
	// currently analyzing. Returns the number of deleted records.
	ClearNonFavorites(ctx context.Context) (int, error)
}

// SettingsRepository persists the raw interest text between sessions.
type SettingsRepository interface {
	SaveInterestText(ctx context.Context, text string) error
	InterestText(ctx context.Context) (string, error)
}

// PublicationSource fetches a researcher's publication list by source id.
type PublicationSource interface {
	Fetch(ctx context.Context, sourceID string) ([]domain.Article, error)
}

// EvidenceAnalyzer judges a publication list against the user's interests.
type EvidenceAnalyzer interface {
	Analyze(ctx context.Context, name string, articles []domain.Article, rawInterestText string) (domain.Evidence, error)
}

// AnalysisQueue moves analysis requests from the api to the worker.
type AnalysisQueue interface {
	PublishAnalysisRequested(ctx context.Context, researcherID string) error
	SubscribeAnalysisRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// ResponseArchive keeps raw analyzer responses for audit. Best effort;
// archive failures never fail an analysis.
type ResponseArchive interface {
	Save(ctx context.Context, key string, data io.Reader) error
}

// AnalysisMeter records analysis observations. Implementations must be safe
// for concurrent use.
type AnalysisMeter interface {
	ObserveMatchTier(tier domain.MatchType)
}
