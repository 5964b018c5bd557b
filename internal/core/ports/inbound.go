package ports

import (
	"context"

	"github.com/mkorneev/scholarmatch/internal/core/domain"
)

// ResearcherAnalyzer runs the full analysis pipeline for one record. The
// boolean reports whether the record was claimed: false means another run
// already owns it (or it is not claimable) and nothing was done.
type ResearcherAnalyzer interface {
	AnalyzeByID(ctx context.Context, researcherID string) (bool, error)
}

// BatchCoordinator runs the pipeline over sets of records with bounded
// concurrency.
type BatchCoordinator interface {
	RunEligible(ctx context.Context, interestText string) (domain.BatchReport, error)
	RetryErrors(ctx context.Context) (domain.BatchReport, error)
}

// RecordDirectory is the inbound contract for researcher record management.
type RecordDirectory interface {
	CreateFromNames(ctx context.Context, entries []NewResearcher) ([]domain.Researcher, error)
	GetByID(ctx context.Context, id string) (*domain.Researcher, error)
	List(ctx context.Context, filter domain.ResearcherFilter) ([]domain.Researcher, error)
	LinkSource(ctx context.Context, id, sourceID string) error
	UnlinkSource(ctx context.Context, id string) error
	Submit(ctx context.Context, id string) error
	ToggleFavorite(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	ClearNonFavorites(ctx context.Context) (int, error)
	SaveInterestText(ctx context.Context, text string) error
	InterestText(ctx context.Context) (string, error)
}

// NewResearcher is one creation request entry. SourceID is optional; when
// present the record starts in pending instead of awaiting_source_id.
type NewResearcher struct {
	Name     string
	SourceID string
}
