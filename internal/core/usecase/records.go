package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkorneev/scholarmatch/internal/core/domain"
	"github.com/mkorneev/scholarmatch/internal/core/ports"
)

// RecordsUseCase manages researcher records around the analysis pipeline:
// creation, source linking, submission, favorites and cleanup.
type RecordsUseCase struct {
	repo     ports.ResearcherRepository
	settings ports.SettingsRepository
	queue    ports.AnalysisQueue
}

func NewRecordsUseCase(
	repo ports.ResearcherRepository,
	settings ports.SettingsRepository,
	queue ports.AnalysisQueue,
) *RecordsUseCase {
	return &RecordsUseCase{
		repo:     repo,
		settings: settings,
		queue:    queue,
	}
}

// CreateFromNames creates one record per entry. Records start in
// awaiting_source_id, or directly in pending when a source id is supplied.
func (uc *RecordsUseCase) CreateFromNames(ctx context.Context, entries []ports.NewResearcher) ([]domain.Researcher, error) {
	created := make([]domain.Researcher, 0, len(entries))
	now := time.Now().UTC()

	for _, entry := range entries {
		name := strings.Join(strings.Fields(entry.Name), " ")
		if name == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "create researcher", errors.New("empty name"))
		}

		status := domain.StatusAwaitingSource
		sourceID := strings.TrimSpace(entry.SourceID)
		if sourceID != "" {
			status = domain.StatusPending
		}

		rec := domain.Researcher{
			ID:        uuid.NewString(),
			Name:      name,
			Status:    status,
			SourceID:  sourceID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := uc.repo.Create(ctx, &rec); err != nil {
			return nil, fmt.Errorf("create researcher %q: %w", name, err)
		}
		created = append(created, rec)
	}
	return created, nil
}

func (uc *RecordsUseCase) GetByID(ctx context.Context, id string) (*domain.Researcher, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *RecordsUseCase) List(ctx context.Context, filter domain.ResearcherFilter) ([]domain.Researcher, error) {
	return uc.repo.List(ctx, filter)
}

func (uc *RecordsUseCase) LinkSource(ctx context.Context, id, sourceID string) error {
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "link source", errors.New("empty source id"))
	}
	if err := uc.repo.LinkSource(ctx, id, sourceID); err != nil {
		return fmt.Errorf("link source: %w", err)
	}
	return nil
}

func (uc *RecordsUseCase) UnlinkSource(ctx context.Context, id string) error {
	if err := uc.repo.UnlinkSource(ctx, id); err != nil {
		return fmt.Errorf("unlink source: %w", err)
	}
	return nil
}

// Submit queues one record for analysis. Submitting a record that is
// already analyzing is a no-op; the worker-side claim would reject the
// duplicate anyway, so we avoid even publishing it.
func (uc *RecordsUseCase) Submit(ctx context.Context, id string) error {
	rec, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch researcher: %w", err)
	}
	if rec.SourceID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "submit for analysis", errors.New("researcher has no source id"))
	}
	if rec.Status == domain.StatusAnalyzing {
		return nil
	}

	if err := uc.queue.PublishAnalysisRequested(ctx, rec.ID); err != nil {
		return fmt.Errorf("publish analysis request: %w", err)
	}
	return nil
}

func (uc *RecordsUseCase) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	rec, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("fetch researcher: %w", err)
	}
	next := !rec.IsFavorite
	if err := uc.repo.SetFavorite(ctx, id, next); err != nil {
		return false, fmt.Errorf("set favorite: %w", err)
	}
	return next, nil
}

func (uc *RecordsUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete researcher: %w", err)
	}
	return nil
}

// ClearNonFavorites removes every record that is neither favorited nor
// mid-analysis. Favorites survive bulk clears unconditionally.
func (uc *RecordsUseCase) ClearNonFavorites(ctx context.Context) (int, error) {
	deleted, err := uc.repo.ClearNonFavorites(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear researchers: %w", err)
	}
	return deleted, nil
}

func (uc *RecordsUseCase) SaveInterestText(ctx context.Context, text string) error {
	if err := uc.settings.SaveInterestText(ctx, text); err != nil {
		return fmt.Errorf("save interest text: %w", err)
	}
	return nil
}

func (uc *RecordsUseCase) InterestText(ctx context.Context) (string, error) {
	text, err := uc.settings.InterestText(ctx)
	if err != nil {
		return "", fmt.Errorf("load interest text: %w", err)
	}
	return text, nil
}
