package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mkorneev/scholarmatch/internal/core/domain"
	"github.com/mkorneev/scholarmatch/internal/core/ports"
)

// BatchUseCase runs the analysis pipeline over sets of records with a
// bounded pull-based pool. Completion order across records is not
// guaranteed; each record's outcome is committed independently as it
// resolves, and one record's failure never halts the rest of the queue.
type BatchUseCase struct {
	repo        ports.ResearcherRepository
	settings    ports.SettingsRepository
	analyzer    ports.ResearcherAnalyzer
	concurrency int
}

func NewBatchUseCase(
	repo ports.ResearcherRepository,
	settings ports.SettingsRepository,
	analyzer ports.ResearcherAnalyzer,
	concurrency int,
) *BatchUseCase {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchUseCase{
		repo:        repo,
		settings:    settings,
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// RunEligible analyzes every record that has a source id and is neither
// completed nor already analyzing. A non-empty interestText is persisted
// first so the pipeline (and later batches) use it.
func (uc *BatchUseCase) RunEligible(ctx context.Context, interestText string) (domain.BatchReport, error) {
	if strings.TrimSpace(interestText) != "" {
		if err := uc.settings.SaveInterestText(ctx, interestText); err != nil {
			return domain.BatchReport{}, fmt.Errorf("save interest text: %w", err)
		}
	}

	records, err := uc.repo.List(ctx, domain.ResearcherFilter{})
	if err != nil {
		return domain.BatchReport{}, fmt.Errorf("list researchers: %w", err)
	}

	eligible := make([]domain.Researcher, 0, len(records))
	for _, rec := range records {
		if rec.EligibleForAnalysis() {
			eligible = append(eligible, rec)
		}
	}
	return uc.run(ctx, eligible), nil
}

// RetryErrors re-runs every record stuck in error that still has a source
// id. Favorites are always eligible.
func (uc *BatchUseCase) RetryErrors(ctx context.Context) (domain.BatchReport, error) {
	records, err := uc.repo.List(ctx, domain.ResearcherFilter{Status: domain.StatusError})
	if err != nil {
		return domain.BatchReport{}, fmt.Errorf("list error researchers: %w", err)
	}

	eligible := make([]domain.Researcher, 0, len(records))
	for _, rec := range records {
		if rec.EligibleForRetry() {
			eligible = append(eligible, rec)
		}
	}
	return uc.run(ctx, eligible), nil
}

func (uc *BatchUseCase) run(ctx context.Context, records []domain.Researcher) domain.BatchReport {
	report := domain.BatchReport{Requested: len(records)}
	if len(records) == 0 {
		return report
	}

	var mu sync.Mutex
	RunPool(ctx, len(records), uc.concurrency, func(workCtx context.Context, index int) error {
		rec := records[index]
		claimed, err := uc.analyzer.AnalyzeByID(workCtx, rec.ID)

		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			report.Failed++
			slog.Warn("batch_analysis_failed", "researcher_id", rec.ID, "error", err)
		case !claimed:
			report.Skipped++
		default:
			report.Succeeded++
		}
		return err
	})

	slog.Info("batch_completed",
		"requested", report.Requested,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)
	return report
}
