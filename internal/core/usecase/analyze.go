package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkorneev/scholarmatch/internal/core/domain"
	"github.com/mkorneev/scholarmatch/internal/core/ports"
	"github.com/mkorneev/scholarmatch/internal/infrastructure/resilience"
)

// AnalyzeResearcherUseCase runs the per-record analysis pipeline: claim the
// record, fetch its publications, have the analyzer judge them against the
// user's interests, classify the match, and commit the outcome in one
// transition. The whole pipeline is retried as a unit on transient failures;
// no individual step retries on its own.
type AnalyzeResearcherUseCase struct {
	repo     ports.ResearcherRepository
	settings ports.SettingsRepository
	source   ports.PublicationSource
	analyzer ports.EvidenceAnalyzer
	executor *resilience.Executor
	archive  ports.ResponseArchive
	meter    ports.AnalysisMeter
}

func NewAnalyzeResearcherUseCase(
	repo ports.ResearcherRepository,
	settings ports.SettingsRepository,
	source ports.PublicationSource,
	analyzer ports.EvidenceAnalyzer,
	executor *resilience.Executor,
	archive ports.ResponseArchive,
	meter ports.AnalysisMeter,
) *AnalyzeResearcherUseCase {
	return &AnalyzeResearcherUseCase{
		repo:     repo,
		settings: settings,
		source:   source,
		analyzer: analyzer,
		executor: executor,
		archive:  archive,
		meter:    meter,
	}
}

// AnalyzeByID claims the record and runs the pipeline. A record that cannot
// be claimed (already analyzing or missing a source id) is a no-op; the
// claim is the single guard against concurrent runs for the same id.
// Completed records are claimable, so a re-submission re-analyzes them.
func (uc *AnalyzeResearcherUseCase) AnalyzeByID(ctx context.Context, researcherID string) (bool, error) {
	rec, err := uc.repo.GetByID(ctx, researcherID)
	if err != nil {
		return false, fmt.Errorf("fetch researcher by id: %w", err)
	}

	claimed, err := uc.repo.ClaimForAnalysis(ctx, rec.ID)
	if err != nil {
		return false, fmt.Errorf("claim researcher for analysis: %w", err)
	}
	if !claimed {
		slog.Info("analysis_skipped", "researcher_id", rec.ID, "status", rec.Status)
		return false, nil
	}

	interestText, err := uc.settings.InterestText(ctx)
	if err != nil {
		return true, uc.fail(ctx, rec.ID, fmt.Errorf("load interest text: %w", err))
	}
	interests := domain.ParseInterests(interestText)

	var outcome domain.AnalysisOutcome
	var raw []byte
	run := func(callCtx context.Context) error {
		var runErr error
		outcome, raw, runErr = uc.pipeline(callCtx, rec, interests, interestText)
		return runErr
	}

	if err := uc.executor.Execute(ctx, "researcher.analyze", run, classifyAnalysisError); err != nil {
		return true, uc.fail(ctx, rec.ID, err)
	}

	if err := uc.repo.SaveOutcome(ctx, rec.ID, outcome); err != nil {
		return true, fmt.Errorf("save analysis outcome: %w", err)
	}
	if uc.meter != nil {
		uc.meter.ObserveMatchTier(outcome.MatchType)
	}
	uc.archiveRaw(ctx, rec.ID, raw)
	return true, nil
}

// pipeline is atomic from the caller's point of view: nothing is committed
// to the record until every step has succeeded.
func (uc *AnalyzeResearcherUseCase) pipeline(
	ctx context.Context,
	rec *domain.Researcher,
	interests domain.InterestSet,
	interestText string,
) (domain.AnalysisOutcome, []byte, error) {
	articles, err := uc.source.Fetch(ctx, rec.SourceID)
	if err != nil {
		return domain.AnalysisOutcome{}, nil, fmt.Errorf("fetch publications: %w", err)
	}
	if len(articles) == 0 {
		// An empty profile means a wrong or stale source id, not a valid
		// analysis result.
		return domain.AnalysisOutcome{}, nil, domain.WrapError(
			domain.ErrEmptyProfile,
			"fetch publications",
			fmt.Errorf("source id %q returned zero articles", rec.SourceID),
		)
	}

	evidence, err := uc.analyzer.Analyze(ctx, rec.Name, articles, interestText)
	if err != nil {
		return domain.AnalysisOutcome{}, nil, fmt.Errorf("analyze evidence: %w", err)
	}
	if evidence.Summary == "" {
		return domain.AnalysisOutcome{}, nil, domain.WrapError(
			domain.ErrMalformedResponse,
			"analyze evidence",
			errors.New("analyzer returned empty summary"),
		)
	}

	matchedInterests := interests.Intersect(evidence.RawMatchedInterests)
	matchType, isMatch := domain.ClassifyMatch(interests, matchedInterests)

	outcome := domain.AnalysisOutcome{
		Summary:          evidence.Summary,
		KeywordEvidence:  evidence.KeywordEvidence,
		MatchType:        matchType,
		IsMatch:          isMatch,
		MatchedInterests: matchedInterests,
	}
	return outcome, evidence.Raw, nil
}

func (uc *AnalyzeResearcherUseCase) fail(ctx context.Context, researcherID string, pipelineErr error) error {
	if markErr := uc.repo.MarkError(ctx, researcherID, pipelineErr.Error()); markErr != nil {
		return fmt.Errorf("%w; mark error status: %v", pipelineErr, markErr)
	}
	return pipelineErr
}

func (uc *AnalyzeResearcherUseCase) archiveRaw(ctx context.Context, researcherID string, raw []byte) {
	if uc.archive == nil || len(raw) == 0 {
		return
	}
	key := fmt.Sprintf("%s/%s.json", researcherID, time.Now().UTC().Format("20060102T150405"))
	if err := uc.archive.Save(ctx, key, bytes.NewReader(raw)); err != nil {
		slog.Warn("archive_analyzer_response", "researcher_id", researcherID, "error", err)
	}
}

// classifyAnalysisError decides whether a failed pipeline run is worth
// re-running from the top. Only transport-level and rate-limit failures are;
// empty profiles, malformed responses and configuration errors surface to
// the user unchanged.
func classifyAnalysisError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if domain.IsKind(err, domain.ErrEmptyProfile) ||
		domain.IsKind(err, domain.ErrMalformedResponse) ||
		domain.IsKind(err, domain.ErrConfiguration) ||
		domain.IsKind(err, domain.ErrInvalidInput) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if domain.IsKind(err, domain.ErrTransport) || domain.IsKind(err, domain.ErrRateLimit) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	if resilience.RetriableMessage(err.Error()) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
