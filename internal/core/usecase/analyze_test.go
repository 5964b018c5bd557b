package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mkorneev/scholarmatch/internal/core/domain"
	"github.com/mkorneev/scholarmatch/internal/infrastructure/resilience"
)

func testExecutor(maxRetries int) *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		MaxRetries:     maxRetries,
		BaseDelay:      1 * time.Millisecond,
		BreakerEnabled: false,
	})
}

func pendingResearcher(id string) *domain.Researcher {
	return &domain.Researcher{
		ID:       id,
		Name:     "Ada Lovelace",
		Status:   domain.StatusPending,
		SourceID: "A123",
	}
}

func TestAnalyzeByIDSuccessCommitsOutcomeAtomically(t *testing.T) {
	repo := newRepoFake(pendingResearcher("r-1"))
	settings := &settingsFake{text: "Medical Imaging, Robotics, NLP"}
	source := &sourceFake{articles: []domain.Article{{Title: "Deep segmentation", Year: 2021, CitationCount: 40}}}
	analyzer := &analyzerFake{evidence: domain.Evidence{
		Summary: "Works on imaging and robot perception.",
		KeywordEvidence: []domain.KeywordEvidence{
			{Keyword: "segmentation", Reasoning: "recurring topic", SupportingReferences: []domain.Article{{Title: "Deep segmentation"}}},
		},
		RawMatchedInterests: []string{"medical imaging", "robotics"},
		Raw:                 []byte(`{"summary":"ok"}`),
	}}
	archive := &archiveFake{}

	uc := NewAnalyzeResearcherUseCase(repo, settings, source, analyzer, testExecutor(0), archive, nil)
	claimed, err := uc.AnalyzeByID(context.Background(), "r-1")
	if err != nil {
		t.Fatalf("AnalyzeByID() error = %v", err)
	}
	if !claimed {
		t.Fatalf("expected record to be claimed")
	}

	rec := repo.get("r-1")
	if rec.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", rec.Status)
	}
	if rec.Summary == "" {
		t.Fatalf("completed record must carry a summary")
	}
	if rec.MatchType != domain.MatchLow || !rec.IsMatch {
		t.Fatalf("T=3 M=2 should be low/true, got %s/%v", rec.MatchType, rec.IsMatch)
	}
	if want := []string{"Medical Imaging", "Robotics"}; !reflect.DeepEqual(rec.MatchedInterests, want) {
		t.Fatalf("expected canonical matched interests %v, got %v", want, rec.MatchedInterests)
	}
	if len(archive.keys) != 1 {
		t.Fatalf("expected raw response archived once, got %v", archive.keys)
	}
}

func TestAnalyzeByIDEmptyProfileFailsWithoutRetry(t *testing.T) {
	repo := newRepoFake(pendingResearcher("r-1"))
	source := &sourceFake{articles: nil}
	analyzer := &analyzerFake{}

	uc := NewAnalyzeResearcherUseCase(repo, &settingsFake{text: "NLP"}, source, analyzer, testExecutor(3), nil, nil)
	claimed, err := uc.AnalyzeByID(context.Background(), "r-1")
	if !claimed {
		t.Fatalf("record should have been claimed before failing")
	}
	if !domain.IsKind(err, domain.ErrEmptyProfile) {
		t.Fatalf("expected empty profile error, got %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("empty profile is fatal and must not retry, got %d fetches", source.calls)
	}
	if analyzer.calls != 0 {
		t.Fatalf("analyzer must not run after fetch failure")
	}

	rec := repo.get("r-1")
	if rec.Status != domain.StatusError {
		t.Fatalf("expected error status, got %s", rec.Status)
	}
	if rec.ErrorMessage == "" {
		t.Fatalf("error record must expose a human-readable message")
	}
	if rec.Summary != "" {
		t.Fatalf("failure must not leave a degraded summary, got %q", rec.Summary)
	}
}

func TestAnalyzeByIDRetriesTransportFailureThenSucceeds(t *testing.T) {
	repo := newRepoFake(pendingResearcher("r-1"))
	transportErr := domain.WrapError(domain.ErrTransport, "fetch publications", errors.New("connection reset"))
	source := &sourceFake{
		articles: []domain.Article{{Title: "Paper"}},
		errs:     []error{transportErr, transportErr, nil},
	}
	analyzer := &analyzerFake{evidence: domain.Evidence{
		Summary:             "Summary.",
		RawMatchedInterests: []string{"nlp"},
	}}

	uc := NewAnalyzeResearcherUseCase(repo, &settingsFake{text: "NLP"}, source, analyzer, testExecutor(2), nil, nil)
	if _, err := uc.AnalyzeByID(context.Background(), "r-1"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if source.calls != 3 {
		t.Fatalf("expected 3 pipeline attempts, got %d", source.calls)
	}

	rec := repo.get("r-1")
	if rec.Status != domain.StatusCompleted {
		t.Fatalf("expected completed after retry, got %s", rec.Status)
	}
	if rec.MatchType != domain.MatchPerfect {
		t.Fatalf("T=1 M=1 should be perfect, got %s", rec.MatchType)
	}
}

func TestAnalyzeByIDMalformedResponseIsFatal(t *testing.T) {
	repo := newRepoFake(pendingResearcher("r-1"))
	source := &sourceFake{articles: []domain.Article{{Title: "Paper"}}}
	analyzer := &analyzerFake{err: domain.WrapError(domain.ErrMalformedResponse, "analyze evidence", errors.New("bad json"))}

	uc := NewAnalyzeResearcherUseCase(repo, &settingsFake{text: "NLP"}, source, analyzer, testExecutor(3), nil, nil)
	_, err := uc.AnalyzeByID(context.Background(), "r-1")
	if !domain.IsKind(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected malformed response error, got %v", err)
	}
	if analyzer.calls != 1 {
		t.Fatalf("malformed response is fatal and must not retry, got %d calls", analyzer.calls)
	}
	if rec := repo.get("r-1"); rec.Status != domain.StatusError {
		t.Fatalf("expected error status, got %s", rec.Status)
	}
}

func TestAnalyzeByIDEmptySummaryEscalatesToError(t *testing.T) {
	repo := newRepoFake(pendingResearcher("r-1"))
	source := &sourceFake{articles: []domain.Article{{Title: "Paper"}}}
	analyzer := &analyzerFake{evidence: domain.Evidence{Summary: ""}}

	uc := NewAnalyzeResearcherUseCase(repo, &settingsFake{text: "NLP"}, source, analyzer, testExecutor(0), nil, nil)
	_, err := uc.AnalyzeByID(context.Background(), "r-1")
	if !domain.IsKind(err, domain.ErrMalformedResponse) {
		t.Fatalf("blank summary must not become a degraded completion, got %v", err)
	}
	if rec := repo.get("r-1"); rec.Status != domain.StatusError {
		t.Fatalf("expected error status, got %s", rec.Status)
	}
}

func TestAnalyzeByIDSkipsRecordAlreadyAnalyzing(t *testing.T) {
	rec := pendingResearcher("r-1")
	rec.Status = domain.StatusAnalyzing
	repo := newRepoFake(rec)
	source := &sourceFake{articles: []domain.Article{{Title: "Paper"}}}

	uc := NewAnalyzeResearcherUseCase(repo, &settingsFake{text: "NLP"}, source, &analyzerFake{}, testExecutor(0), nil, nil)
	claimed, err := uc.AnalyzeByID(context.Background(), "r-1")
	if err != nil {
		t.Fatalf("duplicate submission must be a no-op, got %v", err)
	}
	if claimed {
		t.Fatalf("record already analyzing must not be claimed again")
	}
	if source.calls != 0 {
		t.Fatalf("no pipeline run should start for an analyzing record")
	}
}

func TestAnalyzeByIDReanalyzesCompletedRecord(t *testing.T) {
	rec := pendingResearcher("r-1")
	rec.Status = domain.StatusCompleted
	rec.Summary = "Old summary."
	rec.MatchType = domain.MatchNone
	repo := newRepoFake(rec)
	source := &sourceFake{articles: []domain.Article{{Title: "Paper"}}}
	analyzer := &analyzerFake{evidence: domain.Evidence{
		Summary:             "Fresh summary.",
		RawMatchedInterests: []string{"nlp"},
	}}

	uc := NewAnalyzeResearcherUseCase(repo, &settingsFake{text: "NLP"}, source, analyzer, testExecutor(0), nil, nil)
	claimed, err := uc.AnalyzeByID(context.Background(), "r-1")
	if err != nil {
		t.Fatalf("AnalyzeByID() error = %v", err)
	}
	if !claimed {
		t.Fatalf("completed is not terminal, re-submission must claim the record")
	}

	got := repo.get("r-1")
	if got.Status != domain.StatusCompleted {
		t.Fatalf("expected completed after re-analysis, got %s", got.Status)
	}
	if got.Summary != "Fresh summary." {
		t.Fatalf("re-analysis must overwrite the old outcome, got %q", got.Summary)
	}
	if got.MatchType != domain.MatchPerfect {
		t.Fatalf("expected perfect after re-analysis, got %s", got.MatchType)
	}
}

func TestAnalyzeByIDNoInterestsYieldsNoMatch(t *testing.T) {
	repo := newRepoFake(pendingResearcher("r-1"))
	source := &sourceFake{articles: []domain.Article{{Title: "Paper"}}}
	analyzer := &analyzerFake{evidence: domain.Evidence{
		Summary:             "Summary.",
		RawMatchedInterests: []string{"robotics"},
	}}

	uc := NewAnalyzeResearcherUseCase(repo, &settingsFake{text: ""}, source, analyzer, testExecutor(0), nil, nil)
	if _, err := uc.AnalyzeByID(context.Background(), "r-1"); err != nil {
		t.Fatalf("AnalyzeByID() error = %v", err)
	}

	rec := repo.get("r-1")
	if rec.MatchType != domain.MatchNone || rec.IsMatch {
		t.Fatalf("no interests supplied must classify none/false, got %s/%v", rec.MatchType, rec.IsMatch)
	}
	if len(rec.MatchedInterests) != 0 {
		t.Fatalf("expected no matched interests, got %v", rec.MatchedInterests)
	}
}

func TestAnalyzeByIDArchiveFailureDoesNotFailAnalysis(t *testing.T) {
	repo := newRepoFake(pendingResearcher("r-1"))
	source := &sourceFake{articles: []domain.Article{{Title: "Paper"}}}
	analyzer := &analyzerFake{evidence: domain.Evidence{
		Summary: "Summary.",
		Raw:     []byte(`{}`),
	}}
	archive := &archiveFake{err: errors.New("disk full")}

	uc := NewAnalyzeResearcherUseCase(repo, &settingsFake{text: "NLP"}, source, analyzer, testExecutor(0), archive, nil)
	if _, err := uc.AnalyzeByID(context.Background(), "r-1"); err != nil {
		t.Fatalf("archive failures are best effort, got %v", err)
	}
	if rec := repo.get("r-1"); rec.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", rec.Status)
	}
}
