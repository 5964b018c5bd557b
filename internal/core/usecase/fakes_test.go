package usecase

import (
	"context"
	"io"
	"sync"

	"github.com/mkorneev/scholarmatch/internal/core/domain"
)

// repoFake is an in-memory ResearcherRepository implementing the same
// transition rules the postgres repository enforces with conditional
// updates.
type repoFake struct {
	mu      sync.Mutex
	records map[string]*domain.Researcher

	claimCalls   int
	outcomeCalls int
	errorCalls   int
	lastErrorMsg string
}

func newRepoFake(records ...*domain.Researcher) *repoFake {
	f := &repoFake{records: make(map[string]*domain.Researcher)}
	for _, rec := range records {
		copyRec := *rec
		f.records[rec.ID] = &copyRec
	}
	return f
}

func (f *repoFake) Create(_ context.Context, rec *domain.Researcher) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copyRec := *rec
	f.records[rec.ID] = &copyRec
	return nil
}

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.Researcher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, domain.ErrResearcherNotFound
	}
	copyRec := *rec
	return &copyRec, nil
}

func (f *repoFake) List(_ context.Context, filter domain.ResearcherFilter) ([]domain.Researcher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Researcher, 0, len(f.records))
	for _, rec := range f.records {
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if filter.FavoritesOnly && !rec.IsFavorite {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (f *repoFake) LinkSource(_ context.Context, id, sourceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return domain.ErrResearcherNotFound
	}
	rec.SourceID = sourceID
	rec.ResetAnalysis()
	rec.Status = domain.StatusPending
	return nil
}

func (f *repoFake) UnlinkSource(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return domain.ErrResearcherNotFound
	}
	rec.SourceID = ""
	rec.ResetAnalysis()
	rec.Status = domain.StatusAwaitingSource
	return nil
}

func (f *repoFake) ClaimForAnalysis(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claimCalls++
	rec, ok := f.records[id]
	if !ok {
		return false, domain.ErrResearcherNotFound
	}
	if rec.SourceID == "" {
		return false, nil
	}
	if rec.Status != domain.StatusPending && rec.Status != domain.StatusError && rec.Status != domain.StatusCompleted {
		return false, nil
	}
	rec.Status = domain.StatusAnalyzing
	return true, nil
}

func (f *repoFake) SaveOutcome(_ context.Context, id string, outcome domain.AnalysisOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomeCalls++
	rec, ok := f.records[id]
	if !ok {
		return domain.ErrResearcherNotFound
	}
	rec.Status = domain.StatusCompleted
	rec.Summary = outcome.Summary
	rec.KeywordEvidence = outcome.KeywordEvidence
	rec.MatchType = outcome.MatchType
	rec.IsMatch = outcome.IsMatch
	rec.MatchedInterests = outcome.MatchedInterests
	rec.ErrorMessage = ""
	return nil
}

func (f *repoFake) MarkError(_ context.Context, id, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errorCalls++
	f.lastErrorMsg = message
	rec, ok := f.records[id]
	if !ok {
		return domain.ErrResearcherNotFound
	}
	rec.Status = domain.StatusError
	rec.ErrorMessage = message
	return nil
}

func (f *repoFake) SetFavorite(_ context.Context, id string, favorite bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return domain.ErrResearcherNotFound
	}
	rec.IsFavorite = favorite
	return nil
}

func (f *repoFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return domain.ErrResearcherNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *repoFake) ClearNonFavorites(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deleted := 0
	for id, rec := range f.records {
		if rec.IsFavorite || rec.Status == domain.StatusAnalyzing {
			continue
		}
		delete(f.records, id)
		deleted++
	}
	return deleted, nil
}

func (f *repoFake) get(id string) domain.Researcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.records[id]
}

type settingsFake struct {
	mu   sync.Mutex
	text string
	err  error
}

func (f *settingsFake) SaveInterestText(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

func (f *settingsFake) InterestText(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, f.err
}

type sourceFake struct {
	mu       sync.Mutex
	articles []domain.Article
	errs     []error // consumed one per call, nil entries mean success
	calls    int
}

func (f *sourceFake) Fetch(context.Context, string) ([]domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.articles, nil
}

type analyzerFake struct {
	mu       sync.Mutex
	evidence domain.Evidence
	err      error
	calls    int
}

func (f *analyzerFake) Analyze(context.Context, string, []domain.Article, string) (domain.Evidence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return domain.Evidence{}, f.err
	}
	return f.evidence, nil
}

type queueFake struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (f *queueFake) PublishAnalysisRequested(_ context.Context, researcherID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, researcherID)
	return nil
}

func (f *queueFake) SubscribeAnalysisRequested(context.Context, func(context.Context, string) error) error {
	return nil
}

type archiveFake struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *archiveFake) Save(_ context.Context, key string, _ io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	return nil
}
