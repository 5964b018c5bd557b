package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkorneev/scholarmatch/internal/core/domain"
)

type ResearcherRepository struct {
	db *sql.DB
}

func NewResearcherRepository(db *sql.DB) *ResearcherRepository {
	return &ResearcherRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ResearcherRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS researchers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	status TEXT NOT NULL,
	source_id TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	keyword_evidence JSONB NOT NULL DEFAULT '[]'::jsonb,
	is_match BOOLEAN NOT NULL DEFAULT FALSE,
	match_type TEXT NOT NULL DEFAULT '',
	matched_interests JSONB NOT NULL DEFAULT '[]'::jsonb,
	is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_researchers_status ON researchers(status);
CREATE INDEX IF NOT EXISTS idx_researchers_created_at ON researchers(created_at DESC);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ResearcherRepository) Create(ctx context.Context, rec *domain.Researcher) error {
	evidenceJSON, interestsJSON, err := marshalAnalysis(rec.KeywordEvidence, rec.MatchedInterests)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO researchers (
	id, name, status, source_id, summary, keyword_evidence, is_match, match_type, matched_interests, is_favorite, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
		rec.ID, rec.Name, string(rec.Status), rec.SourceID, rec.Summary, evidenceJSON,
		rec.IsMatch, string(rec.MatchType), interestsJSON, rec.IsFavorite, rec.ErrorMessage,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert researcher: %w", err)
	}
	return nil
}

func (r *ResearcherRepository) GetByID(ctx context.Context, id string) (*domain.Researcher, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, status, source_id, summary, keyword_evidence, is_match, match_type, matched_interests, is_favorite, error_message, created_at, updated_at
FROM researchers
WHERE id = $1
`, id)

	rec, err := scanResearcher(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrResearcherNotFound, "get researcher", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("get researcher by id: %w", err)
	}
	return rec, nil
}

func (r *ResearcherRepository) List(ctx context.Context, filter domain.ResearcherFilter) ([]domain.Researcher, error) {
	query := `
SELECT id, name, status, source_id, summary, keyword_evidence, is_match, match_type, matched_interests, is_favorite, error_message, created_at, updated_at
FROM researchers
WHERE 1=1
`
	args := make([]any, 0, 2)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf("AND status = $%d\n", len(args))
	}
	if filter.FavoritesOnly {
		query += "AND is_favorite\n"
	}
	query += "ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list researchers: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Researcher, 0)
	for rows.Next() {
		rec, err := scanResearcher(rows)
		if err != nil {
			return nil, fmt.Errorf("scan researcher: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate researchers: %w", err)
	}
	return out, nil
}

// LinkSource attaches a source id, wipes every prior analysis field and moves
// the record to pending. Old evidence describes a different author.
func (r *ResearcherRepository) LinkSource(ctx context.Context, id, sourceID string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE researchers
SET source_id = $2, status = $3,
	summary = '', keyword_evidence = '[]'::jsonb, is_match = FALSE, match_type = '',
	matched_interests = '[]'::jsonb, error_message = '', updated_at = $4
WHERE id = $1
`, id, sourceID, string(domain.StatusPending), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("link source: %w", err)
	}
	return requireRow(result, "link source", id)
}

func (r *ResearcherRepository) UnlinkSource(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE researchers
SET source_id = '', status = $2,
	summary = '', keyword_evidence = '[]'::jsonb, is_match = FALSE, match_type = '',
	matched_interests = '[]'::jsonb, error_message = '', updated_at = $3
WHERE id = $1
`, id, string(domain.StatusAwaitingSource), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("unlink source: %w", err)
	}
	return requireRow(result, "unlink source", id)
}

// ClaimForAnalysis is a single conditional UPDATE, so two concurrent callers
// can never both claim the same record. Completed records are claimable too;
// no status is terminal for re-submission.
func (r *ResearcherRepository) ClaimForAnalysis(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
UPDATE researchers
SET status = $2, error_message = '', updated_at = $3
WHERE id = $1 AND source_id <> '' AND status IN ($4, $5, $6)
`, id, string(domain.StatusAnalyzing), time.Now().UTC(),
		string(domain.StatusPending), string(domain.StatusError), string(domain.StatusCompleted))
	if err != nil {
		return false, fmt.Errorf("claim researcher: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim researcher rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *ResearcherRepository) SaveOutcome(ctx context.Context, id string, outcome domain.AnalysisOutcome) error {
	evidenceJSON, interestsJSON, err := marshalAnalysis(outcome.KeywordEvidence, outcome.MatchedInterests)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE researchers
SET status = $2, summary = $3, keyword_evidence = $4, is_match = $5, match_type = $6,
	matched_interests = $7, error_message = '', updated_at = $8
WHERE id = $1 AND status = $9
`, id, string(domain.StatusCompleted), outcome.Summary, evidenceJSON, outcome.IsMatch,
		string(outcome.MatchType), interestsJSON, time.Now().UTC(), string(domain.StatusAnalyzing))
	if err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}
	return requireRow(result, "save outcome", id)
}

func (r *ResearcherRepository) MarkError(ctx context.Context, id, message string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE researchers
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1 AND status = $5
`, id, string(domain.StatusError), message, time.Now().UTC(), string(domain.StatusAnalyzing))
	if err != nil {
		return fmt.Errorf("mark error: %w", err)
	}
	return requireRow(result, "mark error", id)
}

func (r *ResearcherRepository) SetFavorite(ctx context.Context, id string, favorite bool) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE researchers
SET is_favorite = $2, updated_at = $3
WHERE id = $1
`, id, favorite, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set favorite: %w", err)
	}
	return requireRow(result, "set favorite", id)
}

func (r *ResearcherRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM researchers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete researcher: %w", err)
	}
	return requireRow(result, "delete researcher", id)
}

// ClearNonFavorites keeps favorited records and anything a worker is still
// analyzing.
func (r *ResearcherRepository) ClearNonFavorites(ctx context.Context) (int, error) {
	result, err := r.db.ExecContext(ctx, `
DELETE FROM researchers
WHERE NOT is_favorite AND status <> $1
`, string(domain.StatusAnalyzing))
	if err != nil {
		return 0, fmt.Errorf("clear researchers: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear researchers rows affected: %w", err)
	}
	return int(rows), nil
}

func requireRow(result sql.Result, operation, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrResearcherNotFound, operation, fmt.Errorf("id=%s", id))
	}
	return nil
}

func marshalAnalysis(evidence []domain.KeywordEvidence, interests []string) ([]byte, []byte, error) {
	if evidence == nil {
		evidence = []domain.KeywordEvidence{}
	}
	if interests == nil {
		interests = []string{}
	}
	evidenceJSON, err := json.Marshal(evidence)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal keyword evidence: %w", err)
	}
	interestsJSON, err := json.Marshal(interests)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal matched interests: %w", err)
	}
	return evidenceJSON, interestsJSON, nil
}

type researcherScanner interface {
	Scan(dest ...interface{}) error
}

func scanResearcher(row researcherScanner) (*domain.Researcher, error) {
	var rec domain.Researcher
	var status, matchType string
	var evidenceRaw, interestsRaw []byte

	err := row.Scan(
		&rec.ID, &rec.Name, &status, &rec.SourceID, &rec.Summary, &evidenceRaw,
		&rec.IsMatch, &matchType, &interestsRaw, &rec.IsFavorite, &rec.ErrorMessage,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(evidenceRaw, &rec.KeywordEvidence); err != nil {
		return nil, fmt.Errorf("unmarshal keyword evidence: %w", err)
	}
	if err := json.Unmarshal(interestsRaw, &rec.MatchedInterests); err != nil {
		return nil, fmt.Errorf("unmarshal matched interests: %w", err)
	}
	rec.Status = domain.ResearcherStatus(status)
	rec.MatchType = domain.MatchType(matchType)
	return &rec, nil
}
