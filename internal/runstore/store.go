// Package runstore persists Run artifacts durably with phase-dependency
// semantics: each of the four phase outputs (brand, competitorsTen,
// competitorsAnalyzed, kernel) is an independently nullable slot filled
// monotonically as the pipeline advances.
package runstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sqlc-dev/pqtype"

	"brandintel/internal/apierr"
	"brandintel/internal/model"
)

// DB is the subset of *pgxpool.Pool's interface the store needs, narrowed
// so pgxmock can substitute for a real connection pool in tests.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ErrNotFound is returned by Get and the Save* methods when run_id names no
// active, unexpired run. The orchestrator translates it to the
// UPSTREAM_ARTIFACT_MISSING error code when Get returns it; an ErrNotFound
// from a Save* method is passed back unchanged.
var ErrNotFound = errors.New("runstore: run not found")

// Store is the durable RunStore backed by Postgres.
type Store struct {
	db         DB
	expiration time.Duration
}

// New constructs a Store. expiration is the lifetime given to a freshly
// created run (RUN_EXPIRATION_DAYS).
func New(db DB, expiration time.Duration) *Store {
	return &Store{db: db, expiration: expiration}
}

// Create inserts a fresh active run and returns it.
func (s *Store) Create(ctx context.Context) (*model.Run, error) {
	id := "run_" + uuid.NewString()
	now := time.Now().UTC()
	expiresAt := now.Add(s.expiration)

	_, err := s.db.Exec(ctx, `
		INSERT INTO runs (id, status, metadata, created_at, updated_at, expires_at)
		VALUES ($1, 'active', '{}'::jsonb, $2, $2, $3)
	`, id, now, expiresAt)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, "create run", err)
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusActive,
		Metadata:  map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: expiresAt,
	}, nil
}

// Get returns the active, unexpired run named run_id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, status, brand, competitors_ten, competitors_analyzed, kernel, metadata, created_at, updated_at, expires_at
		FROM runs
		WHERE id = $1 AND status = 'active' AND expires_at > now()
	`, runID)

	var (
		status                                                     string
		brand, competitorsTen, competitorsAnalyzed, kernel         pqtype.NullRawMessage
		metadataRaw                                                []byte
		run                                                        model.Run
	)

	if err := row.Scan(&run.ID, &status, &brand, &competitorsTen, &competitorsAnalyzed, &kernel, &metadataRaw, &run.CreatedAt, &run.UpdatedAt, &run.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apierr.Wrap(apierr.CodeInternal, "get run", err)
	}

	run.Status = model.RunStatus(status)

	if err := unmarshalOptional(brand, &run.Brand); err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, "decode brand artifact", err)
	}
	if competitorsTen.Valid {
		if err := json.Unmarshal(competitorsTen.RawMessage, &run.CompetitorsTen); err != nil {
			return nil, apierr.Wrap(apierr.CodeInternal, "decode competitorsTen artifact", err)
		}
	}
	if competitorsAnalyzed.Valid {
		if err := json.Unmarshal(competitorsAnalyzed.RawMessage, &run.CompetitorsAnalyzed); err != nil {
			return nil, apierr.Wrap(apierr.CodeInternal, "decode competitorsAnalyzed artifact", err)
		}
	}
	if err := unmarshalOptional(kernel, &run.Kernel); err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, "decode kernel artifact", err)
	}
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &run.Metadata); err != nil {
			return nil, apierr.Wrap(apierr.CodeInternal, "decode run metadata", err)
		}
	}

	return &run, nil
}

// unmarshalOptional decodes raw into *target (a pointer-to-pointer) only
// when raw carries a value, leaving *target nil on a SQL NULL.
func unmarshalOptional[T any](raw pqtype.NullRawMessage, target **T) error {
	if !raw.Valid {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw.RawMessage, &v); err != nil {
		return err
	}
	*target = &v
	return nil
}

// SaveBrand writes the BrandSummary phase's artifact.
func (s *Store) SaveBrand(ctx context.Context, runID string, brand model.BrandAnalysis) error {
	raw, err := json.Marshal(brand)
	if err != nil {
		return err
	}
	return s.update(ctx, runID, "brand", raw)
}

// SaveCompetitors writes the Competitors phase's artifact.
func (s *Store) SaveCompetitors(ctx context.Context, runID string, competitors []model.CompetitorCandidate) error {
	raw, err := json.Marshal(competitors)
	if err != nil {
		return err
	}
	return s.update(ctx, runID, "competitors_ten", raw)
}

// SaveAnalyzed writes the CompetitorsAnalyze phase's artifact.
func (s *Store) SaveAnalyzed(ctx context.Context, runID string, analyzed []model.CompetitorAnalysis) error {
	raw, err := json.Marshal(analyzed)
	if err != nil {
		return err
	}
	return s.update(ctx, runID, "competitors_analyzed", raw)
}

// SaveKernel writes the Kernel phase's artifact.
func (s *Store) SaveKernel(ctx context.Context, runID string, kernel model.Kernel) error {
	raw, err := json.Marshal(kernel)
	if err != nil {
		return err
	}
	return s.update(ctx, runID, "kernel", raw)
}

func (s *Store) update(ctx context.Context, runID, column string, raw []byte) error {
	sql := `UPDATE runs SET ` + column + ` = $1, updated_at = now() WHERE id = $2 AND status = 'active'`
	tag, err := s.db.Exec(ctx, sql, raw, runID)
	if err != nil {
		return apierr.Wrap(apierr.CodeInternal, "save "+column, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of active, unexpired runs.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	row := s.db.QueryRow(ctx, `SELECT count(*) FROM runs WHERE status = 'active' AND expires_at > now()`)
	if err := row.Scan(&n); err != nil {
		return 0, apierr.Wrap(apierr.CodeInternal, "count runs", err)
	}
	return n, nil
}

// Reap deletes runs past expires_at that are not archived, returning the
// number of rows removed.
func (s *Store) Reap(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM runs WHERE expires_at <= now() AND status != 'archived'`)
	if err != nil {
		return 0, apierr.Wrap(apierr.CodeInternal, "reap runs", err)
	}
	return tag.RowsAffected(), nil
}
