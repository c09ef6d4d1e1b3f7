package runstore

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"

	"brandintel/internal/model"
)

func newTestStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return New(mock, 7*24*time.Hour), mock
}

var runIDPattern = regexp.MustCompile(`^run_[a-f0-9-]+$`)

func TestCreateProducesWellFormedRunID(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectExec(`INSERT INTO runs`).WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !runIDPattern.MatchString(run.ID) {
		t.Fatalf("run id %q does not match ^run_[a-f0-9-]+$", run.ID)
	}
	if run.Status != model.RunStatusActive {
		t.Fatalf("status = %q, want active", run.Status)
	}
}

func TestGetMissingRunReturnsErrNotFound(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectQuery(`SELECT id, status`).WillReturnError(pgx.ErrNoRows)

	_, err := s.Get(context.Background(), "run_doesnotexist")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveBrandOnMissingRunReturnsErrNotFound(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectExec(`UPDATE runs SET brand`).WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.SaveBrand(context.Background(), "run_gone", model.BrandAnalysis{Name: "Acme"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReapReturnsAffectedCount(t *testing.T) {
	s, mock := newTestStore(t)
	mock.ExpectExec(`DELETE FROM runs WHERE expires_at`).WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := s.Reap(context.Background())
	if err != nil {
		t.Fatalf("Reap: %v", err)
	}
	if n != 3 {
		t.Fatalf("Reap = %d, want 3", n)
	}
}
