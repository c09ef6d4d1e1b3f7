package cache

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"

	"brandintel/internal/model"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis, pgxmock.PgxPoolIface) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(rdb, mock, logger), mr, mock
}

func TestGetMissesBothTiers(t *testing.T) {
	c, _, mock := newTestCache(t)
	mock.ExpectQuery(`SELECT body, expires_at FROM scraping_cache WHERE url_hash = \$1`).
		WillReturnError(pgx.ErrNoRows)

	_, ok := c.Get(context.Background(), "https://example.com")
	if ok {
		t.Fatal("expected miss on cold cache")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetHitsFastTierAfterFastSet(t *testing.T) {
	c, _, _ := newTestCache(t)

	result := model.ScrapeResult{URLHash: "abc", Pages: []model.Page{{URL: "https://example.com", Title: "Example"}}}
	raw, _ := json.Marshal(result)

	if err := c.fast.Set(context.Background(), key("https://example.com"), raw, time.Minute).Err(); err != nil {
		t.Fatalf("seed fast tier: %v", err)
	}

	got, ok := c.Get(context.Background(), "https://example.com")
	if !ok {
		t.Fatal("expected hit on fast tier")
	}
	if got.URLHash != "abc" {
		t.Fatalf("got URLHash=%q, want abc", got.URLHash)
	}
}

func TestPutWritesReadableValue(t *testing.T) {
	c, _, mock := newTestCache(t)
	mock.ExpectExec(`INSERT INTO scraping_cache`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	result := model.ScrapeResult{URLHash: "hash1", Pages: []model.Page{{URL: "https://example.com"}}}
	c.Put(context.Background(), "https://example.com", result, time.Minute)

	got, ok := c.Get(context.Background(), "https://example.com")
	if !ok {
		t.Fatal("expected read-after-write hit")
	}
	if got.URLHash != "hash1" {
		t.Fatalf("got URLHash=%q, want hash1", got.URLHash)
	}
}
