package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

const snapshotSchema = `
	CREATE TABLE IF NOT EXISTS product_snapshot (
		url        TEXT PRIMARY KEY,
		payload    JSONB NOT NULL,
		scraped_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

// Snapshot is the latest serialized product stored for a page URL.
type Snapshot struct {
	URL       string          `db:"url"`
	Payload   json.RawMessage `db:"payload"`
	ScrapedAt time.Time       `db:"scraped_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("failed to create product_snapshot: %w", err)
	}
	return nil
}

// SaveSnapshot upserts the payload for url. A later scrape of the same page
// replaces the stored document.
func (db *DB) SaveSnapshot(ctx context.Context, url string, payload []byte, scrapedAt time.Time) error {
	if !json.Valid(payload) {
		return fmt.Errorf("snapshot payload for %s is not valid JSON", url)
	}

	query := `
		INSERT INTO product_snapshot (url, payload, scraped_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (url) DO UPDATE SET
			payload = EXCLUDED.payload,
			scraped_at = EXCLUDED.scraped_at,
			updated_at = CURRENT_TIMESTAMP`

	return db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, url, payload, scrapedAt); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		return nil
	})
}

func (db *DB) GetSnapshot(ctx context.Context, url string) (*Snapshot, error) {
	query := `
		SELECT url, payload, scraped_at, updated_at
		FROM product_snapshot
		WHERE url = $1`

	var s Snapshot
	err := db.pool.QueryRow(ctx, query, url).Scan(&s.URL, &s.Payload, &s.ScrapedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, url)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return &s, nil
}
