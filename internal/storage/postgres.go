package storage

import (
	"context"
	"time"

	"github.com/maltedev/product-page-scraper/internal/database"
)

type snapshotStore interface {
	SaveSnapshot(ctx context.Context, url string, payload []byte, scrapedAt time.Time) error
	Close()
}

type PostgresSink struct {
	db  snapshotStore
	now func() time.Time
}

func NewPostgresSink(db *database.DB) *PostgresSink {
	return &PostgresSink{db: db, now: time.Now}
}

func (s *PostgresSink) Name() string {
	return "postgres"
}

func (s *PostgresSink) Store(ctx context.Context, url string, data []byte) error {
	return s.db.SaveSnapshot(ctx, url, data, s.now().UTC())
}

func (s *PostgresSink) Close() error {
	s.db.Close()
	return nil
}
