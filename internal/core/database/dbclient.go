package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/contexta-ingest/internal/core"
)

// PgvectorStore keeps collections in Postgres with the pgvector extension.
// Collections are rows of the collections table; items live in collection_items.
type PgvectorStore struct {
	db  *sql.DB
	log logrus.FieldLogger
}

var _ core.VectorStore = (*PgvectorStore)(nil)

// NewPgvectorStore opens the pool, pings it and bootstraps the schema once.
func NewPgvectorStore(ctx context.Context, databaseURL string, log logrus.FieldLogger) (*PgvectorStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL is empty", core.ErrConfig)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	log = log.WithField("component", "pgvector")
	if err := EnsureBootstrapped(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	log.Info("connected to postgres")
	return &PgvectorStore{db: db, log: log}, nil
}

// NewPgvectorStoreFromDB wraps an already open pool without bootstrapping it.
func NewPgvectorStoreFromDB(db *sql.DB, log logrus.FieldLogger) *PgvectorStore {
	return &PgvectorStore{db: db, log: log.WithField("component", "pgvector")}
}

func (s *PgvectorStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
