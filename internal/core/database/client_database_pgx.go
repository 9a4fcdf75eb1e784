package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/markdave123-py/contexta-ingest/internal/core"
	"github.com/markdave123-py/contexta-ingest/internal/models"
)

// GetCollection checks that the collection was provisioned. It never creates one.
func (s *PgvectorStore) GetCollection(ctx context.Context, name string) (core.Collection, error) {
	var found string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM collections WHERE name = $1`, name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrCollectionNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lookup collection %s: %v", core.ErrStorage, name, err)
	}
	return &pgCollection{db: s.db, name: found}, nil
}

type pgCollection struct {
	db   *sql.DB
	name string
}

func (c *pgCollection) Name() string { return c.name }

// Add inserts all items in a single transaction.
func (c *pgCollection) Add(ctx context.Context, items []models.CollectionItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", core.ErrStorage, err)
	}

	const q = `
		INSERT INTO collection_items (id, collection, document, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5::jsonb)
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: prepare insert: %v", core.ErrStorage, err)
	}
	defer stmt.Close()

	for i := range items {
		it := &items[i]
		meta, err := json.Marshal(it.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: metadata of %s: %v", core.ErrValidation, it.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			it.ID, c.name, it.Document, pgvector.NewVector(it.Embedding), string(meta),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: insert %s: %v", core.ErrStorage, it.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", core.ErrStorage, err)
	}
	return nil
}
