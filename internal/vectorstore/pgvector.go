package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Collection names end up in table identifiers, so they are restricted to
// a safe subset rather than quoted.
var collectionNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]{0,50}$`)

type PgVectorStore struct {
	db         *pgxpool.Pool
	collection string
}

func NewPgVectorStore(db *pgxpool.Pool, collection string) (*PgVectorStore, error) {
	if !collectionNameRe.MatchString(collection) {
		return nil, fmt.Errorf("invalid collection name %q", collection)
	}
	return &PgVectorStore{db: db, collection: collection}, nil
}

func (s *PgVectorStore) table() string {
	return "rag_points_" + s.collection
}

func (s *PgVectorStore) EnsureCollection(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dim)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("enable pgvector: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS rag_collections (
			name       text PRIMARY KEY,
			dim        integer NOT NULL,
			next_id    bigint NOT NULL DEFAULT 0,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
	); err != nil {
		return fmt.Errorf("create collections table: %w", err)
	}

	var existing int
	err = tx.QueryRow(ctx,
		`SELECT dim FROM rag_collections WHERE name = $1`, s.collection,
	).Scan(&existing)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if _, err := tx.Exec(ctx,
			`INSERT INTO rag_collections (name, dim) VALUES ($1, $2)`,
			s.collection, dim,
		); err != nil {
			return fmt.Errorf("register collection: %w", err)
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (
				id             bigint PRIMARY KEY,
				embedding      vector(%d) NOT NULL,
				text           text NOT NULL,
				source         text NOT NULL,
				original_index integer NOT NULL,
				chunk_index    integer NOT NULL
			)`, s.table(), dim,
		)); err != nil {
			return fmt.Errorf("create points table: %w", err)
		}
	case err != nil:
		return fmt.Errorf("look up collection: %w", err)
	default:
		if existing != dim {
			return fmt.Errorf("collection %q has dimension %d, embedder produces %d",
				s.collection, existing, dim)
		}
	}

	return tx.Commit(ctx)
}

// ReserveIDs bumps the collection's counter in a single statement, so two
// concurrent ingests always get disjoint contiguous ranges.
func (s *PgVectorStore) ReserveIDs(ctx context.Context, n int) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid reservation size %d", n)
	}
	var start int64
	err := s.db.QueryRow(ctx,
		`UPDATE rag_collections SET next_id = next_id + $2 WHERE name = $1 RETURNING next_id - $2`,
		s.collection, n,
	).Scan(&start)
	if err != nil {
		return 0, fmt.Errorf("reserve %d ids: %w", n, err)
	}
	return start, nil
}

func (s *PgVectorStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(
		`INSERT INTO %s (id, embedding, text, source, original_index, chunk_index)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE
		 SET embedding = $2, text = $3, source = $4, original_index = $5, chunk_index = $6`,
		s.table(),
	)
	for _, p := range points {
		_, err := tx.Exec(ctx, stmt,
			p.ID, pgvector.NewVector(p.Vector),
			p.Payload.Text, p.Payload.Source, p.Payload.OriginalIndex, p.Payload.ChunkIndex,
		)
		if err != nil {
			return fmt.Errorf("upsert point %d: %w", p.ID, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PgVectorStore) Search(ctx context.Context, query []float32, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(ctx, fmt.Sprintf(
		`SELECT text, source, original_index, chunk_index,
		        1 - (embedding <=> $1) AS score
		 FROM %s
		 ORDER BY embedding <=> $1
		 LIMIT $2`, s.table(),
	), pgvector.NewVector(query), limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Payload.Text, &r.Payload.Source,
			&r.Payload.OriginalIndex, &r.Payload.ChunkIndex, &r.Score); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *PgVectorStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, s.table())).Scan(&n); err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return n, nil
}
