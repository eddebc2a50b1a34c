// Package postgres stores documents as JSONB rows.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/pdfingest/internal/id/uuid"
	"github.com/JakeFAU/pdfingest/internal/pipeline"
)

const defaultTable = "documents"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for document rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	// AutoMigrate creates the table on startup when it does not exist.
	AutoMigrate bool
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

type idGenerator interface {
	NewID() (string, error)
}

// DocumentStore writes StoredDocuments into a table of (id uuid, elements jsonb).
type DocumentStore struct {
	pool  execCloser
	table string
	ids   idGenerator
}

// New creates a pgx pool from cfg.
func New(ctx context.Context, cfg Config) (*DocumentStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("docstore.postgres.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := &DocumentStore{pool: pool, table: table, ids: uuid.New()}
	if cfg.AutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return store, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool execCloser, table string) (*DocumentStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &DocumentStore{pool: pool, table: name, ids: uuid.New()}, nil
}

func tableName(name string) (string, error) {
	if name == "" {
		name = defaultTable
	}
	if !validTableName.MatchString(name) {
		return "", fmt.Errorf("invalid table name %q", name)
	}
	return name, nil
}

// EnsureSchema creates the documents table if needed.
func (s *DocumentStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id uuid PRIMARY KEY,
	elements jsonb NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *DocumentStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// InsertMany writes all docs in one statement and returns their generated IDs
// in input order.
func (s *DocumentStore) InsertMany(ctx context.Context, docs []pipeline.StoredDocument) ([]string, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("document store is not configured")
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents to insert")
	}

	ids := make([]string, 0, len(docs))
	args := make([]any, 0, len(docs)*2)
	values := make([]string, 0, len(docs))
	for i, doc := range docs {
		id, err := s.ids.NewID()
		if err != nil {
			return nil, err
		}
		elements, err := json.Marshal(elementsOrEmpty(doc))
		if err != nil {
			return nil, fmt.Errorf("marshal elements: %w", err)
		}
		ids = append(ids, id)
		args = append(args, id, elements)
		values = append(values, fmt.Sprintf("($%d,$%d)", i*2+1, i*2+2))
	}

	query := fmt.Sprintf("INSERT INTO %s (id, elements) VALUES %s", s.table, strings.Join(values, ","))
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert documents: %w", err)
	}
	return ids, nil
}

func elementsOrEmpty(doc pipeline.StoredDocument) any {
	if doc.Elements == nil {
		return []any{}
	}
	return doc.Elements
}
