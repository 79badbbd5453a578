package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
)

// DocumentRepository is the registry of processed policy documents.
type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
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

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across replicas starting together.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026081901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS policy_documents (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	page_count INTEGER NOT NULL DEFAULT 0,
	chunk_count INTEGER NOT NULL DEFAULT 0,
	indexed_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_policy_documents_status ON policy_documents(status);
CREATE INDEX IF NOT EXISTS idx_policy_documents_content_hash ON policy_documents(content_hash);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Upsert inserts a record or refreshes the one already stored for its id.
// created_at of an existing row is kept.
func (r *DocumentRepository) Upsert(ctx context.Context, record *domain.DocumentRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO policy_documents (
	id, url, content_hash, page_count, chunk_count, indexed_count, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
	url = EXCLUDED.url,
	content_hash = EXCLUDED.content_hash,
	page_count = EXCLUDED.page_count,
	chunk_count = EXCLUDED.chunk_count,
	indexed_count = EXCLUDED.indexed_count,
	status = EXCLUDED.status,
	error_message = EXCLUDED.error_message,
	updated_at = EXCLUDED.updated_at
`,
		record.ID, record.URL, record.ContentHash, record.PageCount, record.ChunkCount, record.IndexedCount,
		string(record.Status), record.Error, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, url, content_hash, page_count, chunk_count, indexed_count, status, error_message, created_at, updated_at
FROM policy_documents
WHERE id = $1
`, id)

	var record domain.DocumentRecord
	var status string
	err := row.Scan(
		&record.ID, &record.URL, &record.ContentHash, &record.PageCount, &record.ChunkCount,
		&record.IndexedCount, &status, &record.Error, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	record.Status = domain.DocumentStatus(status)
	return &record, nil
}

func (r *DocumentRepository) UpdateStatus(
	ctx context.Context,
	id string,
	status domain.DocumentStatus,
	chunkCount, indexedCount int,
	errMessage string,
) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE policy_documents
SET status = $2, chunk_count = $3, indexed_count = $4, error_message = $5, updated_at = $6
WHERE id = $1
`, id, string(status), chunkCount, indexedCount, errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document status rows: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document status", fmt.Errorf("id %s", id))
	}
	return nil
}
