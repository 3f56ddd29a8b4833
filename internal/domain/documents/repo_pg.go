package documents

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caseworks/caseworks/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const docMetaCols = `id, case_id, name, category, content_type, size_bytes, uploaded_by, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, doc *CaseDocument) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	doc.SizeBytes = len(doc.Content)
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO case_documents (id, case_id, name, category, content_type, content, size_bytes, uploaded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		doc.ID, doc.CaseID, doc.Name, doc.Category, doc.ContentType, doc.Content, doc.SizeBytes, doc.UploadedBy,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*CaseDocument, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+docMetaCols+`, content FROM case_documents WHERE id = $1`, id)

	var d CaseDocument
	err := row.Scan(&d.ID, &d.CaseID, &d.Name, &d.Category, &d.ContentType,
		&d.SizeBytes, &d.UploadedBy, &d.CreatedAt, &d.UpdatedAt, &d.Content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM case_documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByCase(ctx context.Context, caseID uuid.UUID, limit, offset int) ([]*CaseDocument, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM case_documents WHERE case_id = $1`, caseID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+docMetaCols+` FROM case_documents WHERE case_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		caseID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var docs []*CaseDocument
	for rows.Next() {
		var d CaseDocument
		if err := rows.Scan(&d.ID, &d.CaseID, &d.Name, &d.Category, &d.ContentType,
			&d.SizeBytes, &d.UploadedBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		docs = append(docs, &d)
	}
	return docs, total, nil
}

func (r *repoPG) AllByCaseCategory(ctx context.Context, caseID uuid.UUID, category string) ([]*CaseDocument, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+docMetaCols+`, content FROM case_documents WHERE case_id = $1 AND category = $2 ORDER BY created_at`,
		caseID, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*CaseDocument
	for rows.Next() {
		var d CaseDocument
		if err := rows.Scan(&d.ID, &d.CaseID, &d.Name, &d.Category, &d.ContentType,
			&d.SizeBytes, &d.UploadedBy, &d.CreatedAt, &d.UpdatedAt, &d.Content); err != nil {
			return nil, err
		}
		docs = append(docs, &d)
	}
	return docs, nil
}
