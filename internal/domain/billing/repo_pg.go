package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caseworks/caseworks/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type lineItemRepoPG struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) LineItemRepository { return &lineItemRepoPG{pool: pool} }

func (r *lineItemRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const itemCols = `id, case_id, document_id, sequence, provider_name, service_type,
	encounter_type, service_code, description, service_date, billed_amount,
	paid_amount, outstanding_balance, status, is_duplicate, assessment,
	created_at, updated_at`

func (r *lineItemRepoPG) scanItem(row pgx.Row) (*BillLineItem, error) {
	var item BillLineItem
	err := row.Scan(&item.ID, &item.CaseID, &item.DocumentID, &item.Sequence,
		&item.ProviderName, &item.ServiceType, &item.EncounterType,
		&item.ServiceCode, &item.Description, &item.ServiceDate,
		&item.BilledAmount, &item.PaidAmount, &item.Outstanding, &item.Status,
		&item.IsDuplicate, &item.Assessment, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan bill line item: %w", err)
	}
	return &item, nil
}

func (r *lineItemRepoPG) Create(ctx context.Context, item *BillLineItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bill_line_items (id, case_id, document_id, sequence, provider_name,
			service_type, encounter_type, service_code, description, service_date,
			billed_amount, paid_amount, outstanding_balance, status, is_duplicate, assessment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		item.ID, item.CaseID, item.DocumentID, item.Sequence, item.ProviderName,
		item.ServiceType, item.EncounterType, item.ServiceCode, item.Description,
		item.ServiceDate, item.BilledAmount, item.PaidAmount, item.Outstanding,
		item.Status, item.IsDuplicate, item.Assessment)
	if err != nil {
		return fmt.Errorf("insert bill line item: %w", err)
	}
	return nil
}

func (r *lineItemRepoPG) CreateBatch(ctx context.Context, items []*BillLineItem) error {
	for _, item := range items {
		if err := r.Create(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (r *lineItemRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*BillLineItem, error) {
	return r.scanItem(r.conn(ctx).QueryRow(ctx,
		`SELECT `+itemCols+` FROM bill_line_items WHERE id = $1`, id))
}

func (r *lineItemRepoPG) Update(ctx context.Context, item *BillLineItem) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bill_line_items SET provider_name = $2, service_type = $3,
			encounter_type = $4, service_code = $5, description = $6,
			service_date = $7, billed_amount = $8, paid_amount = $9,
			outstanding_balance = $10, status = $11, updated_at = NOW()
		WHERE id = $1`,
		item.ID, item.ProviderName, item.ServiceType, item.EncounterType,
		item.ServiceCode, item.Description, item.ServiceDate, item.BilledAmount,
		item.PaidAmount, item.Outstanding, item.Status)
	if err != nil {
		return fmt.Errorf("update bill line item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *lineItemRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM bill_line_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bill line item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *lineItemRepoPG) ListByCase(ctx context.Context, caseID uuid.UUID, limit, offset int) ([]*BillLineItem, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bill_line_items WHERE case_id = $1`, caseID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bill line items: %w", err)
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM bill_line_items WHERE case_id = $1 ORDER BY sequence LIMIT $2 OFFSET $3`,
		caseID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list bill line items: %w", err)
	}
	defer rows.Close()

	items, err := collectItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *lineItemRepoPG) AllByCase(ctx context.Context, caseID uuid.UUID) ([]*BillLineItem, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM bill_line_items WHERE case_id = $1 ORDER BY sequence`, caseID)
	if err != nil {
		return nil, fmt.Errorf("load bill line items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func (r *lineItemRepoPG) NextSequence(ctx context.Context, caseID uuid.UUID) (int, error) {
	var next int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM bill_line_items WHERE case_id = $1`,
		caseID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return next, nil
}

func (r *lineItemRepoPG) ApplyAnalysis(ctx context.Context, caseID uuid.UUID, flagged map[uuid.UUID]string, assessments map[uuid.UUID]string) error {
	if _, err := r.conn(ctx).Exec(ctx, `
		UPDATE bill_line_items SET is_duplicate = FALSE, assessment = '', updated_at = NOW()
		WHERE case_id = $1`, caseID); err != nil {
		return fmt.Errorf("reset analysis flags: %w", err)
	}
	for id := range flagged {
		if _, err := r.conn(ctx).Exec(ctx, `
			UPDATE bill_line_items SET is_duplicate = TRUE, updated_at = NOW()
			WHERE id = $1 AND case_id = $2`, id, caseID); err != nil {
			return fmt.Errorf("flag duplicate item: %w", err)
		}
	}
	for id, assessment := range assessments {
		if _, err := r.conn(ctx).Exec(ctx, `
			UPDATE bill_line_items SET assessment = $3, updated_at = NOW()
			WHERE id = $1 AND case_id = $2`, id, caseID, assessment); err != nil {
			return fmt.Errorf("tag assessment: %w", err)
		}
	}
	return nil
}

func collectItems(rows pgx.Rows) ([]*BillLineItem, error) {
	var items []*BillLineItem
	for rows.Next() {
		var item BillLineItem
		if err := rows.Scan(&item.ID, &item.CaseID, &item.DocumentID, &item.Sequence,
			&item.ProviderName, &item.ServiceType, &item.EncounterType,
			&item.ServiceCode, &item.Description, &item.ServiceDate,
			&item.BilledAmount, &item.PaidAmount, &item.Outstanding, &item.Status,
			&item.IsDuplicate, &item.Assessment, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan bill line item: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bill line items: %w", err)
	}
	return items, nil
}
