package cases

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const caseCols = `id, case_number, title, client_name, matter_type, status,
	opposing_party, jurisdiction, lead_attorney, incident_date,
	opened_at, closed_at, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, c *Case) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO cases (
			id, case_number, title, client_name, matter_type, status,
			opposing_party, jurisdiction, lead_attorney, incident_date, opened_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		c.ID, c.CaseNumber, c.Title, c.ClientName, c.MatterType, c.Status,
		c.OpposingParty, c.Jurisdiction, c.LeadAttorney, c.IncidentDate, c.OpenedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Case, error) {
	return scanCase(r.conn(ctx).QueryRow(ctx, `SELECT `+caseCols+` FROM cases WHERE id = $1`, id))
}

func (r *repoPG) GetByNumber(ctx context.Context, number string) (*Case, error) {
	return scanCase(r.conn(ctx).QueryRow(ctx, `SELECT `+caseCols+` FROM cases WHERE case_number = $1`, number))
}

func (r *repoPG) Update(ctx context.Context, c *Case) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE cases SET
			title=$2, client_name=$3, matter_type=$4, status=$5,
			opposing_party=$6, jurisdiction=$7, lead_attorney=$8, incident_date=$9,
			closed_at=$10, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.Title, c.ClientName, c.MatterType, c.Status,
		c.OpposingParty, c.Jurisdiction, c.LeadAttorney, c.IncidentDate,
		c.ClosedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM cases WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Case, int, error) {
	where, args := filterClauses(filter)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM cases`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT %s FROM cases%s ORDER BY opened_at DESC LIMIT $%d OFFSET $%d`,
		caseCols, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectCases(rows, total)
}

func (r *repoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cases WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func filterClauses(filter ListFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.MatterType != "" {
		add("matter_type = $%d", filter.MatterType)
	}
	if filter.ClientName != "" {
		add("client_name ILIKE $%d", "%"+filter.ClientName+"%")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanCase(row pgx.Row) (*Case, error) {
	var c Case
	err := row.Scan(
		&c.ID, &c.CaseNumber, &c.Title, &c.ClientName, &c.MatterType, &c.Status,
		&c.OpposingParty, &c.Jurisdiction, &c.LeadAttorney, &c.IncidentDate,
		&c.OpenedAt, &c.ClosedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCases(rows pgx.Rows, total int) ([]*Case, int, error) {
	var out []*Case
	for rows.Next() {
		var c Case
		err := rows.Scan(
			&c.ID, &c.CaseNumber, &c.Title, &c.ClientName, &c.MatterType, &c.Status,
			&c.OpposingParty, &c.Jurisdiction, &c.LeadAttorney, &c.IncidentDate,
			&c.OpenedAt, &c.ClosedAt, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, &c)
	}
	return out, total, nil
}
