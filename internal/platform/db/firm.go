package db

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	FirmIDKey contextKey = "firm_id"
	DBConnKey contextKey = "db_conn"
	TxKey     contextKey = "db_tx"
)

var firmIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// FirmMiddleware resolves the requesting law firm and pins the request's
// database connection to the firm's schema. Each firm owns a `firm_<slug>`
// schema; shared reference data lives in `shared`.
func FirmMiddleware(pool *pgxpool.Pool, defaultFirm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			firmID := extractFirmID(c, defaultFirm)

			if !firmIDPattern.MatchString(firmID) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid firm identifier")
			}

			ctx := c.Request().Context()
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Release()

			schema := fmt.Sprintf("firm_%s", firmID)
			_, err = conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s, shared, public", schema))
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "firm resolution failed")
			}

			ctx = context.WithValue(ctx, FirmIDKey, firmID)
			ctx = context.WithValue(ctx, DBConnKey, conn)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("firm_id", firmID)
			c.Set("db", conn)

			return next(c)
		}
	}
}

func extractFirmID(c echo.Context, defaultFirm string) string {
	// 1. JWT claim (set by auth middleware)
	if fid, ok := c.Get("jwt_firm_id").(string); ok && fid != "" {
		return fid
	}

	// 2. X-Firm-ID header
	if fid := c.Request().Header.Get("X-Firm-ID"); fid != "" {
		return fid
	}

	// 3. Query parameter
	if fid := c.QueryParam("firm_id"); fid != "" {
		return fid
	}

	return defaultFirm
}

// ConnFromContext retrieves the firm-scoped database connection from context.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}

// FirmFromContext retrieves the firm ID from context.
func FirmFromContext(ctx context.Context) string {
	fid, _ := ctx.Value(FirmIDKey).(string)
	return fid
}

// TxFromContext retrieves an in-flight transaction from context, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(TxKey).(pgx.Tx)
	return tx
}

// TxBeginner abstracts pgxpool.Pool for services that open transactions, so
// tests can substitute a stub.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// WithTx runs fn inside a transaction. The transaction is placed in the
// context so repositories participating in the same call share it; it is
// rolled back if fn returns an error or panics. The transaction begins on
// the request's firm-scoped connection when one is present; otherwise it
// pins the firm's search_path itself, so writes never resolve against
// another firm's schema.
func WithTx(ctx context.Context, pool TxBeginner, fn func(ctx context.Context) error) error {
	tx, err := beginTx(ctx, pool)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, TxKey, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func beginTx(ctx context.Context, pool TxBeginner) (pgx.Tx, error) {
	if conn := ConnFromContext(ctx); conn != nil {
		return conn.Begin(ctx)
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if firmID := FirmFromContext(ctx); firmID != "" && firmIDPattern.MatchString(firmID) {
		// SET LOCAL reverts on commit or rollback, so the pooled session
		// goes back clean.
		_, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL search_path TO firm_%s, shared, public", firmID))
		if err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("set search_path: %w", err)
		}
	}
	return tx, nil
}

// CreateFirmSchema creates a new schema for a firm and runs all migrations
// against it. If migrationsDir is empty, migrations are skipped.
func CreateFirmSchema(ctx context.Context, pool *pgxpool.Pool, firmID string, migrationsDir string) error {
	if !firmIDPattern.MatchString(firmID) {
		return fmt.Errorf("invalid firm identifier: %s", firmID)
	}

	schema := fmt.Sprintf("firm_%s", firmID)

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema))
	if err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}

	if migrationsDir != "" {
		migrator := NewMigrator(pool, migrationsDir)
		if _, err := migrator.Up(ctx, schema); err != nil {
			return fmt.Errorf("run migrations for %s: %w", schema, err)
		}
	}

	return nil
}
