package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

// Querier is satisfied by *sql.DB and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore Store backed by PostgreSQL (lib/pq)
type PostgresStore struct {
	db *sql.DB
	q  Querier
	tx bool
}

// NewPostgresStore creates a Store over db
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) Children() ChildrenRepository {
	return NewPostgresChildrenRepository(s.q)
}

func (s *PostgresStore) Measurements() MeasurementsRepository {
	return NewPostgresMeasurementsRepository(s.q)
}

func (s *PostgresStore) Diagnoses() DiagnosesRepository {
	return NewPostgresDiagnosesRepository(s.q)
}

// WithinTx runs fn in a READ COMMITTED transaction; per-child ordering comes from LockChild (SELECT ... FOR UPDATE).
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.tx {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return persistenceErr("failed to begin transaction", err)
	}

	if err := fn(ctx, &PostgresStore{db: s.db, q: tx, tx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return persistenceErr("failed to commit transaction", err)
	}
	return nil
}

func persistenceErr(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, domain.ErrPersistence, err)
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pqCode(err) == pgerrcode.ForeignKeyViolation
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
