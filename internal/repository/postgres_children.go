package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
)

// PostgresChildrenRepository children table on PostgreSQL
type PostgresChildrenRepository struct {
	q Querier
}

func NewPostgresChildrenRepository(q Querier) *PostgresChildrenRepository {
	return &PostgresChildrenRepository{q: q}
}

var _ ChildrenRepository = (*PostgresChildrenRepository)(nil)

const childColumns = `child_id, gender, gender_text, current_stunting_status, current_wasting_status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChild(row rowScanner) (*domain.Child, error) {
	var c domain.Child
	var gender string
	var stunting, wasting sql.NullString
	if err := row.Scan(&c.ChildID, &gender, &c.GenderText, &stunting, &wasting, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Gender = domain.Gender(gender)
	if stunting.Valid {
		st := domain.StuntingStatus(stunting.String)
		c.CurrentStuntingStatus = &st
	}
	if wasting.Valid {
		ws := domain.WastingStatus(wasting.String)
		c.CurrentWastingStatus = &ws
	}
	return &c, nil
}

func statusArgs(stunting *domain.StuntingStatus, wasting *domain.WastingStatus) (sql.NullString, sql.NullString) {
	var st, ws *string
	if stunting != nil {
		s := string(*stunting)
		st = &s
	}
	if wasting != nil {
		w := string(*wasting)
		ws = &w
	}
	return nullString(st), nullString(ws)
}

func (r *PostgresChildrenRepository) CreateChild(ctx context.Context, child *domain.Child) error {
	query := `
		INSERT INTO children (` + childColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	st, ws := statusArgs(child.CurrentStuntingStatus, child.CurrentWastingStatus)
	_, err := r.q.ExecContext(ctx, query,
		child.ChildID, string(child.Gender), child.GenderText, st, ws, child.CreatedAt, child.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("child %s already exists: %w", child.ChildID, domain.ErrConflict)
		}
		return persistenceErr("failed to insert child", err)
	}
	return nil
}

func (r *PostgresChildrenRepository) GetChild(ctx context.Context, childID string) (*domain.Child, error) {
	query := `SELECT ` + childColumns + ` FROM children WHERE child_id = $1`

	c, err := scanChild(r.q.QueryRowContext(ctx, query, childID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("child %s: %w", childID, domain.ErrNotFound)
		}
		return nil, persistenceErr("failed to get child", err)
	}
	return c, nil
}

func (r *PostgresChildrenRepository) LockChild(ctx context.Context, childID string) error {
	query := `SELECT child_id FROM children WHERE child_id = $1 FOR UPDATE`

	var id string
	if err := r.q.QueryRowContext(ctx, query, childID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("child %s: %w", childID, domain.ErrNotFound)
		}
		return persistenceErr("failed to lock child", err)
	}
	return nil
}

func (r *PostgresChildrenRepository) ListChildren(ctx context.Context, filter ChildrenFilter, skip, limit int) ([]*domain.Child, int, error) {
	var where []string
	var args []any
	if filter.StuntingStatus != nil {
		args = append(args, string(*filter.StuntingStatus))
		where = append(where, fmt.Sprintf("current_stunting_status = $%d", len(args)))
	}
	if filter.WastingStatus != nil {
		args = append(args, string(*filter.WastingStatus))
		where = append(where, fmt.Sprintf("current_wasting_status = $%d", len(args)))
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM children`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, persistenceErr("failed to count children", err)
	}

	args = append(args, limit, skip)
	query := `SELECT ` + childColumns + ` FROM children` + whereClause +
		fmt.Sprintf(` ORDER BY created_at DESC, child_id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, persistenceErr("failed to list children", err)
	}
	defer rows.Close()

	items := []*domain.Child{}
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, 0, persistenceErr("failed to scan child", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, persistenceErr("failed to iterate children", err)
	}
	return items, total, nil
}

func (r *PostgresChildrenRepository) CountChildren(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM children`).Scan(&n); err != nil {
		return 0, persistenceErr("failed to count children", err)
	}
	return n, nil
}

func (r *PostgresChildrenRepository) UpdateChildGender(ctx context.Context, childID string, gender domain.Gender, updatedAt time.Time) (*domain.Child, error) {
	query := `
		UPDATE children
		SET gender = $2, gender_text = $3, updated_at = $4
		WHERE child_id = $1
		RETURNING ` + childColumns

	c, err := scanChild(r.q.QueryRowContext(ctx, query, childID, string(gender), gender.Text(), updatedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("child %s: %w", childID, domain.ErrNotFound)
		}
		return nil, persistenceErr("failed to update child", err)
	}
	return c, nil
}

func (r *PostgresChildrenRepository) UpdateChildStatus(ctx context.Context, childID string, stunting *domain.StuntingStatus, wasting *domain.WastingStatus, updatedAt time.Time) error {
	query := `
		UPDATE children
		SET current_stunting_status = $2, current_wasting_status = $3, updated_at = $4
		WHERE child_id = $1
	`
	st, ws := statusArgs(stunting, wasting)
	result, err := r.q.ExecContext(ctx, query, childID, st, ws, updatedAt)
	if err != nil {
		return persistenceErr("failed to update child status", err)
	}
	return requireAffected(result, "child "+childID)
}

func (r *PostgresChildrenRepository) DeleteChild(ctx context.Context, childID string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM children WHERE child_id = $1`, childID)
	if err != nil {
		return persistenceErr("failed to delete child", err)
	}
	return requireAffected(result, "child "+childID)
}

func requireAffected(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return persistenceErr("failed to get rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
