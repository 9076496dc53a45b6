package repository

import (
	"context"
	"fmt"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
)

// PostgresDiagnosesRepository diagnosis table on PostgreSQL
type PostgresDiagnosesRepository struct {
	q Querier
}

func NewPostgresDiagnosesRepository(q Querier) *PostgresDiagnosesRepository {
	return &PostgresDiagnosesRepository{q: q}
}

var _ DiagnosesRepository = (*PostgresDiagnosesRepository)(nil)

// UpsertDiagnosis relies on UNIQUE(measurement_id).
func (r *PostgresDiagnosesRepository) UpsertDiagnosis(ctx context.Context, d *domain.Diagnosis) error {
	query := `
		INSERT INTO diagnosis (
			measurement_id, stunting_status, wasting_status, diagnosis_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (measurement_id) DO UPDATE SET
			stunting_status = EXCLUDED.stunting_status,
			wasting_status = EXCLUDED.wasting_status,
			diagnosis_date = EXCLUDED.diagnosis_date,
			updated_at = EXCLUDED.updated_at
		RETURNING diagnosis_id, created_at
	`
	err := r.q.QueryRowContext(ctx, query,
		d.MeasurementID, string(d.StuntingStatus), string(d.WastingStatus), d.DiagnosisDate, d.CreatedAt, d.UpdatedAt,
	).Scan(&d.DiagnosisID, &d.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("measurement %d: %w", d.MeasurementID, domain.ErrNotFound)
		}
		return persistenceErr("failed to upsert diagnosis", err)
	}
	return nil
}

func (r *PostgresDiagnosesRepository) ListDiagnoses(ctx context.Context, measurementID int64) ([]*domain.Diagnosis, error) {
	query := `
		SELECT diagnosis_id, measurement_id, stunting_status, wasting_status, diagnosis_date, created_at, updated_at
		FROM diagnosis
		WHERE measurement_id = $1
		ORDER BY diagnosis_date DESC, diagnosis_id DESC
	`
	rows, err := r.q.QueryContext(ctx, query, measurementID)
	if err != nil {
		return nil, persistenceErr("failed to list diagnoses", err)
	}
	defer rows.Close()

	items := []*domain.Diagnosis{}
	for rows.Next() {
		var d domain.Diagnosis
		var stunting, wasting string
		if err := rows.Scan(&d.DiagnosisID, &d.MeasurementID, &stunting, &wasting, &d.DiagnosisDate, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, persistenceErr("failed to scan diagnosis", err)
		}
		d.StuntingStatus = domain.StuntingStatus(stunting)
		d.WastingStatus = domain.WastingStatus(wasting)
		items = append(items, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("failed to iterate diagnoses", err)
	}
	return items, nil
}
