package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
)

// PostgresMeasurementsRepository measurements table on PostgreSQL
type PostgresMeasurementsRepository struct {
	q Querier
}

func NewPostgresMeasurementsRepository(q Querier) *PostgresMeasurementsRepository {
	return &PostgresMeasurementsRepository{q: q}
}

var _ MeasurementsRepository = (*PostgresMeasurementsRepository)(nil)

// measurement joined with its (optional) diagnosis
const measurementSelect = `
	SELECT
		m.measurement_id, m.child_id, m.age_months, m.body_length_cm, m.body_weight_kg,
		m.measurement_date, m.created_at, m.updated_at,
		d.diagnosis_id, d.stunting_status, d.wasting_status, d.diagnosis_date, d.created_at, d.updated_at
	FROM measurements m
	LEFT JOIN diagnosis d ON d.measurement_id = m.measurement_id
`

func scanMeasurement(row rowScanner) (*domain.Measurement, error) {
	var m domain.Measurement
	var diagID sql.NullInt64
	var stunting, wasting sql.NullString
	var diagDate, diagCreated, diagUpdated sql.NullTime

	err := row.Scan(
		&m.MeasurementID, &m.ChildID, &m.AgeMonths, &m.BodyLengthCm, &m.BodyWeightKg,
		&m.MeasurementDate, &m.CreatedAt, &m.UpdatedAt,
		&diagID, &stunting, &wasting, &diagDate, &diagCreated, &diagUpdated,
	)
	if err != nil {
		return nil, err
	}

	if diagID.Valid {
		m.Diagnosis = &domain.Diagnosis{
			DiagnosisID:    diagID.Int64,
			MeasurementID:  m.MeasurementID,
			StuntingStatus: domain.StuntingStatus(stunting.String),
			WastingStatus:  domain.WastingStatus(wasting.String),
			DiagnosisDate:  diagDate.Time,
			CreatedAt:      diagCreated.Time,
			UpdatedAt:      diagUpdated.Time,
		}
	}
	return &m, nil
}

func (r *PostgresMeasurementsRepository) CreateMeasurement(ctx context.Context, m *domain.Measurement) error {
	query := `
		INSERT INTO measurements (
			child_id, age_months, body_length_cm, body_weight_kg, measurement_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING measurement_id
	`
	err := r.q.QueryRowContext(ctx, query,
		m.ChildID, m.AgeMonths, m.BodyLengthCm, m.BodyWeightKg, m.MeasurementDate, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.MeasurementID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("child %s: %w", m.ChildID, domain.ErrNotFound)
		}
		return persistenceErr("failed to insert measurement", err)
	}
	return nil
}

func (r *PostgresMeasurementsRepository) GetMeasurement(ctx context.Context, measurementID int64) (*domain.Measurement, error) {
	m, err := scanMeasurement(r.q.QueryRowContext(ctx, measurementSelect+` WHERE m.measurement_id = $1`, measurementID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("measurement %d: %w", measurementID, domain.ErrNotFound)
		}
		return nil, persistenceErr("failed to get measurement", err)
	}
	return m, nil
}

func (r *PostgresMeasurementsRepository) ListMeasurements(ctx context.Context, childID string, skip, limit int) ([]*domain.Measurement, int, error) {
	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM measurements WHERE child_id = $1`, childID).Scan(&total); err != nil {
		return nil, 0, persistenceErr("failed to count measurements", err)
	}

	query := measurementSelect + `
		WHERE m.child_id = $1
		ORDER BY m.created_at DESC, m.measurement_id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.q.QueryContext(ctx, query, childID, limit, skip)
	if err != nil {
		return nil, 0, persistenceErr("failed to list measurements", err)
	}
	defer rows.Close()

	items := []*domain.Measurement{}
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, 0, persistenceErr("failed to scan measurement", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, persistenceErr("failed to iterate measurements", err)
	}
	return items, total, nil
}

func (r *PostgresMeasurementsRepository) UpdateMeasurement(ctx context.Context, m *domain.Measurement) error {
	query := `
		UPDATE measurements
		SET age_months = $2, body_length_cm = $3, body_weight_kg = $4, measurement_date = $5, updated_at = $6
		WHERE measurement_id = $1
	`
	result, err := r.q.ExecContext(ctx, query,
		m.MeasurementID, m.AgeMonths, m.BodyLengthCm, m.BodyWeightKg, m.MeasurementDate, m.UpdatedAt)
	if err != nil {
		return persistenceErr("failed to update measurement", err)
	}
	return requireAffected(result, fmt.Sprintf("measurement %d", m.MeasurementID))
}

func (r *PostgresMeasurementsRepository) DeleteMeasurement(ctx context.Context, measurementID int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM measurements WHERE measurement_id = $1`, measurementID)
	if err != nil {
		return persistenceErr("failed to delete measurement", err)
	}
	return requireAffected(result, fmt.Sprintf("measurement %d", measurementID))
}

func (r *PostgresMeasurementsRepository) LatestMeasurement(ctx context.Context, childID string) (*domain.Measurement, error) {
	var row *sql.Row
	if childID == "" {
		row = r.q.QueryRowContext(ctx, measurementSelect+`
			ORDER BY m.created_at DESC, m.measurement_id DESC
			LIMIT 1`)
	} else {
		row = r.q.QueryRowContext(ctx, measurementSelect+`
			WHERE m.child_id = $1
			ORDER BY m.created_at DESC, m.measurement_id DESC
			LIMIT 1`, childID)
	}

	m, err := scanMeasurement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("latest measurement: %w", domain.ErrNotFound)
		}
		return nil, persistenceErr("failed to get latest measurement", err)
	}
	return m, nil
}
