package repository

import (
	"context"
	"time"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
)

// Store is the unit of work over the three tables.
// Repositories obtained from a Store passed to WithinTx run inside that transaction.
type Store interface {
	Children() ChildrenRepository
	Measurements() MeasurementsRepository
	Diagnoses() DiagnosesRepository

	// WithinTx runs fn in one transaction. A non-nil error from fn rolls back every write.
	// Calling WithinTx on a transactional Store runs fn in the existing transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// ChildrenFilter optional status filters for ListChildren
type ChildrenFilter struct {
	StuntingStatus *domain.StuntingStatus
	WastingStatus  *domain.WastingStatus
}

// ChildrenRepository children table
type ChildrenRepository interface {
	// CreateChild returns domain.ErrConflict when child_id is taken.
	CreateChild(ctx context.Context, child *domain.Child) error
	GetChild(ctx context.Context, childID string) (*domain.Child, error)

	// LockChild takes the per-child write lock for the rest of the transaction.
	// Returns domain.ErrNotFound when the child does not exist.
	LockChild(ctx context.Context, childID string) error

	// ListChildren newest first
	ListChildren(ctx context.Context, filter ChildrenFilter, skip, limit int) ([]*domain.Child, int, error)
	CountChildren(ctx context.Context) (int, error)

	UpdateChildGender(ctx context.Context, childID string, gender domain.Gender, updatedAt time.Time) (*domain.Child, error)
	UpdateChildStatus(ctx context.Context, childID string, stunting *domain.StuntingStatus, wasting *domain.WastingStatus, updatedAt time.Time) error

	// DeleteChild cascades to measurements and their diagnoses.
	DeleteChild(ctx context.Context, childID string) error
}

// MeasurementsRepository measurements table. Reads return the attached diagnosis when present.
type MeasurementsRepository interface {
	// CreateMeasurement assigns MeasurementID. Returns domain.ErrNotFound when the child does not exist.
	CreateMeasurement(ctx context.Context, m *domain.Measurement) error
	GetMeasurement(ctx context.Context, measurementID int64) (*domain.Measurement, error)

	// ListMeasurements newest first (created_at, then measurement_id)
	ListMeasurements(ctx context.Context, childID string, skip, limit int) ([]*domain.Measurement, int, error)

	// UpdateMeasurement overwrites the clinical fields and measurement_date.
	UpdateMeasurement(ctx context.Context, m *domain.Measurement) error

	// DeleteMeasurement cascades to its diagnosis.
	DeleteMeasurement(ctx context.Context, measurementID int64) error

	// LatestMeasurement returns the measurement with the greatest (created_at, measurement_id).
	// An empty childID searches across all children. Returns domain.ErrNotFound when there is none.
	LatestMeasurement(ctx context.Context, childID string) (*domain.Measurement, error)
}

// DiagnosesRepository diagnosis table, one row per measurement
type DiagnosesRepository interface {
	// UpsertDiagnosis overwrites the diagnosis of d.MeasurementID or creates it.
	UpsertDiagnosis(ctx context.Context, d *domain.Diagnosis) error
	ListDiagnoses(ctx context.Context, measurementID int64) ([]*domain.Diagnosis, error)
}
