package service

import (
	"context"
	"time"

	"github.com/reponseashimwe/ml-pipeline-database/internal/diagnosis"
	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
	"github.com/reponseashimwe/ml-pipeline-database/internal/events"
	"github.com/reponseashimwe/ml-pipeline-database/internal/repository"

	"go.uber.org/zap"
)

// MeasurementInput clinical fields of a measurement write.
// MeasurementDate defaults to today on insert and is left unchanged on update when nil.
type MeasurementInput struct {
	AgeMonths       int
	BodyLengthCm    float64
	BodyWeightKg    float64
	MeasurementDate *time.Time
}

// Validate checks the numeric ranges
func (in MeasurementInput) Validate() error {
	return in.clinical("").ValidateMeasures()
}

func (in MeasurementInput) clinical(g domain.Gender) domain.ClinicalInput {
	return domain.ClinicalInput{
		AgeMonths:    in.AgeMonths,
		BodyLengthCm: in.BodyLengthCm,
		BodyWeightKg: in.BodyWeightKg,
		Gender:       g,
	}
}

// Ledger applies measurement writes and re-projects the owning child in the same transaction.
// Every method must run inside Store.WithinTx.
type Ledger struct {
	deriver   *diagnosis.Deriver
	projector *StatusProjector
	now       Clock
	logger    *zap.Logger
}

func NewLedger(deriver *diagnosis.Deriver, now Clock, logger *zap.Logger) *Ledger {
	if now == nil {
		now = utcNow
	}
	return &Ledger{
		deriver:   deriver,
		projector: NewStatusProjector(now),
		now:       now,
		logger:    logger,
	}
}

// Now is the ledger clock
func (l *Ledger) Now() time.Time {
	return l.now()
}

// Projector returns the status projector bound to the ledger clock
func (l *Ledger) Projector() *StatusProjector {
	return l.projector
}

func (l *Ledger) derive(ctx context.Context, child *domain.Child, in MeasurementInput) (domain.Assessment, error) {
	clinical := in.clinical(child.Gender)
	if err := clinical.Validate(); err != nil {
		return domain.Assessment{}, err
	}
	assessment, err := l.deriver.Derive(ctx, clinical)
	if err != nil {
		l.logger.Error("Diagnosis derivation failed", zap.String("child_id", child.ChildID), zap.Error(err))
		return domain.Assessment{}, err
	}
	return assessment, nil
}

func (l *Ledger) writeDiagnosis(ctx context.Context, tx repository.Store, m *domain.Measurement, a domain.Assessment, now time.Time) error {
	d := &domain.Diagnosis{
		MeasurementID:  m.MeasurementID,
		StuntingStatus: a.StuntingStatus,
		WastingStatus:  a.WastingStatus,
		DiagnosisDate:  dateOf(now),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := tx.Diagnoses().UpsertDiagnosis(ctx, d); err != nil {
		return err
	}
	m.Diagnosis = d
	return nil
}

func (l *Ledger) project(ctx context.Context, tx repository.Store, childID, cause string, measurementID int64) (*events.StatusChanged, error) {
	change, err := l.projector.Project(ctx, tx, childID)
	if err != nil || change == nil {
		return nil, err
	}
	change.Cause = cause
	change.MeasurementID = measurementID
	return change, nil
}

// Insert appends a measurement, derives its diagnosis and re-projects the child.
func (l *Ledger) Insert(ctx context.Context, tx repository.Store, childID string, in MeasurementInput, cause string) (*domain.Measurement, *events.StatusChanged, error) {
	if err := tx.Children().LockChild(ctx, childID); err != nil {
		return nil, nil, err
	}
	child, err := tx.Children().GetChild(ctx, childID)
	if err != nil {
		return nil, nil, err
	}

	assessment, err := l.derive(ctx, child, in)
	if err != nil {
		return nil, nil, err
	}

	now := l.now()
	m := &domain.Measurement{
		ChildID:         childID,
		AgeMonths:       in.AgeMonths,
		BodyLengthCm:    in.BodyLengthCm,
		BodyWeightKg:    in.BodyWeightKg,
		MeasurementDate: dateOf(now),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.MeasurementDate != nil {
		m.MeasurementDate = dateOf(*in.MeasurementDate)
	}
	if err := tx.Measurements().CreateMeasurement(ctx, m); err != nil {
		return nil, nil, err
	}
	if err := l.writeDiagnosis(ctx, tx, m, assessment, now); err != nil {
		return nil, nil, err
	}

	change, err := l.project(ctx, tx, childID, cause, m.MeasurementID)
	if err != nil {
		return nil, nil, err
	}
	return m, change, nil
}

// lockMeasurement locks the owning child and re-reads the measurement under that lock.
func (l *Ledger) lockMeasurement(ctx context.Context, tx repository.Store, measurementID int64) (*domain.Measurement, error) {
	m, err := tx.Measurements().GetMeasurement(ctx, measurementID)
	if err != nil {
		return nil, err
	}
	if err := tx.Children().LockChild(ctx, m.ChildID); err != nil {
		return nil, err
	}
	return tx.Measurements().GetMeasurement(ctx, measurementID)
}

// Update overwrites the clinical fields, re-derives the diagnosis and re-projects the child,
// whether or not the measurement is the latest.
func (l *Ledger) Update(ctx context.Context, tx repository.Store, measurementID int64, in MeasurementInput) (*domain.Measurement, *events.StatusChanged, error) {
	m, err := l.lockMeasurement(ctx, tx, measurementID)
	if err != nil {
		return nil, nil, err
	}
	child, err := tx.Children().GetChild(ctx, m.ChildID)
	if err != nil {
		return nil, nil, err
	}

	assessment, err := l.derive(ctx, child, in)
	if err != nil {
		return nil, nil, err
	}

	now := l.now()
	m.AgeMonths = in.AgeMonths
	m.BodyLengthCm = in.BodyLengthCm
	m.BodyWeightKg = in.BodyWeightKg
	if in.MeasurementDate != nil {
		m.MeasurementDate = dateOf(*in.MeasurementDate)
	}
	m.UpdatedAt = now
	prev := m.Diagnosis
	if err := tx.Measurements().UpdateMeasurement(ctx, m); err != nil {
		return nil, nil, err
	}
	// an unchanged assessment leaves the diagnosis row as it was
	if sameAssessment(prev, assessment) {
		m.Diagnosis = prev
	} else if err := l.writeDiagnosis(ctx, tx, m, assessment, now); err != nil {
		return nil, nil, err
	}

	change, err := l.project(ctx, tx, m.ChildID, events.CauseMeasurementUpdated, m.MeasurementID)
	if err != nil {
		return nil, nil, err
	}
	return m, change, nil
}

// Delete removes the measurement with its diagnosis and re-projects the child from what remains.
func (l *Ledger) Delete(ctx context.Context, tx repository.Store, measurementID int64) (string, *events.StatusChanged, error) {
	m, err := l.lockMeasurement(ctx, tx, measurementID)
	if err != nil {
		return "", nil, err
	}
	if err := tx.Measurements().DeleteMeasurement(ctx, measurementID); err != nil {
		return "", nil, err
	}

	change, err := l.project(ctx, tx, m.ChildID, events.CauseMeasurementDeleted, measurementID)
	if err != nil {
		return "", nil, err
	}
	return m.ChildID, change, nil
}

func sameAssessment(d *domain.Diagnosis, a domain.Assessment) bool {
	return d != nil && d.StuntingStatus == a.StuntingStatus && d.WastingStatus == a.WastingStatus
}

func dateOf(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
