package service

import (
	"context"
	"fmt"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
	"github.com/reponseashimwe/ml-pipeline-database/internal/repository"

	"go.uber.org/zap"
)

// Database status values
const (
	DatabasePopulated = "populated"
	DatabaseEmpty     = "empty"
)

// DiagnosisService read side of diagnoses
type DiagnosisService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewDiagnosisService(store repository.Store, logger *zap.Logger) *DiagnosisService {
	return &DiagnosisService{store: store, logger: logger}
}

// GetLatestDiagnosis returns the diagnosis of the child's latest measurement.
// An empty childID looks across all children.
func (s *DiagnosisService) GetLatestDiagnosis(ctx context.Context, childID string) (*domain.Diagnosis, error) {
	if childID != "" {
		if _, err := s.store.Children().GetChild(ctx, childID); err != nil {
			return nil, err
		}
	}

	m, err := s.store.Measurements().LatestMeasurement(ctx, childID)
	if err != nil {
		return nil, err
	}
	if m.Diagnosis == nil {
		return nil, fmt.Errorf("diagnosis for measurement %d: %w", m.MeasurementID, domain.ErrNotFound)
	}
	return m.Diagnosis, nil
}

// ListDiagnoses diagnosis history of one measurement
func (s *DiagnosisService) ListDiagnoses(ctx context.Context, measurementID int64) ([]*domain.Diagnosis, error) {
	if _, err := s.store.Measurements().GetMeasurement(ctx, measurementID); err != nil {
		return nil, err
	}
	return s.store.Diagnoses().ListDiagnoses(ctx, measurementID)
}

// DatabaseStatus whether any child is registered
type DatabaseStatus struct {
	Status   string `json:"status"`
	Children int    `json:"children"`
}

func (s *DiagnosisService) DatabaseStatus(ctx context.Context) (*DatabaseStatus, error) {
	n, err := s.store.Children().CountChildren(ctx)
	if err != nil {
		s.logger.Error("Failed to count children", zap.Error(err))
		return nil, err
	}
	status := DatabaseEmpty
	if n > 0 {
		status = DatabasePopulated
	}
	return &DatabaseStatus{Status: status, Children: n}, nil
}
