package service

import (
	"context"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
	"github.com/reponseashimwe/ml-pipeline-database/internal/events"
	"github.com/reponseashimwe/ml-pipeline-database/internal/repository"

	"go.uber.org/zap"
)

// MeasurementService measurement ledger operations
type MeasurementService struct {
	store     repository.Store
	ledger    *Ledger
	publisher events.Publisher
	logger    *zap.Logger
}

func NewMeasurementService(store repository.Store, ledger *Ledger, publisher events.Publisher, logger *zap.Logger) *MeasurementService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &MeasurementService{
		store:     store,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
	}
}

type CreateMeasurementRequest struct {
	ChildID string
	MeasurementInput
}

// CreateMeasurement validates before touching the store; the child must exist.
func (s *MeasurementService) CreateMeasurement(ctx context.Context, req CreateMeasurementRequest) (*domain.Measurement, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var m *domain.Measurement
	var change *events.StatusChanged
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		m, change, err = s.ledger.Insert(ctx, tx, req.ChildID, req.MeasurementInput, events.CauseMeasurementCreated)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Measurement created",
		zap.String("child_id", m.ChildID),
		zap.Int64("measurement_id", m.MeasurementID),
		zap.String("stunting_status", string(m.Diagnosis.StuntingStatus)),
		zap.String("wasting_status", string(m.Diagnosis.WastingStatus)),
	)
	publishChange(ctx, s.publisher, s.logger, change)
	return m, nil
}

func (s *MeasurementService) GetMeasurement(ctx context.Context, measurementID int64) (*domain.Measurement, error) {
	return s.store.Measurements().GetMeasurement(ctx, measurementID)
}

type ListMeasurementsRequest struct {
	ChildID string
	Skip    int
	Limit   int
}

type ListMeasurementsResponse struct {
	Total int                   `json:"total"`
	Items []*domain.Measurement `json:"items"`
}

// ListMeasurements newest first; NotFound when the child does not exist.
func (s *MeasurementService) ListMeasurements(ctx context.Context, req ListMeasurementsRequest) (*ListMeasurementsResponse, error) {
	skip, limit, err := normalizePage(req.Skip, req.Limit)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Children().GetChild(ctx, req.ChildID); err != nil {
		return nil, err
	}

	items, total, err := s.store.Measurements().ListMeasurements(ctx, req.ChildID, skip, limit)
	if err != nil {
		return nil, err
	}
	return &ListMeasurementsResponse{Total: total, Items: items}, nil
}

type UpdateMeasurementRequest struct {
	MeasurementID int64
	MeasurementInput
}

// UpdateMeasurement re-derives the diagnosis and re-projects the owning child.
func (s *MeasurementService) UpdateMeasurement(ctx context.Context, req UpdateMeasurementRequest) (*domain.Measurement, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var m *domain.Measurement
	var change *events.StatusChanged
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		m, change, err = s.ledger.Update(ctx, tx, req.MeasurementID, req.MeasurementInput)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Measurement updated",
		zap.String("child_id", m.ChildID),
		zap.Int64("measurement_id", m.MeasurementID),
		zap.Bool("status_changed", change != nil),
	)
	publishChange(ctx, s.publisher, s.logger, change)
	return m, nil
}

// DeleteMeasurement removes the measurement and its diagnosis, then re-projects the owning child.
func (s *MeasurementService) DeleteMeasurement(ctx context.Context, measurementID int64) error {
	var childID string
	var change *events.StatusChanged
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		childID, change, err = s.ledger.Delete(ctx, tx, measurementID)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("Measurement deleted",
		zap.String("child_id", childID),
		zap.Int64("measurement_id", measurementID),
		zap.Bool("status_changed", change != nil),
	)
	publishChange(ctx, s.publisher, s.logger, change)
	return nil
}
