package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
	"github.com/reponseashimwe/ml-pipeline-database/internal/events"
	"github.com/reponseashimwe/ml-pipeline-database/internal/repository"
)

// StatusProjector keeps children.current_*_status equal to the diagnosis of the latest measurement.
type StatusProjector struct {
	now Clock
}

func NewStatusProjector(now Clock) *StatusProjector {
	if now == nil {
		now = utcNow
	}
	return &StatusProjector{now: now}
}

// Compute returns the diagnosis of the child's latest measurement, or (nil, nil) when the ledger is empty.
func (p *StatusProjector) Compute(ctx context.Context, s repository.Store, childID string) (*domain.StuntingStatus, *domain.WastingStatus, error) {
	latest, err := s.Measurements().LatestMeasurement(ctx, childID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if latest.Diagnosis == nil {
		return nil, nil, fmt.Errorf("measurement %d has no diagnosis: %w", latest.MeasurementID, domain.ErrPersistence)
	}
	st := latest.Diagnosis.StuntingStatus
	ws := latest.Diagnosis.WastingStatus
	return &st, &ws, nil
}

// Project recomputes the child's status inside tx and persists it when it moved.
// The caller must hold the child lock. Returns nil when nothing changed.
func (p *StatusProjector) Project(ctx context.Context, tx repository.Store, childID string) (*events.StatusChanged, error) {
	child, err := tx.Children().GetChild(ctx, childID)
	if err != nil {
		return nil, err
	}

	st, ws, err := p.Compute(ctx, tx, childID)
	if err != nil {
		return nil, err
	}
	if sameStatus(child.CurrentStuntingStatus, st) && sameStatus(child.CurrentWastingStatus, ws) {
		return nil, nil
	}

	now := p.now()
	if err := tx.Children().UpdateChildStatus(ctx, childID, st, ws, now); err != nil {
		return nil, err
	}
	return &events.StatusChanged{
		ChildID:          childID,
		PreviousStunting: child.CurrentStuntingStatus,
		PreviousWasting:  child.CurrentWastingStatus,
		StuntingStatus:   st,
		WastingStatus:    ws,
		OccurredAt:       now,
	}, nil
}

func sameStatus[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
