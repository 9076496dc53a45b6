package events

import (
	"context"
	"time"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
)

// Causes of a status change
const (
	CauseChildCreated       = "child_created"
	CauseMeasurementCreated = "measurement_created"
	CauseMeasurementUpdated = "measurement_updated"
	CauseMeasurementDeleted = "measurement_deleted"
)

// TypeStatusChanged names StatusChanged on the wire
const TypeStatusChanged = "child.status_changed"

// StatusChanged is emitted after a commit that moved a child's current status.
type StatusChanged struct {
	ChildID          string                 `json:"child_id"`
	Cause            string                 `json:"cause"`
	MeasurementID    int64                  `json:"measurement_id,omitempty"`
	PreviousStunting *domain.StuntingStatus `json:"previous_stunting_status"`
	PreviousWasting  *domain.WastingStatus  `json:"previous_wasting_status"`
	StuntingStatus   *domain.StuntingStatus `json:"current_stunting_status"`
	WastingStatus    *domain.WastingStatus  `json:"current_wasting_status"`
	OccurredAt       time.Time              `json:"occurred_at"`
}

// Publisher delivers StatusChanged events. Callers log failures and carry on.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, ev StatusChanged) error
	Close() error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) PublishStatusChanged(context.Context, StatusChanged) error { return nil }
func (NopPublisher) Close() error                                              { return nil }
