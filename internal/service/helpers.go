package service

import (
	"context"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
	"github.com/reponseashimwe/ml-pipeline-database/internal/events"

	"go.uber.org/zap"
)

// Pagination bounds
const (
	DefaultLimit = 100
	MaxLimit     = 100
)

// normalizePage applies the default limit and rejects out-of-range values
func normalizePage(skip, limit int) (int, int, error) {
	v := &domain.ValidationError{}
	if skip < 0 {
		v.Add("skip", "must be >= 0")
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		v.Add("limit", "must be between 1 and 100")
	}
	return skip, limit, v.OrNil()
}

// publishChange runs after commit; a failed publish never fails the request.
func publishChange(ctx context.Context, publisher events.Publisher, logger *zap.Logger, change *events.StatusChanged) {
	if change == nil || publisher == nil {
		return
	}
	if err := publisher.PublishStatusChanged(ctx, *change); err != nil {
		logger.Warn("Failed to publish status change",
			zap.String("child_id", change.ChildID),
			zap.String("cause", change.Cause),
			zap.Error(err),
		)
	}
}
