package service

import (
	"context"
	"errors"
	"strings"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
	"github.com/reponseashimwe/ml-pipeline-database/internal/events"
	"github.com/reponseashimwe/ml-pipeline-database/internal/repository"

	"go.uber.org/zap"
)

// ChildService child registry
type ChildService struct {
	store     repository.Store
	ledger    *Ledger
	ids       IDGenerator
	publisher events.Publisher
	logger    *zap.Logger
}

func NewChildService(store repository.Store, ledger *Ledger, ids IDGenerator, publisher events.Publisher, logger *zap.Logger) *ChildService {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ChildService{
		store:     store,
		ledger:    ledger,
		ids:       ids,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateChildRequest ChildID is optional; a supplied id that is taken is a conflict.
type CreateChildRequest struct {
	ChildID            string
	Gender             string
	InitialMeasurement *MeasurementInput
}

// CreateChildResponse Measurement is set when an initial measurement was given
type CreateChildResponse struct {
	Child       *domain.Child       `json:"child"`
	Measurement *domain.Measurement `json:"measurement,omitempty"`
}

// CreateChild registers a child and, when given, its first measurement in one transaction.
func (s *ChildService) CreateChild(ctx context.Context, req CreateChildRequest) (*CreateChildResponse, error) {
	gender, err := domain.ParseGender(req.Gender)
	if err != nil {
		return nil, domain.Invalid("gender", "must be Male or Female")
	}
	childID := strings.TrimSpace(req.ChildID)
	if childID != "" {
		if err := domain.ValidateChildID(childID); err != nil {
			return nil, err
		}
	}
	if req.InitialMeasurement != nil {
		if err := req.InitialMeasurement.Validate(); err != nil {
			return nil, err
		}
	}

	generated := childID == ""
	attempts := 1
	if generated {
		attempts = maxChildIDAttempts
	}

	var resp *CreateChildResponse
	var change *events.StatusChanged
	for i := 0; i < attempts; i++ {
		id := childID
		if generated {
			id = s.ids.NewChildID()
		}
		resp, change, err = s.createChild(ctx, id, gender, req.InitialMeasurement)
		if err == nil {
			break
		}
		if !generated || !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		s.logger.Warn("Generated child id already taken, retrying", zap.String("child_id", id), zap.Int("attempt", i+1))
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Child created", zap.String("child_id", resp.Child.ChildID), zap.Bool("with_measurement", resp.Measurement != nil))
	publishChange(ctx, s.publisher, s.logger, change)
	return resp, nil
}

func (s *ChildService) createChild(ctx context.Context, childID string, gender domain.Gender, initial *MeasurementInput) (*CreateChildResponse, *events.StatusChanged, error) {
	resp := &CreateChildResponse{}
	var change *events.StatusChanged
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		now := s.ledger.Now()
		child := &domain.Child{
			ChildID:    childID,
			Gender:     gender,
			GenderText: gender.Text(),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.Children().CreateChild(ctx, child); err != nil {
			return err
		}

		if initial != nil {
			m, ch, err := s.ledger.Insert(ctx, tx, childID, *initial, events.CauseChildCreated)
			if err != nil {
				return err
			}
			resp.Measurement = m
			change = ch
		}

		stored, err := tx.Children().GetChild(ctx, childID)
		if err != nil {
			return err
		}
		resp.Child = stored
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return resp, change, nil
}

func (s *ChildService) GetChild(ctx context.Context, childID string) (*domain.Child, error) {
	return s.store.Children().GetChild(ctx, childID)
}

// ListChildrenRequest filters accept labels or numeric codes
type ListChildrenRequest struct {
	Skip           int
	Limit          int
	StuntingStatus string
	WastingStatus  string
}

// ListChildrenResponse one page, newest child first
type ListChildrenResponse struct {
	Total int             `json:"total"`
	Items []*domain.Child `json:"items"`
}

func (s *ChildService) ListChildren(ctx context.Context, req ListChildrenRequest) (*ListChildrenResponse, error) {
	skip, limit, err := normalizePage(req.Skip, req.Limit)
	if err != nil {
		return nil, err
	}

	var filter repository.ChildrenFilter
	if req.StuntingStatus != "" {
		st, err := domain.ParseStuntingStatus(req.StuntingStatus)
		if err != nil {
			return nil, domain.Invalid("stunting_status", err.Error())
		}
		filter.StuntingStatus = &st
	}
	if req.WastingStatus != "" {
		ws, err := domain.ParseWastingStatus(req.WastingStatus)
		if err != nil {
			return nil, domain.Invalid("wasting_status", err.Error())
		}
		filter.WastingStatus = &ws
	}

	items, total, err := s.store.Children().ListChildren(ctx, filter, skip, limit)
	if err != nil {
		return nil, err
	}
	return &ListChildrenResponse{Total: total, Items: items}, nil
}

// UpdateChildRequest only the gender is mutable; status fields are left alone
type UpdateChildRequest struct {
	ChildID string
	Gender  string
}

func (s *ChildService) UpdateChild(ctx context.Context, req UpdateChildRequest) (*domain.Child, error) {
	gender, err := domain.ParseGender(req.Gender)
	if err != nil {
		return nil, domain.Invalid("gender", "must be Male or Female")
	}
	child, err := s.store.Children().UpdateChildGender(ctx, req.ChildID, gender, s.ledger.Now())
	if err != nil {
		return nil, err
	}
	s.logger.Info("Child updated", zap.String("child_id", req.ChildID), zap.String("gender", string(gender)))
	return child, nil
}

// DeleteChild removes the child with all its measurements and diagnoses.
func (s *ChildService) DeleteChild(ctx context.Context, childID string) error {
	if err := s.store.Children().DeleteChild(ctx, childID); err != nil {
		return err
	}
	s.logger.Info("Child deleted", zap.String("child_id", childID))
	return nil
}

// exportPageSize rows fetched per query by ExportChildren
const exportPageSize = 500

// ExportChildren returns every child, newest first
func (s *ChildService) ExportChildren(ctx context.Context) ([]*domain.Child, error) {
	var out []*domain.Child
	for skip := 0; ; skip += exportPageSize {
		page, _, err := s.store.Children().ListChildren(ctx, repository.ChildrenFilter{}, skip, exportPageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < exportPageSize {
			return out, nil
		}
	}
}
