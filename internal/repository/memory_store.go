package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
)

// MemoryStore keeps everything in process. Used when the DB is disabled and in tests.
// WithinTx holds the write lock for the whole transaction (single writer) and restores a snapshot on error.
type MemoryStore struct {
	mu *sync.RWMutex
	st *memState
	tx bool
}

type memState struct {
	children          map[string]*domain.Child
	measurements      map[int64]*domain.Measurement // without Diagnosis
	diagnoses         map[int64]*domain.Diagnosis   // measurement_id -> diagnosis
	nextMeasurementID int64
	nextDiagnosisID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu: &sync.RWMutex{},
		st: &memState{
			children:     map[string]*domain.Child{},
			measurements: map[int64]*domain.Measurement{},
			diagnoses:    map[int64]*domain.Diagnosis{},
		},
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Children() ChildrenRepository         { return &memoryChildren{s} }
func (s *MemoryStore) Measurements() MeasurementsRepository { return &memoryMeasurements{s} }
func (s *MemoryStore) Diagnoses() DiagnosesRepository       { return &memoryDiagnoses{s} }

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.tx {
		return fn(ctx, s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(ctx, &MemoryStore{mu: s.mu, st: s.st, tx: true}); err != nil {
		*s.st = *snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) read(fn func(st *memState) error) error {
	if !s.tx {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.st)
}

func (s *MemoryStore) write(fn func(st *memState) error) error {
	if !s.tx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.st)
}

func (st *memState) clone() *memState {
	out := &memState{
		children:          make(map[string]*domain.Child, len(st.children)),
		measurements:      make(map[int64]*domain.Measurement, len(st.measurements)),
		diagnoses:         make(map[int64]*domain.Diagnosis, len(st.diagnoses)),
		nextMeasurementID: st.nextMeasurementID,
		nextDiagnosisID:   st.nextDiagnosisID,
	}
	for k, v := range st.children {
		out.children[k] = copyChild(v)
	}
	for k, v := range st.measurements {
		m := *v
		out.measurements[k] = &m
	}
	for k, v := range st.diagnoses {
		d := *v
		out.diagnoses[k] = &d
	}
	return out
}

func copyChild(c *domain.Child) *domain.Child {
	out := *c
	if c.CurrentStuntingStatus != nil {
		st := *c.CurrentStuntingStatus
		out.CurrentStuntingStatus = &st
	}
	if c.CurrentWastingStatus != nil {
		ws := *c.CurrentWastingStatus
		out.CurrentWastingStatus = &ws
	}
	return &out
}

// withDiagnosis returns a copy of m with its diagnosis attached
func (st *memState) withDiagnosis(m *domain.Measurement) *domain.Measurement {
	out := *m
	out.Diagnosis = nil
	if d, ok := st.diagnoses[m.MeasurementID]; ok {
		dc := *d
		out.Diagnosis = &dc
	}
	return &out
}

// --- children ---

type memoryChildren struct{ s *MemoryStore }

func (r *memoryChildren) CreateChild(_ context.Context, child *domain.Child) error {
	return r.s.write(func(st *memState) error {
		if _, ok := st.children[child.ChildID]; ok {
			return fmt.Errorf("child %s already exists: %w", child.ChildID, domain.ErrConflict)
		}
		st.children[child.ChildID] = copyChild(child)
		return nil
	})
}

func (r *memoryChildren) GetChild(_ context.Context, childID string) (*domain.Child, error) {
	var out *domain.Child
	err := r.s.read(func(st *memState) error {
		c, ok := st.children[childID]
		if !ok {
			return fmt.Errorf("child %s: %w", childID, domain.ErrNotFound)
		}
		out = copyChild(c)
		return nil
	})
	return out, err
}

// LockChild only checks existence; the transaction already holds the store-wide write lock.
func (r *memoryChildren) LockChild(_ context.Context, childID string) error {
	return r.s.read(func(st *memState) error {
		if _, ok := st.children[childID]; !ok {
			return fmt.Errorf("child %s: %w", childID, domain.ErrNotFound)
		}
		return nil
	})
}

func (r *memoryChildren) ListChildren(_ context.Context, filter ChildrenFilter, skip, limit int) ([]*domain.Child, int, error) {
	var items []*domain.Child
	var total int
	err := r.s.read(func(st *memState) error {
		all := make([]*domain.Child, 0, len(st.children))
		for _, c := range st.children {
			if filter.StuntingStatus != nil && (c.CurrentStuntingStatus == nil || *c.CurrentStuntingStatus != *filter.StuntingStatus) {
				continue
			}
			if filter.WastingStatus != nil && (c.CurrentWastingStatus == nil || *c.CurrentWastingStatus != *filter.WastingStatus) {
				continue
			}
			all = append(all, c)
		}
		sort.Slice(all, func(i, j int) bool {
			if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].CreatedAt.After(all[j].CreatedAt)
			}
			return all[i].ChildID > all[j].ChildID
		})

		total = len(all)
		start, end := pageBounds(total, skip, limit)
		items = make([]*domain.Child, 0, end-start)
		for _, c := range all[start:end] {
			items = append(items, copyChild(c))
		}
		return nil
	})
	return items, total, err
}

func (r *memoryChildren) CountChildren(_ context.Context) (int, error) {
	var n int
	err := r.s.read(func(st *memState) error {
		n = len(st.children)
		return nil
	})
	return n, err
}

func (r *memoryChildren) UpdateChildGender(_ context.Context, childID string, gender domain.Gender, updatedAt time.Time) (*domain.Child, error) {
	var out *domain.Child
	err := r.s.write(func(st *memState) error {
		c, ok := st.children[childID]
		if !ok {
			return fmt.Errorf("child %s: %w", childID, domain.ErrNotFound)
		}
		c.Gender = gender
		c.GenderText = gender.Text()
		c.UpdatedAt = updatedAt
		out = copyChild(c)
		return nil
	})
	return out, err
}

func (r *memoryChildren) UpdateChildStatus(_ context.Context, childID string, stunting *domain.StuntingStatus, wasting *domain.WastingStatus, updatedAt time.Time) error {
	return r.s.write(func(st *memState) error {
		c, ok := st.children[childID]
		if !ok {
			return fmt.Errorf("child %s: %w", childID, domain.ErrNotFound)
		}
		updated := copyChild(&domain.Child{CurrentStuntingStatus: stunting, CurrentWastingStatus: wasting})
		c.CurrentStuntingStatus = updated.CurrentStuntingStatus
		c.CurrentWastingStatus = updated.CurrentWastingStatus
		c.UpdatedAt = updatedAt
		return nil
	})
}

func (r *memoryChildren) DeleteChild(_ context.Context, childID string) error {
	return r.s.write(func(st *memState) error {
		if _, ok := st.children[childID]; !ok {
			return fmt.Errorf("child %s: %w", childID, domain.ErrNotFound)
		}
		delete(st.children, childID)
		for id, m := range st.measurements {
			if m.ChildID == childID {
				delete(st.measurements, id)
				delete(st.diagnoses, id)
			}
		}
		return nil
	})
}

// --- measurements ---

type memoryMeasurements struct{ s *MemoryStore }

func (r *memoryMeasurements) CreateMeasurement(_ context.Context, m *domain.Measurement) error {
	return r.s.write(func(st *memState) error {
		if _, ok := st.children[m.ChildID]; !ok {
			return fmt.Errorf("child %s: %w", m.ChildID, domain.ErrNotFound)
		}
		st.nextMeasurementID++
		m.MeasurementID = st.nextMeasurementID
		stored := *m
		stored.Diagnosis = nil
		st.measurements[m.MeasurementID] = &stored
		return nil
	})
}

func (r *memoryMeasurements) GetMeasurement(_ context.Context, measurementID int64) (*domain.Measurement, error) {
	var out *domain.Measurement
	err := r.s.read(func(st *memState) error {
		m, ok := st.measurements[measurementID]
		if !ok {
			return fmt.Errorf("measurement %d: %w", measurementID, domain.ErrNotFound)
		}
		out = st.withDiagnosis(m)
		return nil
	})
	return out, err
}

func (r *memoryMeasurements) sortedFor(st *memState, childID string) []*domain.Measurement {
	var all []*domain.Measurement
	for _, m := range st.measurements {
		if childID == "" || m.ChildID == childID {
			all = append(all, m)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].After(all[j]) })
	return all
}

func (r *memoryMeasurements) ListMeasurements(_ context.Context, childID string, skip, limit int) ([]*domain.Measurement, int, error) {
	var items []*domain.Measurement
	var total int
	err := r.s.read(func(st *memState) error {
		all := r.sortedFor(st, childID)
		total = len(all)
		start, end := pageBounds(total, skip, limit)
		items = make([]*domain.Measurement, 0, end-start)
		for _, m := range all[start:end] {
			items = append(items, st.withDiagnosis(m))
		}
		return nil
	})
	return items, total, err
}

func (r *memoryMeasurements) UpdateMeasurement(_ context.Context, m *domain.Measurement) error {
	return r.s.write(func(st *memState) error {
		existing, ok := st.measurements[m.MeasurementID]
		if !ok {
			return fmt.Errorf("measurement %d: %w", m.MeasurementID, domain.ErrNotFound)
		}
		existing.AgeMonths = m.AgeMonths
		existing.BodyLengthCm = m.BodyLengthCm
		existing.BodyWeightKg = m.BodyWeightKg
		existing.MeasurementDate = m.MeasurementDate
		existing.UpdatedAt = m.UpdatedAt
		return nil
	})
}

func (r *memoryMeasurements) DeleteMeasurement(_ context.Context, measurementID int64) error {
	return r.s.write(func(st *memState) error {
		if _, ok := st.measurements[measurementID]; !ok {
			return fmt.Errorf("measurement %d: %w", measurementID, domain.ErrNotFound)
		}
		delete(st.measurements, measurementID)
		delete(st.diagnoses, measurementID)
		return nil
	})
}

func (r *memoryMeasurements) LatestMeasurement(_ context.Context, childID string) (*domain.Measurement, error) {
	var out *domain.Measurement
	err := r.s.read(func(st *memState) error {
		all := r.sortedFor(st, childID)
		if len(all) == 0 {
			return fmt.Errorf("latest measurement: %w", domain.ErrNotFound)
		}
		out = st.withDiagnosis(all[0])
		return nil
	})
	return out, err
}

// --- diagnoses ---

type memoryDiagnoses struct{ s *MemoryStore }

func (r *memoryDiagnoses) UpsertDiagnosis(_ context.Context, d *domain.Diagnosis) error {
	return r.s.write(func(st *memState) error {
		if _, ok := st.measurements[d.MeasurementID]; !ok {
			return fmt.Errorf("measurement %d: %w", d.MeasurementID, domain.ErrNotFound)
		}
		if existing, ok := st.diagnoses[d.MeasurementID]; ok {
			d.DiagnosisID = existing.DiagnosisID
			d.CreatedAt = existing.CreatedAt
		} else {
			st.nextDiagnosisID++
			d.DiagnosisID = st.nextDiagnosisID
		}
		stored := *d
		st.diagnoses[d.MeasurementID] = &stored
		return nil
	})
}

func (r *memoryDiagnoses) ListDiagnoses(_ context.Context, measurementID int64) ([]*domain.Diagnosis, error) {
	items := []*domain.Diagnosis{}
	err := r.s.read(func(st *memState) error {
		if d, ok := st.diagnoses[measurementID]; ok {
			dc := *d
			items = append(items, &dc)
		}
		return nil
	})
	return items, err
}

func pageBounds(total, skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	start := skip
	if start > total {
		start = total
	}
	end := total
	if limit > 0 && start+limit < total {
		end = start + limit
	}
	return start, end
}
