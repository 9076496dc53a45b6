package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reponseashimwe/ml-pipeline-database/internal/diagnosis"
	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
	"github.com/reponseashimwe/ml-pipeline-database/internal/events"
	"github.com/reponseashimwe/ml-pipeline-database/internal/repository"
)

// stepClock advances one second per call
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// stubClassifier: body length under 70 cm is Stunted, anything else Normal. Age 13 fails.
type stubClassifier struct {
	mu    sync.Mutex
	calls int
}

func (s *stubClassifier) Classify(_ context.Context, in domain.ClinicalInput) (domain.StuntingStatus, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if in.AgeMonths == 13 {
		return "", errors.New("model unavailable")
	}
	if in.BodyLengthCm < 70 {
		return domain.StuntingStunted, nil
	}
	return domain.StuntingNormal, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.StatusChanged
	err    error
}

func (p *recordingPublisher) PublishStatusChanged(_ context.Context, ev events.StatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	store        *repository.MemoryStore
	classifier   *stubClassifier
	publisher    *recordingPublisher
	children     *ChildService
	measurements *MeasurementService
	diagnoses    *DiagnosisService
}

func newFixture(t *testing.T, clock Clock) *fixture {
	t.Helper()
	if clock == nil {
		c := &stepClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
		clock = c.Now
	}
	f := &fixture{
		store:      repository.NewMemoryStore(),
		classifier: &stubClassifier{},
		publisher:  &recordingPublisher{},
	}
	logger := zap.NewNop()
	ledger := NewLedger(diagnosis.NewDeriver(f.classifier), clock, logger)
	f.children = NewChildService(f.store, ledger, UUIDGenerator{}, f.publisher, logger)
	f.measurements = NewMeasurementService(f.store, ledger, f.publisher, logger)
	f.diagnoses = NewDiagnosisService(f.store, logger)
	return f
}

func (f *fixture) newChild(t *testing.T) string {
	t.Helper()
	resp, err := f.children.CreateChild(context.Background(), CreateChildRequest{Gender: "Male"})
	require.NoError(t, err)
	return resp.Child.ChildID
}

func (f *fixture) measure(t *testing.T, childID string, length float64) *domain.Measurement {
	t.Helper()
	m, err := f.measurements.CreateMeasurement(context.Background(), CreateMeasurementRequest{
		ChildID:          childID,
		MeasurementInput: MeasurementInput{AgeMonths: 12, BodyLengthCm: length, BodyWeightKg: 9.5},
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) child(t *testing.T, childID string) *domain.Child {
	t.Helper()
	c, err := f.children.GetChild(context.Background(), childID)
	require.NoError(t, err)
	return c
}

// expectedStatus recomputes the projection by brute force over the whole ledger
func (f *fixture) expectedStatus(t *testing.T, childID string) (*domain.StuntingStatus, *domain.WastingStatus) {
	t.Helper()
	items, _, err := f.store.Measurements().ListMeasurements(context.Background(), childID, 0, 0)
	require.NoError(t, err)
	var latest *domain.Measurement
	for _, m := range items {
		if latest == nil || m.After(latest) {
			latest = m
		}
	}
	if latest == nil {
		return nil, nil
	}
	require.NotNil(t, latest.Diagnosis)
	return &latest.Diagnosis.StuntingStatus, &latest.Diagnosis.WastingStatus
}

func assertProjected(t *testing.T, f *fixture, childID string) {
	t.Helper()
	st, ws := f.expectedStatus(t, childID)
	c := f.child(t, childID)
	assert.Equal(t, st, c.CurrentStuntingStatus)
	assert.Equal(t, ws, c.CurrentWastingStatus)
}

func TestCreateChild_EmptyLedger(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := f.children.CreateChild(context.Background(), CreateChildRequest{Gender: "Perempuan"})
	require.NoError(t, err)

	assert.Len(t, resp.Child.ChildID, 24)
	assert.Equal(t, domain.GenderFemale, resp.Child.Gender)
	assert.Equal(t, "Perempuan", resp.Child.GenderText)
	assert.Nil(t, resp.Child.CurrentStuntingStatus)
	assert.Nil(t, resp.Child.CurrentWastingStatus)
	assert.Nil(t, resp.Measurement)
	assert.Empty(t, f.publisher.events)
}

func TestCreateChild_WithInitialMeasurement(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := f.children.CreateChild(context.Background(), CreateChildRequest{
		ChildID:            "child-1",
		Gender:             "male",
		InitialMeasurement: &MeasurementInput{AgeMonths: 24, BodyLengthCm: 65, BodyWeightKg: 10},
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Measurement)
	require.NotNil(t, resp.Measurement.Diagnosis)
	require.NotNil(t, resp.Child.CurrentStuntingStatus)
	assert.Equal(t, domain.StuntingStunted, *resp.Child.CurrentStuntingStatus)
	assert.Equal(t, resp.Measurement.Diagnosis.WastingStatus, *resp.Child.CurrentWastingStatus)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.CauseChildCreated, f.publisher.events[0].Cause)
	assert.Equal(t, "child-1", f.publisher.events[0].ChildID)
}

func TestCreateChild_InitialMeasurementFailureLeavesNoChild(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.children.CreateChild(context.Background(), CreateChildRequest{
		ChildID:            "child-1",
		Gender:             "Male",
		InitialMeasurement: &MeasurementInput{AgeMonths: 13, BodyLengthCm: 75, BodyWeightKg: 9},
	})
	assert.ErrorIs(t, err, domain.ErrDependency)

	_, err = f.children.GetChild(context.Background(), "child-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateChild_Validation(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.children.CreateChild(context.Background(), CreateChildRequest{Gender: "other"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.children.CreateChild(context.Background(), CreateChildRequest{
		Gender:             "Male",
		InitialMeasurement: &MeasurementInput{AgeMonths: 61, BodyLengthCm: 75, BodyWeightKg: 9},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, f.classifier.calls)

	n, err := f.store.Children().CountChildren(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCreateChild_DuplicateSuppliedID(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.children.CreateChild(context.Background(), CreateChildRequest{ChildID: "dup", Gender: "Male"})
	require.NoError(t, err)

	_, err = f.children.CreateChild(context.Background(), CreateChildRequest{ChildID: "dup", Gender: "Female"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

type sequenceIDs struct {
	ids []string
	i   int
}

func (s *sequenceIDs) NewChildID() string {
	id := s.ids[s.i]
	s.i++
	return id
}

func TestCreateChild_RetriesGeneratedCollision(t *testing.T) {
	f := newFixture(t, nil)
	ledger := NewLedger(diagnosis.NewDeriver(f.classifier), nil, zap.NewNop())
	svc := NewChildService(f.store, ledger, &sequenceIDs{ids: []string{"A", "A", "B"}}, nil, zap.NewNop())

	first, err := svc.CreateChild(context.Background(), CreateChildRequest{Gender: "Male"})
	require.NoError(t, err)
	second, err := svc.CreateChild(context.Background(), CreateChildRequest{Gender: "Male"})
	require.NoError(t, err)

	assert.Equal(t, "A", first.Child.ChildID)
	assert.Equal(t, "B", second.Child.ChildID)
}

func TestCreateChild_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t, nil)
	ledger := NewLedger(diagnosis.NewDeriver(f.classifier), nil, zap.NewNop())
	svc := NewChildService(f.store, ledger, &sequenceIDs{ids: []string{"A", "A", "A", "A"}}, nil, zap.NewNop())

	_, err := svc.CreateChild(context.Background(), CreateChildRequest{Gender: "Male"})
	require.NoError(t, err)
	_, err = svc.CreateChild(context.Background(), CreateChildRequest{Gender: "Male"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreateChild_ConcurrentIDsUnique(t *testing.T) {
	f := newFixture(t, nil)
	const n = 50

	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := f.children.CreateChild(context.Background(), CreateChildRequest{Gender: "Female"})
			if assert.NoError(t, err) {
				ids[i] = resp.Child.ChildID
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	count, err := f.store.Children().CountChildren(context.Background())
	require.NoError(t, err)
	assert.Equal(t, n, count)
}

func TestOutOfOrderEdit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	childID := f.newChild(t)

	m1 := f.measure(t, childID, 80)
	m2 := f.measure(t, childID, 60)
	assert.Equal(t, domain.StuntingNormal, m1.Diagnosis.StuntingStatus)
	assert.Equal(t, domain.StuntingStunted, m2.Diagnosis.StuntingStatus)
	assert.Equal(t, domain.StuntingStunted, *f.child(t, childID).CurrentStuntingStatus)

	_, err := f.measurements.UpdateMeasurement(ctx, UpdateMeasurementRequest{
		MeasurementID:    m1.MeasurementID,
		MeasurementInput: MeasurementInput{AgeMonths: 12, BodyLengthCm: 82, BodyWeightKg: 9.5},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StuntingStunted, *f.child(t, childID).CurrentStuntingStatus)

	require.NoError(t, f.measurements.DeleteMeasurement(ctx, m2.MeasurementID))
	assert.Equal(t, domain.StuntingNormal, *f.child(t, childID).CurrentStuntingStatus)
	assertProjected(t, f, childID)

	require.NoError(t, f.measurements.DeleteMeasurement(ctx, m1.MeasurementID))
	c := f.child(t, childID)
	assert.Nil(t, c.CurrentStuntingStatus)
	assert.Nil(t, c.CurrentWastingStatus)
}

func TestUpdateLatestMeasurementReprojects(t *testing.T) {
	f := newFixture(t, nil)
	childID := f.newChild(t)
	f.measure(t, childID, 80)
	m2 := f.measure(t, childID, 85)

	updated, err := f.measurements.UpdateMeasurement(context.Background(), UpdateMeasurementRequest{
		MeasurementID:    m2.MeasurementID,
		MeasurementInput: MeasurementInput{AgeMonths: 12, BodyLengthCm: 62, BodyWeightKg: 9.5},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StuntingStunted, updated.Diagnosis.StuntingStatus)
	assert.Equal(t, domain.StuntingStunted, *f.child(t, childID).CurrentStuntingStatus)

	last := f.publisher.events[len(f.publisher.events)-1]
	assert.Equal(t, events.CauseMeasurementUpdated, last.Cause)
	require.NotNil(t, last.PreviousStunting)
	assert.Equal(t, domain.StuntingNormal, *last.PreviousStunting)
}

func TestUpdateIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	childID := f.newChild(t)
	m := f.measure(t, childID, 66)
	before := f.child(t, childID)
	published := len(f.publisher.events)

	updated, err := f.measurements.UpdateMeasurement(context.Background(), UpdateMeasurementRequest{
		MeasurementID:    m.MeasurementID,
		MeasurementInput: MeasurementInput{AgeMonths: m.AgeMonths, BodyLengthCm: m.BodyLengthCm, BodyWeightKg: m.BodyWeightKg},
	})
	require.NoError(t, err)

	assert.Equal(t, m.Diagnosis.StuntingStatus, updated.Diagnosis.StuntingStatus)
	assert.Equal(t, m.Diagnosis.WastingStatus, updated.Diagnosis.WastingStatus)
	assert.Equal(t, m.Diagnosis.DiagnosisID, updated.Diagnosis.DiagnosisID)
	after := f.child(t, childID)
	assert.Equal(t, before.CurrentStuntingStatus, after.CurrentStuntingStatus)
	assert.Equal(t, before.CurrentWastingStatus, after.CurrentWastingStatus)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	assert.Len(t, f.publisher.events, published)

	history, err := f.diagnoses.ListDiagnoses(context.Background(), m.MeasurementID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, m.Diagnosis.UpdatedAt, history[0].UpdatedAt)
	assert.Equal(t, m.Diagnosis.DiagnosisDate, history[0].DiagnosisDate)
}

func TestProjectionInvariantRandomSequence(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	children := []string{f.newChild(t), f.newChild(t)}
	var live []*domain.Measurement

	for step := 0; step < 200; step++ {
		childID := children[rng.Intn(len(children))]
		length := 55 + rng.Float64()*40
		switch op := rng.Intn(3); {
		case op == 0 || len(live) == 0:
			live = append(live, f.measure(t, childID, length))
		case op == 1:
			target := live[rng.Intn(len(live))]
			age := rng.Intn(61)
			if age == 13 {
				age = 14
			}
			_, err := f.measurements.UpdateMeasurement(ctx, UpdateMeasurementRequest{
				MeasurementID:    target.MeasurementID,
				MeasurementInput: MeasurementInput{AgeMonths: age, BodyLengthCm: length, BodyWeightKg: 1 + rng.Float64()*29},
			})
			require.NoError(t, err)
		default:
			i := rng.Intn(len(live))
			require.NoError(t, f.measurements.DeleteMeasurement(ctx, live[i].MeasurementID))
			live = append(live[:i], live[i+1:]...)
		}

		for _, id := range children {
			assertProjected(t, f, id)
		}
	}
}

func TestProjectionWithTiedCreationTimes(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, func() time.Time { return fixed })
	childID := f.newChild(t)

	f.measure(t, childID, 80)
	m2 := f.measure(t, childID, 60)
	assert.Equal(t, domain.StuntingStunted, *f.child(t, childID).CurrentStuntingStatus)

	d, err := f.diagnoses.GetLatestDiagnosis(context.Background(), childID)
	require.NoError(t, err)
	assert.Equal(t, m2.MeasurementID, d.MeasurementID)
}

func TestCreateMeasurement_RangeRejection(t *testing.T) {
	f := newFixture(t, nil)
	childID := f.newChild(t)
	f.measure(t, childID, 80)
	calls := f.classifier.calls
	before := f.child(t, childID)

	_, err := f.measurements.CreateMeasurement(context.Background(), CreateMeasurementRequest{
		ChildID:          childID,
		MeasurementInput: MeasurementInput{AgeMonths: 61, BodyLengthCm: 80, BodyWeightKg: 10},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, calls, f.classifier.calls)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "age_months")

	for _, in := range []MeasurementInput{
		{AgeMonths: 12, BodyLengthCm: math.NaN(), BodyWeightKg: 10},
		{AgeMonths: 12, BodyLengthCm: 80, BodyWeightKg: math.NaN()},
		{AgeMonths: 12, BodyLengthCm: math.Inf(1), BodyWeightKg: 10},
	} {
		_, err := f.measurements.CreateMeasurement(context.Background(), CreateMeasurementRequest{ChildID: childID, MeasurementInput: in})
		assert.ErrorIs(t, err, domain.ErrValidation, "%+v", in)
	}
	assert.Equal(t, calls, f.classifier.calls)

	resp, err := f.measurements.ListMeasurements(context.Background(), ListMeasurementsRequest{ChildID: childID})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, before, f.child(t, childID))
}

func TestCreateChild_RejectsUnroutableIDs(t *testing.T) {
	f := newFixture(t, nil)
	for _, id := range []string{"a/measurements", "export", "EXPORT", "has space", "x?y", strings.Repeat("a", 37)} {
		_, err := f.children.CreateChild(context.Background(), CreateChildRequest{ChildID: id, Gender: "Male"})
		require.Error(t, err, id)
		assert.ErrorIs(t, err, domain.ErrValidation, id)
	}

	total, err := f.children.ListChildren(context.Background(), ListChildrenRequest{})
	require.NoError(t, err)
	assert.Zero(t, total.Total)

	resp, err := f.children.CreateChild(context.Background(), CreateChildRequest{ChildID: "child_01-b", Gender: "Male"})
	require.NoError(t, err)
	assert.Equal(t, "child_01-b", resp.Child.ChildID)
}

func TestCreateMeasurement_UnknownChild(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.measurements.CreateMeasurement(context.Background(), CreateMeasurementRequest{
		ChildID:          "ghost",
		MeasurementInput: MeasurementInput{AgeMonths: 12, BodyLengthCm: 75, BodyWeightKg: 9},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClassifierFailureRollsBack(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	childID := f.newChild(t)
	m := f.measure(t, childID, 80)
	before := f.child(t, childID)

	_, err := f.measurements.CreateMeasurement(ctx, CreateMeasurementRequest{
		ChildID:          childID,
		MeasurementInput: MeasurementInput{AgeMonths: 13, BodyLengthCm: 60, BodyWeightKg: 9},
	})
	assert.ErrorIs(t, err, domain.ErrDependency)
	assert.Equal(t, domain.KindDependency, domain.KindOf(err))

	_, err = f.measurements.UpdateMeasurement(ctx, UpdateMeasurementRequest{
		MeasurementID:    m.MeasurementID,
		MeasurementInput: MeasurementInput{AgeMonths: 13, BodyLengthCm: 60, BodyWeightKg: 9},
	})
	assert.ErrorIs(t, err, domain.ErrDependency)

	stored, err := f.measurements.GetMeasurement(ctx, m.MeasurementID)
	require.NoError(t, err)
	assert.Equal(t, 12, stored.AgeMonths)
	assert.Equal(t, 80.0, stored.BodyLengthCm)
	assert.Equal(t, before, f.child(t, childID))

	resp, err := f.measurements.ListMeasurements(ctx, ListMeasurementsRequest{ChildID: childID})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
}

func TestUpdateAndDelete_NotFound(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.measurements.UpdateMeasurement(ctx, UpdateMeasurementRequest{
		MeasurementID:    99,
		MeasurementInput: MeasurementInput{AgeMonths: 12, BodyLengthCm: 75, BodyWeightKg: 9},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.measurements.DeleteMeasurement(ctx, 99), domain.ErrNotFound)
	assert.ErrorIs(t, f.children.DeleteChild(ctx, "ghost"), domain.ErrNotFound)

	_, err = f.children.UpdateChild(ctx, UpdateChildRequest{ChildID: "ghost", Gender: "Male"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteChildCascades(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	keep := f.newChild(t)
	drop := f.newChild(t)
	kept := f.measure(t, keep, 80)
	gone := f.measure(t, drop, 60)

	require.NoError(t, f.children.DeleteChild(ctx, drop))

	_, err := f.measurements.GetMeasurement(ctx, gone.MeasurementID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	history, err := f.store.Diagnoses().ListDiagnoses(ctx, gone.MeasurementID)
	require.NoError(t, err)
	assert.Empty(t, history)

	history, err = f.diagnoses.ListDiagnoses(ctx, kept.MeasurementID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestDeleteMeasurementRemovesOnlyItsDiagnosis(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	childID := f.newChild(t)
	m1 := f.measure(t, childID, 80)
	m2 := f.measure(t, childID, 60)

	require.NoError(t, f.measurements.DeleteMeasurement(ctx, m1.MeasurementID))

	_, err := f.diagnoses.ListDiagnoses(ctx, m1.MeasurementID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	history, err := f.diagnoses.ListDiagnoses(ctx, m2.MeasurementID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestUpdateChildKeepsStatus(t *testing.T) {
	f := newFixture(t, nil)
	childID := f.newChild(t)
	f.measure(t, childID, 60)

	c, err := f.children.UpdateChild(context.Background(), UpdateChildRequest{ChildID: childID, Gender: "Female"})
	require.NoError(t, err)
	assert.Equal(t, domain.GenderFemale, c.Gender)
	assert.Equal(t, "Perempuan", c.GenderText)
	require.NotNil(t, c.CurrentStuntingStatus)
	assert.Equal(t, domain.StuntingStunted, *c.CurrentStuntingStatus)

	_, err = f.children.UpdateChild(context.Background(), UpdateChildRequest{ChildID: childID, Gender: ""})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListChildren(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, f.newChild(t))
	}
	f.measure(t, ids[1], 60)
	f.measure(t, ids[3], 60)
	f.measure(t, ids[4], 90)

	resp, err := f.children.ListChildren(ctx, ListChildrenRequest{Skip: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Total)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, ids[3], resp.Items[0].ChildID)
	assert.Equal(t, ids[2], resp.Items[1].ChildID)

	resp, err = f.children.ListChildren(ctx, ListChildrenRequest{StuntingStatus: "-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, ids[3], resp.Items[0].ChildID)

	_, err = f.children.ListChildren(ctx, ListChildrenRequest{Limit: 101})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.children.ListChildren(ctx, ListChildrenRequest{Skip: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.children.ListChildren(ctx, ListChildrenRequest{WastingStatus: "Chubby"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListMeasurements_UnknownChild(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.measurements.ListMeasurements(context.Background(), ListMeasurementsRequest{ChildID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetLatestDiagnosis(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.diagnoses.GetLatestDiagnosis(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	a := f.newChild(t)
	b := f.newChild(t)
	_, err = f.diagnoses.GetLatestDiagnosis(ctx, a)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.diagnoses.GetLatestDiagnosis(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f.measure(t, a, 60)
	mb := f.measure(t, b, 90)

	d, err := f.diagnoses.GetLatestDiagnosis(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, domain.StuntingStunted, d.StuntingStatus)

	d, err = f.diagnoses.GetLatestDiagnosis(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, mb.MeasurementID, d.MeasurementID)
}

func TestDatabaseStatus(t *testing.T) {
	f := newFixture(t, nil)
	st, err := f.diagnoses.DatabaseStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DatabaseEmpty, st.Status)

	f.newChild(t)
	st, err = f.diagnoses.DatabaseStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DatabasePopulated, st.Status)
	assert.Equal(t, 1, st.Children)
}

func TestExportChildren(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < exportPageSize+3; i++ {
		_, err := f.children.CreateChild(context.Background(), CreateChildRequest{ChildID: fmt.Sprintf("C%04d", i), Gender: "Male"})
		require.NoError(t, err)
	}

	all, err := f.children.ExportChildren(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, exportPageSize+3)
	assert.Equal(t, fmt.Sprintf("C%04d", exportPageSize+2), all[0].ChildID)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t, nil)
	f.publisher.err = errors.New("broker down")
	childID := f.newChild(t)

	m := f.measure(t, childID, 60)
	assert.NotZero(t, m.MeasurementID)
	assert.Len(t, f.publisher.events, 1)
}

func TestUUIDGenerator(t *testing.T) {
	id := UUIDGenerator{}.NewChildID()
	assert.Len(t, id, 24)
	assert.Regexp(t, `^CH[0-9A-F]{22}$`, id)
	assert.NotEqual(t, id, UUIDGenerator{}.NewChildID())
}
