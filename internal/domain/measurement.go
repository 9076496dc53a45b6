package domain

import "time"

// Clinical input ranges
const (
	MinAgeMonths    = 0
	MaxAgeMonths    = 60
	MinBodyLengthCm = 30.0
	MaxBodyLengthCm = 120.0
	MinBodyWeightKg = 1.0
	MaxBodyWeightKg = 30.0
)

// Measurement is one entry of a child's ledger. Ordering is by CreatedAt then MeasurementID,
// never by MeasurementDate.
type Measurement struct {
	MeasurementID   int64      `json:"measurement_id"`
	ChildID         string     `json:"child_id"`
	AgeMonths       int        `json:"age_months"`
	BodyLengthCm    float64    `json:"body_length_cm"`
	BodyWeightKg    float64    `json:"body_weight_kg"`
	MeasurementDate time.Time  `json:"measurement_date"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Diagnosis       *Diagnosis `json:"diagnosis,omitempty"`
}

// After reports whether m was created after other (ties broken by the larger id).
func (m *Measurement) After(other *Measurement) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.After(other.CreatedAt)
	}
	return m.MeasurementID > other.MeasurementID
}

// ClinicalInput is what the deriver consumes
type ClinicalInput struct {
	AgeMonths    int
	BodyLengthCm float64
	BodyWeightKg float64
	Gender       Gender
}

// Validate checks the declared numeric and enum ranges.
func (in ClinicalInput) Validate() error {
	v := in.checkMeasures()
	if !in.Gender.Valid() {
		v.Add("gender", "must be Male or Female")
	}
	return v.OrNil()
}

// ValidateMeasures checks the numeric ranges only, for callers that learn the gender later.
func (in ClinicalInput) ValidateMeasures() error {
	return in.checkMeasures().OrNil()
}

func (in ClinicalInput) checkMeasures() *ValidationError {
	v := &ValidationError{}
	if in.AgeMonths < MinAgeMonths || in.AgeMonths > MaxAgeMonths {
		v.Add("age_months", "must be between 0 and 60")
	}
	if !inRange(in.BodyLengthCm, MinBodyLengthCm, MaxBodyLengthCm) {
		v.Add("body_length_cm", "must be between 30 and 120")
	}
	if !inRange(in.BodyWeightKg, MinBodyWeightKg, MaxBodyWeightKg) {
		v.Add("body_weight_kg", "must be between 1 and 30")
	}
	return v
}

// inRange is false for NaN
func inRange(x, min, max float64) bool {
	return x >= min && x <= max
}
