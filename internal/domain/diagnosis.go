package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StuntingStatus length-for-age classification
type StuntingStatus string

const (
	StuntingSeverelyStunted StuntingStatus = "Severely Stunted"
	StuntingStunted         StuntingStatus = "Stunted"
	StuntingNormal          StuntingStatus = "Normal"
	StuntingTall            StuntingStatus = "Tall"
)

// WastingStatus weight-for-age classification
type WastingStatus string

const (
	WastingSeverelyUnderweight WastingStatus = "Severely Underweight"
	WastingUnderweight         WastingStatus = "Underweight"
	WastingNormal              WastingStatus = "Normal weight"
	WastingRiskOfOverweight    WastingStatus = "Risk of Overweight"
)

var stuntingCodes = map[int]StuntingStatus{
	-2: StuntingSeverelyStunted,
	-1: StuntingStunted,
	0:  StuntingNormal,
	1:  StuntingTall,
}

var wastingCodes = map[int]WastingStatus{
	-2: WastingSeverelyUnderweight,
	-1: WastingUnderweight,
	0:  WastingNormal,
	1:  WastingRiskOfOverweight,
}

// ParseStuntingStatus accepts a label (case-insensitive) or a numeric code -2..1.
func ParseStuntingStatus(s string) (StuntingStatus, error) {
	s = strings.TrimSpace(s)
	if code, err := strconv.Atoi(s); err == nil {
		if st, ok := stuntingCodes[code]; ok {
			return st, nil
		}
		return "", fmt.Errorf("unknown stunting code %d", code)
	}
	for _, st := range stuntingCodes {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown stunting status %q", s)
}

// ParseWastingStatus accepts a label (case-insensitive) or a numeric code -2..1.
func ParseWastingStatus(s string) (WastingStatus, error) {
	s = strings.TrimSpace(s)
	if code, err := strconv.Atoi(s); err == nil {
		if ws, ok := wastingCodes[code]; ok {
			return ws, nil
		}
		return "", fmt.Errorf("unknown wasting code %d", code)
	}
	for _, ws := range wastingCodes {
		if strings.EqualFold(string(ws), s) {
			return ws, nil
		}
	}
	return "", fmt.Errorf("unknown wasting status %q", s)
}

// Diagnosis belongs to exactly one measurement
type Diagnosis struct {
	DiagnosisID    int64          `json:"diagnosis_id"`
	MeasurementID  int64          `json:"measurement_id"`
	StuntingStatus StuntingStatus `json:"stunting_status"`
	WastingStatus  WastingStatus  `json:"wasting_status"`
	DiagnosisDate  time.Time      `json:"diagnosis_date"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Assessment is the deriver output before it is attached to a measurement
type Assessment struct {
	StuntingStatus StuntingStatus
	WastingStatus  WastingStatus
}
