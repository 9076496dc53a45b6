package diagnosis

import (
	"sort"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
)

// refPoint is one row of a growth reference: median and standard deviation at age x (months).
type refPoint struct {
	x      float64
	median float64
	sd     float64
}

// Length-for-age (cm), ages 0-60 months. Approximation of the WHO child growth standards.
var lengthForAge = map[domain.Gender][]refPoint{
	domain.GenderMale: {
		{0, 49.9, 1.89}, {3, 61.4, 2.03}, {6, 67.6, 2.17}, {9, 72.0, 2.30}, {12, 75.7, 2.46},
		{18, 82.3, 2.80}, {24, 87.1, 3.10}, {30, 91.9, 3.40}, {36, 96.1, 3.70}, {42, 99.9, 3.95},
		{48, 103.3, 4.20}, {54, 106.7, 4.45}, {60, 110.0, 4.70},
	},
	domain.GenderFemale: {
		{0, 49.1, 1.86}, {3, 59.8, 2.07}, {6, 65.7, 2.23}, {9, 70.1, 2.38}, {12, 74.0, 2.55},
		{18, 80.7, 2.90}, {24, 85.7, 3.20}, {30, 90.7, 3.50}, {36, 95.1, 3.80}, {42, 99.0, 4.05},
		{48, 102.7, 4.30}, {54, 106.2, 4.55}, {60, 109.4, 4.80},
	},
}

// Weight-for-age (kg), ages 0-60 months.
var weightForAge = map[domain.Gender][]refPoint{
	domain.GenderMale: {
		{0, 3.3, 0.45}, {3, 6.4, 0.75}, {6, 7.9, 0.90}, {9, 8.9, 1.00}, {12, 9.6, 1.10},
		{18, 10.9, 1.25}, {24, 12.2, 1.40}, {30, 13.3, 1.55}, {36, 14.3, 1.70}, {42, 15.3, 1.85},
		{48, 16.3, 2.00}, {54, 17.3, 2.20}, {60, 18.3, 2.40},
	},
	domain.GenderFemale: {
		{0, 3.2, 0.45}, {3, 5.8, 0.70}, {6, 7.3, 0.85}, {9, 8.2, 0.95}, {12, 8.9, 1.05},
		{18, 10.2, 1.25}, {24, 11.5, 1.45}, {30, 12.7, 1.60}, {36, 13.9, 1.80}, {42, 15.0, 2.00},
		{48, 16.1, 2.20}, {54, 17.2, 2.40}, {60, 18.2, 2.60},
	},
}

// interpolate returns median and sd at x, clamped to the table bounds.
func interpolate(table []refPoint, x float64) (float64, float64) {
	if x <= table[0].x {
		return table[0].median, table[0].sd
	}
	last := table[len(table)-1]
	if x >= last.x {
		return last.median, last.sd
	}
	i := sort.Search(len(table), func(i int) bool { return table[i].x >= x })
	lo, hi := table[i-1], table[i]
	t := (x - lo.x) / (hi.x - lo.x)
	return lo.median + t*(hi.median-lo.median), lo.sd + t*(hi.sd-lo.sd)
}

func zScore(table []refPoint, x, value float64) float64 {
	median, sd := interpolate(table, x)
	return (value - median) / sd
}

// LengthForAgeZ z-score of body length for age and gender
func LengthForAgeZ(in domain.ClinicalInput) float64 {
	return zScore(lengthForAge[in.Gender], float64(in.AgeMonths), in.BodyLengthCm)
}

// WeightForAgeZ z-score of body weight for age and gender
func WeightForAgeZ(in domain.ClinicalInput) float64 {
	return zScore(weightForAge[in.Gender], float64(in.AgeMonths), in.BodyWeightKg)
}

// StuntingFromZ maps a length-for-age z-score to a category.
func StuntingFromZ(z float64) domain.StuntingStatus {
	switch {
	case z < -3:
		return domain.StuntingSeverelyStunted
	case z < -2:
		return domain.StuntingStunted
	case z > 3:
		return domain.StuntingTall
	}
	return domain.StuntingNormal
}

// WastingFromZ maps a weight-for-age z-score to a category.
func WastingFromZ(z float64) domain.WastingStatus {
	switch {
	case z < -3:
		return domain.WastingSeverelyUnderweight
	case z < -2:
		return domain.WastingUnderweight
	case z > 1:
		return domain.WastingRiskOfOverweight
	}
	return domain.WastingNormal
}

// ClassifyWasting is the deterministic rule set for the wasting axis.
func ClassifyWasting(in domain.ClinicalInput) domain.WastingStatus {
	return WastingFromZ(WeightForAgeZ(in))
}
