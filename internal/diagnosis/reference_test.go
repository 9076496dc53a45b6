package diagnosis

import (
	"context"
	"testing"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boy(age int, length, weight float64) domain.ClinicalInput {
	return domain.ClinicalInput{AgeMonths: age, BodyLengthCm: length, BodyWeightKg: weight, Gender: domain.GenderMale}
}

func TestInterpolate(t *testing.T) {
	table := lengthForAge[domain.GenderMale]

	median, sd := interpolate(table, 27)
	assert.InDelta(t, 89.5, median, 1e-9)
	assert.InDelta(t, 3.25, sd, 1e-9)

	median, _ = interpolate(table, -5)
	assert.Equal(t, 49.9, median)
	median, _ = interpolate(table, 72)
	assert.Equal(t, 110.0, median)
}

func TestReferenceClassifier_Stunting(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		length float64
		want   domain.StuntingStatus
	}{
		{87.1, domain.StuntingNormal},
		{79.35, domain.StuntingStunted},
		{76.25, domain.StuntingSeverelyStunted},
		{97.95, domain.StuntingTall},
	}
	for _, tc := range cases {
		got, err := ReferenceClassifier{}.Classify(ctx, boy(24, tc.length, 12))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "length %v", tc.length)
	}
}

func TestClassifyWasting(t *testing.T) {
	cases := []struct {
		weight float64
		want   domain.WastingStatus
	}{
		{12.2, domain.WastingNormal},
		{8.7, domain.WastingUnderweight},
		{7.3, domain.WastingSeverelyUnderweight},
		{14.3, domain.WastingRiskOfOverweight},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyWasting(boy(24, 87, tc.weight)), "weight %v", tc.weight)
	}
}

func TestClassifyWasting_GenderSpecific(t *testing.T) {
	// 7.9kg at 6 months is the boys' median but above the girls' median.
	girl := domain.ClinicalInput{AgeMonths: 6, BodyLengthCm: 66, BodyWeightKg: 7.9, Gender: domain.GenderFemale}
	assert.Greater(t, WeightForAgeZ(girl), WeightForAgeZ(boy(6, 66, 7.9)))
}
