package diagnosis

import (
	"context"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
)

// Classifier predicts the stunting category. Implementations must be deterministic for equal inputs.
type Classifier interface {
	Classify(ctx context.Context, in domain.ClinicalInput) (domain.StuntingStatus, error)
}

// ClassifierFunc adapts a function to Classifier
type ClassifierFunc func(ctx context.Context, in domain.ClinicalInput) (domain.StuntingStatus, error)

func (f ClassifierFunc) Classify(ctx context.Context, in domain.ClinicalInput) (domain.StuntingStatus, error) {
	return f(ctx, in)
}

// ReferenceClassifier classifies from the built-in length-for-age table. Used when no model service is configured.
type ReferenceClassifier struct{}

func (ReferenceClassifier) Classify(_ context.Context, in domain.ClinicalInput) (domain.StuntingStatus, error) {
	return StuntingFromZ(LengthForAgeZ(in)), nil
}
