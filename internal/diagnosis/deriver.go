package diagnosis

import (
	"context"
	"fmt"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
)

// Deriver maps clinical inputs to a stunting and a wasting classification.
// Inputs are validated by the caller.
type Deriver struct {
	classifier Classifier
}

func NewDeriver(classifier Classifier) *Deriver {
	return &Deriver{classifier: classifier}
}

// Derive fails with domain.ErrDependency when the classifier fails.
func (d *Deriver) Derive(ctx context.Context, in domain.ClinicalInput) (domain.Assessment, error) {
	stunting, err := d.classifier.Classify(ctx, in)
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("classify stunting: %w: %w", domain.ErrDependency, err)
	}
	return domain.Assessment{
		StuntingStatus: stunting,
		WastingStatus:  ClassifyWasting(in),
	}, nil
}
