package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Gender canonical child gender
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Training labels used by the stunting model and stored as gender_text
const (
	genderTextMale   = "Laki-laki"
	genderTextFemale = "Perempuan"
)

// ParseGender accepts the canonical names or the training labels, case-insensitively.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m", strings.ToLower(genderTextMale):
		return GenderMale, nil
	case "female", "f", strings.ToLower(genderTextFemale):
		return GenderFemale, nil
	}
	return "", fmt.Errorf("unknown gender %q", s)
}

// Text returns the label the classifier was trained on.
func (g Gender) Text() string {
	if g == GenderFemale {
		return genderTextFemale
	}
	return genderTextMale
}

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// MaxChildIDLength matches children.child_id
const MaxChildIDLength = 36

// child ids are used verbatim as a URL path segment
var childIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// reservedChildIDs collide with fixed routes under /children
var reservedChildIDs = []string{"export"}

// ValidateChildID checks a client-supplied child id: 1..36 letters, digits, '-' or '_',
// and not a reserved route name.
func ValidateChildID(id string) error {
	switch {
	case id == "":
		return Invalid("child_id", "must not be empty")
	case len(id) > MaxChildIDLength:
		return Invalid("child_id", fmt.Sprintf("must be at most %d characters", MaxChildIDLength))
	case !childIDPattern.MatchString(id):
		return Invalid("child_id", "may contain only letters, digits, '-' and '_'")
	}
	for _, r := range reservedChildIDs {
		if strings.EqualFold(id, r) {
			return Invalid("child_id", fmt.Sprintf("%q is reserved", id))
		}
	}
	return nil
}

// Child owns the denormalized projection of its latest diagnosis.
// CurrentStuntingStatus and CurrentWastingStatus are both nil when the child has no measurements.
type Child struct {
	ChildID               string          `json:"child_id"`
	Gender                Gender          `json:"gender"`
	GenderText            string          `json:"gender_text"`
	CurrentStuntingStatus *StuntingStatus `json:"current_stunting_status"`
	CurrentWastingStatus  *WastingStatus  `json:"current_wasting_status"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}
