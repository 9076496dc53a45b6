package httpapi

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"
	"github.com/reponseashimwe/ml-pipeline-database/internal/service"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json names in field errors
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("childid", func(fl validator.FieldLevel) bool {
		return domain.ValidateChildID(fl.Field().String()) == nil
	})
	return v
}

// validateStruct runs the validate tags and converts failures to a domain.ValidationError
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.Invalid("body", err.Error())
	}
	verr := &domain.ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fieldMessage(fe))
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be >= " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be <= " + fe.Param()
	case "childid":
		return "must be 1-36 letters, digits, '-' or '_' and not a reserved name"
	case "datetime":
		return "must be a date formatted " + fe.Param()
	}
	return "failed " + fe.Tag()
}

// measurementBody clinical fields shared by create and update
type measurementBody struct {
	AgeMonths       *int     `json:"age_months" validate:"required,min=0,max=60"`
	BodyLengthCm    *float64 `json:"body_length_cm" validate:"required,min=30,max=120"`
	BodyWeightKg    *float64 `json:"body_weight_kg" validate:"required,min=1,max=30"`
	MeasurementDate string   `json:"measurement_date" validate:"omitempty,datetime=2006-01-02"`
}

func (b measurementBody) input() service.MeasurementInput {
	in := service.MeasurementInput{
		AgeMonths:    *b.AgeMonths,
		BodyLengthCm: *b.BodyLengthCm,
		BodyWeightKg: *b.BodyWeightKg,
	}
	if b.MeasurementDate != "" {
		// format already checked by the datetime tag
		if d, err := time.Parse("2006-01-02", b.MeasurementDate); err == nil {
			in.MeasurementDate = &d
		}
	}
	return in
}

type createChildBody struct {
	ChildID     string           `json:"child_id" validate:"omitempty,max=36,childid"`
	Gender      string           `json:"gender" validate:"required"`
	Measurement *measurementBody `json:"measurement" validate:"-"`
}

type updateChildBody struct {
	Gender string `json:"gender" validate:"required"`
}

type createMeasurementBody struct {
	ChildID string `json:"child_id" validate:"required"`
	measurementBody
}

type pageQuery struct {
	Skip  int `json:"skip" validate:"min=0"`
	Limit int `json:"limit" validate:"min=1,max=100"`
}
