package ingestion

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"contenthub/internal/taxonomy"
)

type validateStage struct {
	validate *validator.Validate
	taxonomy *taxonomy.Service
}

func newValidateStage(tax *taxonomy.Service) *validateStage {
	return &validateStage{validate: NewRecordValidator(tax), taxonomy: tax}
}

// NewRecordValidator returns a validator that knows the "nonblank" and
// "category" record tags.
func NewRecordValidator(tax *taxonomy.Service) *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return tax.IsValidCategory(fl.Field().String())
	})
	return v
}

func (s *validateStage) Name() string { return "validate" }

func (s *validateStage) Run(_ context.Context, ex *Execution) error {
	err := s.validate.Struct(ex.Raw)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate record: %w", err)
	}
	violations := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, s.message(fe))
	}
	return &ValidationError{Prefix: "Validation failed", Violations: violations}
}

func (s *validateStage) message(fe validator.FieldError) string {
	switch fe.Field() {
	case "title":
		return "title is required"
	case "markdown":
		return "markdown body is required"
	case "summary":
		return "summary is required"
	case "type":
		return "type must be one of: " + strings.Join(s.taxonomy.CategorySlugs(), ", ")
	case "language":
		return "language must be a two-letter lowercase code"
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
