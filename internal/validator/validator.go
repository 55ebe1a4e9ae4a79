package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/classlens/ai-assist/internal/models"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator wraps go-playground/validator with domain rules.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New()

	v := &Validator{validate: validate}
	v.registerDomainRules()

	return v
}

// Validate returns nil when s passes, a ValidationErrors otherwise.
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	return v.toValidationErrors(err)
}

func (v *Validator) toValidationErrors(err error) ValidationErrors {
	var errors ValidationErrors
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}
	for _, fe := range fieldErrs {
		errors = append(errors, ValidationError{
			Field:   fe.Field(),
			Message: v.getErrorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return errors
}

func (v *Validator) registerDomainRules() {
	v.validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		return models.QuestionType(fl.Field().String()).Valid()
	})

	v.validate.RegisterValidation("test_status", func(fl validator.FieldLevel) bool {
		return models.TestStatus(fl.Field().String()).Valid()
	})

	v.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})

	v.validate.RegisterValidation("severity_level", func(fl validator.FieldLevel) bool {
		return models.Severity(fl.Field().String()).Valid()
	})

	// Title validation (1-255 characters after trimming)
	v.validate.RegisterValidation("material_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 255
	})

	// Test duration in seconds (1 minute to 6 hours)
	v.validate.RegisterValidation("test_duration", func(fl validator.FieldLevel) bool {
		duration := fl.Field().Int()
		return duration >= 60 && duration <= 21600
	})
}

// getErrorMessage returns user-friendly error messages
func (v *Validator) getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "question_type":
		return "must be multiple-choice, short-answer, or essay"
	case "test_status":
		return "must be active, inactive, or completed"
	case "user_role":
		return "must be teacher or student"
	case "severity_level":
		return "must be low, medium, or high"
	case "material_title":
		return "must be between 1 and 255 characters"
	case "test_duration":
		return "must be between 60 and 21600 seconds"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}

// ValidateQuestions enforces the rules struct tags cannot express: each
// multiple-choice question needs at least two options.
func (v *Validator) ValidateQuestions(questions []QuestionCreateRequest) ValidationErrors {
	var errors ValidationErrors

	for i, q := range questions {
		if models.QuestionType(q.Type) == models.QuestionMultipleChoice && len(q.Options) < 2 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("questions[%d].options", i),
				Message: "multiple-choice questions need at least 2 options",
				Value:   len(q.Options),
				Rule:    "question_options",
			})
		}
	}

	return errors
}
