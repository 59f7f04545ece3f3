package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/openlearn/lms-service/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateRegister validates signup business rules
func (bv *BusinessValidator) ValidateRegister(req *RegisterRequest) ValidationErrors {
	errors := bv.Validate(req)

	// Admin accounts are provisioned out of band, never via signup
	if req.Role == models.RoleAdmin {
		errors = append(errors, ValidationError{
			Field:   "role",
			Message: "cannot self-register as admin",
			Value:   req.Role,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateCourseCreate validates course creation business rules
func (bv *BusinessValidator) ValidateCourseCreate(req *CourseCreateRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidateCourseUpdate validates course update business rules
func (bv *BusinessValidator) ValidateCourseUpdate(req *CourseUpdateRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidateReorder validates a curriculum rewrite payload beyond struct tags:
// the payload must not reference the same module or lesson twice.
func (bv *BusinessValidator) ValidateReorder(req *ReorderCurriculumRequest) ValidationErrors {
	errors := bv.Validate(req)

	seenModules := make(map[uint]bool)
	seenLessons := make(map[uint]bool)
	for _, mo := range req.Modules {
		if seenModules[mo.ModuleID] {
			errors = append(errors, ValidationError{
				Field:   "modules",
				Message: "module listed more than once",
				Value:   mo.ModuleID,
				Rule:    "business_logic",
			})
		}
		seenModules[mo.ModuleID] = true

		for _, lessonID := range mo.LessonIDs {
			if seenLessons[lessonID] {
				errors = append(errors, ValidationError{
					Field:   "modules",
					Message: "lesson listed more than once",
					Value:   lessonID,
					Rule:    "business_logic",
				})
			}
			seenLessons[lessonID] = true
		}
	}

	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Title validation (1-200 characters after trimming)
	bv.validate.RegisterValidation("course_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// Description validation (max 5000 characters)
	bv.validate.RegisterValidation("course_description", func(fl validator.FieldLevel) bool {
		desc := fl.Field().String()
		return len(desc) <= 5000
	})

	// Person name validation (1-120 characters after trimming)
	bv.validate.RegisterValidation("person_name", func(fl validator.FieldLevel) bool {
		name := strings.TrimSpace(fl.Field().String())
		return len(name) >= 1 && len(name) <= 120
	})

	// Course level validation
	bv.validate.RegisterValidation("course_level", func(fl validator.FieldLevel) bool {
		return models.CourseLevel(fl.Field().String()).Valid()
	})

	// Signup role validation
	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})

	// Price in minor units, zero means free
	bv.validate.RegisterValidation("price_minor", func(fl validator.FieldLevel) bool {
		price := fl.Field().Int()
		return price >= 0 && price <= 100_000_000
	})
}
