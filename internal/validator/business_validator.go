package validator

import (
	"fmt"
	"strings"

	"github.com/gigbridge/marketplace-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// BusinessValidator handles marketplace business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// ValidationError represents a single field-level validation failure
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

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates a struct against registered business rules
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	var errors ValidationErrors

	err := bv.validate.Struct(s)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			errors = append(errors, ValidationError{
				Field:   err.Field(),
				Message: bv.getErrorMessage(err),
				Value:   err.Value(),
				Rule:    err.Tag(),
			})
		}
	}

	return errors
}

// ValidateJobCreate validates job creation business rules
func (bv *BusinessValidator) ValidateJobCreate(req *JobCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, bv.validateSkillList("skills", req.Skills)...)

	return errors
}

// ValidateJobUpdate validates job update business rules
func (bv *BusinessValidator) ValidateJobUpdate(req *JobUpdateRequest, existing *models.Job) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	if req.Skills != nil {
		errors = append(errors, bv.validateSkillList("skills", req.Skills)...)
	}

	// Closed jobs can only be reopened, not edited
	if existing != nil && existing.Status == models.JobClosed {
		if req.Title != nil || req.Description != nil || req.Budget != nil || req.Skills != nil {
			errors = append(errors, ValidationError{
				Field:   "status",
				Message: "cannot edit a closed job",
				Value:   existing.Status,
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

// ValidateProposalCreate validates proposal submission business rules
func (bv *BusinessValidator) ValidateProposalCreate(req *ProposalCreateRequest, job *models.Job) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if job != nil && !job.IsOpen() {
		errors = append(errors, ValidationError{
			Field:   "job_id",
			Message: "job is not accepting proposals",
			Value:   job.Status,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateProfileUpdate validates freelancer/business profile updates
func (bv *BusinessValidator) ValidateProfileUpdate(req *ProfileUpdateRequest, role models.UserRole) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.Skills != nil {
		errors = append(errors, bv.validateSkillList("skills", req.Skills)...)
	}

	// Business accounts carry a company, not rates and skills
	if role == models.RoleBusiness {
		if req.HourlyRate != nil || req.Skills != nil {
			errors = append(errors, ValidationError{
				Field:   "role",
				Message: "business accounts cannot set freelancer fields",
				Value:   role,
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Job title validation (1-200 characters)
	bv.validate.RegisterValidation("job_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// Job description validation (max 5000 characters)
	bv.validate.RegisterValidation("job_description", func(fl validator.FieldLevel) bool {
		desc := fl.Field().String()
		return len(desc) <= 5000
	})

	// Cover letter validation (max 3000 characters)
	bv.validate.RegisterValidation("cover_letter", func(fl validator.FieldLevel) bool {
		letter := fl.Field().String()
		return len(letter) <= 3000
	})

	// Hourly rate / proposed rate validation (positive, sane upper bound)
	bv.validate.RegisterValidation("rate", func(fl validator.FieldLevel) bool {
		rate := fl.Field().Int()
		return rate >= 1 && rate <= 1_000_000
	})

	// user role validation
	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		role := fl.Field().String()
		validRoles := []models.UserRole{models.RoleFreelancer, models.RoleBusiness, models.RoleAdmin}
		for _, vr := range validRoles {
			if models.UserRole(role) == vr {
				return true
			}
		}
		return false
	})

	// proposal status validation
	bv.validate.RegisterValidation("proposal_status", func(fl validator.FieldLevel) bool {
		return models.IsValidProposalStatus(models.ProposalStatus(fl.Field().String()))
	})

	// job status validation
	bv.validate.RegisterValidation("job_status", func(fl validator.FieldLevel) bool {
		status := fl.Field().String()
		validStatuses := []models.JobStatus{models.JobOpen, models.JobInProgress, models.JobCompleted, models.JobClosed}
		for _, vs := range validStatuses {
			if models.JobStatus(status) == vs {
				return true
			}
		}
		return false
	})
}

// validateSkillList checks skill entries are non-empty and the list is bounded
func (bv *BusinessValidator) validateSkillList(field string, skills []string) ValidationErrors {
	var errors ValidationErrors

	if len(skills) > 30 {
		errors = append(errors, ValidationError{
			Field:   field,
			Message: "cannot have more than 30 skills",
			Value:   len(skills),
			Rule:    "business_logic",
		})
	}

	for i, skill := range skills {
		if strings.TrimSpace(skill) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: "skill cannot be empty",
				Value:   skill,
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

// getErrorMessage returns user-friendly error messages
func (bv *BusinessValidator) getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "job_title":
		return "must be between 1 and 200 characters"
	case "job_description":
		return "must not exceed 5000 characters"
	case "cover_letter":
		return "must not exceed 3000 characters"
	case "rate":
		return "must be a positive amount"
	case "user_role":
		return "must be a valid user role"
	case "proposal_status":
		return "must be a valid proposal status"
	case "job_status":
		return "must be a valid job status"
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}
