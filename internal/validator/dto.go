package validator

import (
	"github.com/gigbridge/marketplace-service/internal/models"
)

// JobCreateRequest represents the request structure for posting jobs
type JobCreateRequest struct {
	Title       string   `json:"title" validate:"required,job_title"`
	Description string   `json:"description" validate:"required,job_description"`
	Budget      int      `json:"budget" validate:"required,rate"`
	Skills      []string `json:"skills" validate:"required,min=1"`
}

// JobUpdateRequest represents the request structure for updating jobs
type JobUpdateRequest struct {
	Title       *string           `json:"title" validate:"omitempty,job_title"`
	Description *string           `json:"description" validate:"omitempty,job_description"`
	Budget      *int              `json:"budget" validate:"omitempty,rate"`
	Skills      []string          `json:"skills" validate:"omitempty,min=1"`
	Status      *models.JobStatus `json:"status" validate:"omitempty,job_status"`
}

// ProposalCreateRequest represents a freelancer applying to a job
type ProposalCreateRequest struct {
	JobID        uint   `json:"job_id" validate:"required"`
	CoverLetter  string `json:"cover_letter" validate:"required,cover_letter"`
	ProposedRate int    `json:"proposed_rate" validate:"required,rate"`
}

// ProposalStatusUpdateRequest represents a lifecycle status change
type ProposalStatusUpdateRequest struct {
	Status models.ProposalStatus `json:"status" validate:"required,proposal_status"`
}

// OfferCreateRequest represents a business inviting a freelancer to a job
type OfferCreateRequest struct {
	JobID        uint `json:"job_id" validate:"required"`
	FreelancerID uint `json:"freelancer_id" validate:"required"`
}

// ProfileUpdateRequest represents profile edits for either account type
type ProfileUpdateRequest struct {
	DisplayName *string  `json:"display_name" validate:"omitempty,min=1,max=100"`
	Bio         *string  `json:"bio" validate:"omitempty,max=2000"`
	Skills      []string `json:"skills" validate:"omitempty"`
	HourlyRate  *int     `json:"hourly_rate" validate:"omitempty,rate"`
	Company     *string  `json:"company" validate:"omitempty,max=200"`
}

// PortfolioUpdateRequest represents a freelancer portfolio replacement
type PortfolioUpdateRequest struct {
	Title          *string                        `json:"title" validate:"omitempty,max=200"`
	Summary        *string                        `json:"summary" validate:"omitempty,max=2000"`
	Projects       []models.PortfolioProject      `json:"projects" validate:"omitempty,dive"`
	Education      []models.EducationRecord       `json:"education" validate:"omitempty,dive"`
	WorkExperience []models.WorkExperienceRecord  `json:"work_experience" validate:"omitempty,dive"`
	Certifications []models.CertificationRecord   `json:"certifications" validate:"omitempty,dive"`
}

// CareerGuideRequest represents a career guidance question
type CareerGuideRequest struct {
	Question string `json:"question" validate:"required,min=3,max=2000"`
}

// PaymentOrderRequest represents a payment order creation request
type PaymentOrderRequest struct {
	Amount int `json:"amount" validate:"required,min=1"`
}

// PaymentVerifyRequest represents a payment signature verification request
type PaymentVerifyRequest struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}
