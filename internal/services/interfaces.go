package services

import (
	"context"

	"github.com/gigbridge/marketplace-service/internal/ai"
	"github.com/gigbridge/marketplace-service/internal/models"
	"github.com/gigbridge/marketplace-service/internal/repositories"
	"github.com/gigbridge/marketplace-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateJobRequest = validator.JobCreateRequest
type UpdateJobRequest = validator.JobUpdateRequest
type CreateProposalRequest = validator.ProposalCreateRequest
type UpdateProposalStatusRequest = validator.ProposalStatusUpdateRequest
type CreateOfferRequest = validator.OfferCreateRequest
type UpdateProfileRequest = validator.ProfileUpdateRequest
type UpdatePortfolioRequest = validator.PortfolioUpdateRequest
type CareerGuideRequest = validator.CareerGuideRequest
type CreatePaymentOrderRequest = validator.PaymentOrderRequest
type VerifyPaymentRequest = validator.PaymentVerifyRequest

type JobResponse struct {
	*models.Job
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanApply  bool `json:"can_apply"`
}

type JobListResponse struct {
	Jobs  []*JobResponse `json:"jobs"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

type ProposalResponse struct {
	*models.Proposal
	AllowedTransitions []models.ProposalStatus `json:"allowed_transitions"`
	CanWithdraw        bool                    `json:"can_withdraw"`
}

type ProposalListResponse struct {
	Proposals []*ProposalResponse `json:"proposals"`
	Total     int64               `json:"total"`
	Page      int                 `json:"page"`
	Size      int                 `json:"size"`
}

type UserResponse struct {
	*models.User
	Stats *repositories.FreelancerStats `json:"stats,omitempty"`
}

// MatchResult pairs a freelancer with their score for a job
type MatchResult struct {
	Freelancer  *models.User `json:"freelancer"`
	Score       int          `json:"score"`
	Explanation string       `json:"explanation"`
	Fallback    bool         `json:"fallback,omitempty"`
}

type CareerGuideResponse struct {
	Answer   string `json:"answer"`
	Fallback bool   `json:"fallback,omitempty"`
}

type PaymentOrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type PaymentVerificationResponse struct {
	Verified  bool   `json:"verified"`
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
}

// StatusChange describes a completed proposal transition for event publishing
type StatusChange struct {
	Proposal   *models.Proposal
	PrevStatus models.ProposalStatus
}

// ===== SERVICE INTERFACES =====

type JobService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateJobRequest, businessID uint) (*JobResponse, error)
	GetByID(ctx context.Context, id uint, userID uint) (*JobResponse, error)
	Update(ctx context.Context, id uint, req *UpdateJobRequest, userID uint) (*JobResponse, error)
	Delete(ctx context.Context, id uint, userID uint) error

	// List and search operations
	List(ctx context.Context, filters repositories.JobFilters, userID uint) (*JobListResponse, error)
	GetByBusiness(ctx context.Context, businessID uint, filters repositories.JobFilters) (*JobListResponse, error)
	Search(ctx context.Context, query string, filters repositories.JobFilters, userID uint) (*JobListResponse, error)

	// Statistics
	GetStats(ctx context.Context, id uint, userID uint) (*repositories.JobStats, error)
	GetBusinessStats(ctx context.Context, businessID uint) (*repositories.BusinessStats, error)
}

type ProposalService interface {
	// Submission
	Create(ctx context.Context, req *CreateProposalRequest, freelancerID uint) (*ProposalResponse, error)
	CreateOffer(ctx context.Context, req *CreateOfferRequest, businessID uint) (*ProposalResponse, error)

	// Lifecycle
	UpdateStatus(ctx context.Context, id uint, req *UpdateProposalStatusRequest, actorID uint) (*StatusChange, error)
	Withdraw(ctx context.Context, id uint, freelancerID uint) error

	// Read operations
	GetByID(ctx context.Context, id uint, userID uint) (*ProposalResponse, error)
	GetByJob(ctx context.Context, jobID uint, filters repositories.ProposalFilters, userID uint) (*ProposalListResponse, error)
	GetByFreelancer(ctx context.Context, freelancerID uint, filters repositories.ProposalFilters) (*ProposalListResponse, error)

	// Statistics
	GetFreelancerStats(ctx context.Context, freelancerID uint) (*repositories.FreelancerStats, error)
}

type UserService interface {
	// Profile operations
	GetByID(ctx context.Context, id uint) (*UserResponse, error)
	GetOrCreateByAuthID(ctx context.Context, authID, displayName, email string, role models.UserRole) (*models.User, error)
	UpdateProfile(ctx context.Context, id uint, req *UpdateProfileRequest, actorID uint) (*UserResponse, error)
	UpdatePortfolio(ctx context.Context, id uint, req *UpdatePortfolioRequest, actorID uint) (*UserResponse, error)

	// Listing
	List(ctx context.Context, filters repositories.UserFilters) ([]*UserResponse, int64, error)
}

type MatchingService interface {
	// ScoreMatch scores one freelancer against one job
	ScoreMatch(ctx context.Context, jobID, freelancerID uint) (*ai.MatchAssessment, error)

	// RankCandidates scores candidate freelancers for a job concurrently
	// and returns the top matches sorted by descending score.
	RankCandidates(ctx context.Context, jobID uint, limit int, userID uint) ([]*MatchResult, error)
}

type CareerService interface {
	// GetGuidance answers a freelancer's career question
	GetGuidance(ctx context.Context, req *CareerGuideRequest, userID uint) (*CareerGuideResponse, error)
}

type ReportService interface {
	// ExportProposals renders the proposals for a job as an xlsx workbook
	ExportProposals(ctx context.Context, jobID uint, userID uint) ([]byte, string, error)
}

type PaymentService interface {
	// CreateOrder creates a provider payment order for the amount
	CreateOrder(ctx context.Context, req *CreatePaymentOrderRequest, userID uint) (*PaymentOrderResponse, error)

	// VerifyPayment checks the provider signature over order and payment IDs
	VerifyPayment(ctx context.Context, req *VerifyPaymentRequest, userID uint) (*PaymentVerificationResponse, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Job() JobService
	Proposal() ProposalService
	User() UserService
	Matching() MatchingService
	Career() CareerService
	Report() ReportService
	Payment() PaymentService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
