package repositories

import (
	"time"

	"github.com/gigbridge/marketplace-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type JobFilters struct {
	Status     *models.JobStatus `json:"status"`
	BusinessID *uint             `json:"business_id"`
	Skills     []string          `json:"skills"`
	Query      string            `json:"query"`
	BudgetMin  *int              `json:"budget_min"`
	BudgetMax  *int              `json:"budget_max"`
	DateFrom   *time.Time        `json:"date_from"`
	DateTo     *time.Time        `json:"date_to"`
	Limit      int               `json:"limit"`
	Offset     int               `json:"offset"`
	SortBy     string            `json:"sort_by"`    // "created_at", "budget", "title"
	SortOrder  string            `json:"sort_order"` // "asc", "desc"
}

type ProposalFilters struct {
	Status       *models.ProposalStatus `json:"status"`
	JobID        *uint                  `json:"job_id"`
	FreelancerID *uint                  `json:"freelancer_id"`
	DateFrom     *time.Time             `json:"date_from"`
	DateTo       *time.Time             `json:"date_to"`
	Limit        int                    `json:"limit"`
	Offset       int                    `json:"offset"`
	SortBy       string                 `json:"sort_by"`
	SortOrder    string                 `json:"sort_order"`
}

type UserFilters struct {
	Role   *models.UserRole `json:"role"`
	Skills []string         `json:"skills"`
	Query  string           `json:"query"` // Search query for name or email
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type JobStats struct {
	TotalProposals  int                           `json:"total_proposals"`
	StatusBreakdown map[models.ProposalStatus]int `json:"status_breakdown"`
	AverageRate     float64                       `json:"average_rate"`
}

type BusinessStats struct {
	TotalJobs        int `json:"total_jobs"`
	OpenJobs         int `json:"open_jobs"`
	TotalProposals   int `json:"total_proposals"`
	PendingProposals int `json:"pending_proposals"`
}

type FreelancerStats struct {
	TotalProposals    int     `json:"total_proposals"`
	ApprovedProposals int     `json:"approved_proposals"`
	PendingProposals  int     `json:"pending_proposals"`
	ApprovalRate      float64 `json:"approval_rate"`
}
