package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/gigbridge/marketplace-service/internal/models"
)

// ProposalRepository interface for proposal lifecycle operations
type ProposalRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, proposal *models.Proposal) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Proposal, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Proposal, error) // Include job, freelancer
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// GetByIDForUpdate loads a proposal under a row lock. Must run inside a
	// transaction; concurrent status updates serialize on this lock.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Proposal, error)

	// UpdateStatus persists a status change for a proposal
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.ProposalStatus) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters ProposalFilters) ([]*models.Proposal, int64, error)
	GetByJob(ctx context.Context, tx *gorm.DB, jobID uint, filters ProposalFilters) ([]*models.Proposal, int64, error)
	GetByFreelancer(ctx context.Context, tx *gorm.DB, freelancerID uint, filters ProposalFilters) ([]*models.Proposal, int64, error)

	// Statistics
	GetFreelancerStats(ctx context.Context, tx *gorm.DB, freelancerID uint) (*FreelancerStats, error)

	// Validation and checks
	ExistsByJobAndFreelancer(ctx context.Context, tx *gorm.DB, jobID, freelancerID uint) (bool, error)
	CountByJob(ctx context.Context, tx *gorm.DB, jobID uint) (int64, error)
}
