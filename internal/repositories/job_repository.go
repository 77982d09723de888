package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/gigbridge/marketplace-service/internal/models"
)

// JobRepository interface for job posting operations
type JobRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, job *models.Job) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Job, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Job, error) // Include business, proposal count
	Update(ctx context.Context, tx *gorm.DB, job *models.Job) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters JobFilters) ([]*models.Job, int64, error)
	GetByBusiness(ctx context.Context, tx *gorm.DB, businessID uint, filters JobFilters) ([]*models.Job, int64, error)
	Search(ctx context.Context, tx *gorm.DB, query string, filters JobFilters) ([]*models.Job, int64, error)

	// Statistics
	GetJobStats(ctx context.Context, tx *gorm.DB, id uint) (*JobStats, error)
	GetBusinessStats(ctx context.Context, tx *gorm.DB, businessID uint) (*BusinessStats, error)

	// Validation and checks
	ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	IsOwnedBy(ctx context.Context, tx *gorm.DB, id, businessID uint) (bool, error)
}
