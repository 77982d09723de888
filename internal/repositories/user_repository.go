package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/gigbridge/marketplace-service/internal/models"
)

// UserRepository interface for user and profile operations
type UserRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByAuthID(ctx context.Context, tx *gorm.DB, authID string) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error

	// Bulk read operations (proposal listings, candidate ranking)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.User, error)

	// List and search operations
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
	GetFreelancersBySkills(ctx context.Context, tx *gorm.DB, skills []string, limit int) ([]*models.User, error)

	// Validation and checks
	ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	ExistsByAuthID(ctx context.Context, tx *gorm.DB, authID string) (bool, error)
	HasRole(ctx context.Context, tx *gorm.DB, id uint, role models.UserRole) (bool, error)
}
