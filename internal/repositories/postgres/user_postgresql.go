package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/gigbridge/marketplace-service/internal/cache"
	"github.com/gigbridge/marketplace-service/internal/models"
	"github.com/gigbridge/marketplace-service/internal/repositories"
)

type UserPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.UserRepository {
	return &UserPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Create creates a new user profile
func (u *UserPostgreSQL) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if err := tx.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID with caching
func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var user models.User

	err := u.cacheManager.User.CacheOrExecute(ctx, cacheKey, &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		var dbUser models.User
		if err := tx.WithContext(ctx).First(&dbUser, id).Error; err != nil {
			return nil, err
		}
		return &dbUser, nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetByAuthID retrieves a user by external identity subject. Not cached:
// it runs on every authenticated request and the auth middleware keeps its
// own short-lived cache.
func (u *UserPostgreSQL) GetByAuthID(ctx context.Context, tx *gorm.DB, authID string) (*models.User, error) {
	var user models.User
	if err := tx.WithContext(ctx).Where("auth_id = ?", authID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by email
func (u *UserPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates a user profile and invalidates cached reads
func (u *UserPostgreSQL) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if err := tx.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	cache.SafeDelete(ctx, u.cacheManager.User, fmt.Sprintf("id:%d", user.ID))
	cache.SafeInvalidatePattern(ctx, u.cacheManager.Match, fmt.Sprintf("*:freelancer:%d", user.ID))

	return nil
}

// GetByIDs retrieves multiple users in one query
func (u *UserPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var users []*models.User
	if err := tx.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// List retrieves users with filters and pagination
func (u *UserPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	query := tx.WithContext(ctx).Model(&models.User{})

	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if len(filters.Skills) > 0 {
		query = query.Where("skills && ?", pqArray(filters.Skills))
	}
	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Where("display_name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query = u.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)

	var users []*models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

// GetFreelancersBySkills retrieves freelancers whose skill list overlaps
// the given skills, ordered by most recently active profile first.
func (u *UserPostgreSQL) GetFreelancersBySkills(ctx context.Context, tx *gorm.DB, skills []string, limit int) ([]*models.User, error) {
	query := tx.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", models.RoleFreelancer)

	if len(skills) > 0 {
		query = query.Where("skills && ?", pqArray(skills))
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var users []*models.User
	if err := query.Order("updated_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get freelancers by skills: %w", err)
	}

	return users, nil
}

// ExistsByID checks if a user exists
func (u *UserPostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ExistsByAuthID checks if a user with the external subject exists
func (u *UserPostgreSQL) ExistsByAuthID(ctx context.Context, tx *gorm.DB, authID string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&models.User{}).Where("auth_id = ?", authID).Count(&count).Error
	return count > 0, err
}

// HasRole checks if a user has the given role
func (u *UserPostgreSQL) HasRole(ctx context.Context, tx *gorm.DB, id uint, role models.UserRole) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&models.User{}).Where("id = ? AND role = ?", id, role).Count(&count).Error
	return count > 0, err
}
