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

type JobPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewJobPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.JobRepository {
	return &JobPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Create creates a new job and invalidates listing caches
func (j *JobPostgreSQL) Create(ctx context.Context, tx *gorm.DB, job *models.Job) error {
	if err := tx.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, j.cacheManager.Job, fmt.Sprintf("business:%d:*", job.BusinessID))
	cache.SafeInvalidatePattern(ctx, j.cacheManager.Job, "list:*")

	return nil
}

// GetByID retrieves a job by ID with caching
func (j *JobPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Job, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var job models.Job

	err := j.cacheManager.Job.CacheOrExecute(ctx, cacheKey, &job, cache.JobCacheConfig.TTL, func() (interface{}, error) {
		var dbJob models.Job
		if err := tx.WithContext(ctx).First(&dbJob, id).Error; err != nil {
			return nil, err
		}
		return &dbJob, nil
	})
	if err != nil {
		return nil, err
	}

	return &job, nil
}

// GetByIDWithDetails retrieves a job with its business and proposal count
func (j *JobPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Job, error) {
	cacheKey := fmt.Sprintf("details:%d", id)
	var job models.Job

	err := j.cacheManager.Job.CacheOrExecute(ctx, cacheKey, &job, cache.JobCacheConfig.TTL, func() (interface{}, error) {
		var dbJob models.Job
		if err := tx.WithContext(ctx).
			Preload("Business").
			First(&dbJob, id).Error; err != nil {
			return nil, err
		}

		var count int64
		if err := tx.WithContext(ctx).
			Model(&models.Proposal{}).
			Where("job_id = ?", id).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count proposals: %w", err)
		}
		dbJob.ProposalCount = int(count)

		return &dbJob, nil
	})

	return &job, err
}

// Update updates a job and invalidates job and match caches
func (j *JobPostgreSQL) Update(ctx context.Context, tx *gorm.DB, job *models.Job) error {
	if err := tx.WithContext(ctx).Model(&models.Job{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
		"title":       job.Title,
		"description": job.Description,
		"budget":      job.Budget,
		"skills":      job.Skills,
		"status":      job.Status,
		"updated_at":  job.UpdatedAt,
	}).Error; err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	cache.InvalidateJobCache(ctx, j.cacheManager, job.ID, job.BusinessID)

	return nil
}

// Delete soft deletes a job
func (j *JobPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	var job models.Job
	if err := tx.WithContext(ctx).Select("id, business_id").First(&job, id).Error; err != nil {
		return fmt.Errorf("failed to get job before delete: %w", err)
	}

	if err := tx.WithContext(ctx).Delete(&models.Job{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	cache.InvalidateJobCache(ctx, j.cacheManager, id, job.BusinessID)

	return nil
}

// List retrieves jobs with filters and pagination
func (j *JobPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.JobFilters) ([]*models.Job, int64, error) {
	query := tx.WithContext(ctx).Model(&models.Job{})
	query = j.helpers.ApplyJobFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	query = j.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var jobs []*models.Job
	if err := query.Preload("Business").Find(&jobs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, total, nil
}

// GetByBusiness retrieves jobs posted by a business
func (j *JobPostgreSQL) GetByBusiness(ctx context.Context, tx *gorm.DB, businessID uint, filters repositories.JobFilters) ([]*models.Job, int64, error) {
	filters.BusinessID = &businessID
	return j.List(ctx, tx, filters)
}

// Search retrieves jobs matching a free-text query
func (j *JobPostgreSQL) Search(ctx context.Context, tx *gorm.DB, query string, filters repositories.JobFilters) ([]*models.Job, int64, error) {
	filters.Query = query
	return j.List(ctx, tx, filters)
}

// GetJobStats aggregates proposal counts and average rate for a job
func (j *JobPostgreSQL) GetJobStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.JobStats, error) {
	stats := &repositories.JobStats{
		StatusBreakdown: make(map[models.ProposalStatus]int),
	}

	type statusCount struct {
		Status models.ProposalStatus
		Count  int
	}
	var counts []statusCount
	if err := tx.WithContext(ctx).
		Model(&models.Proposal{}).
		Select("status, count(*) as count").
		Where("job_id = ?", id).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}

	for _, c := range counts {
		stats.StatusBreakdown[c.Status] = c.Count
		stats.TotalProposals += c.Count
	}

	var avgRate float64
	if err := tx.WithContext(ctx).
		Model(&models.Proposal{}).
		Select("COALESCE(AVG(proposed_rate), 0)").
		Where("job_id = ?", id).
		Scan(&avgRate).Error; err != nil {
		return nil, fmt.Errorf("failed to get average rate: %w", err)
	}
	stats.AverageRate = avgRate

	return stats, nil
}

// GetBusinessStats aggregates job and proposal counts for a business
func (j *JobPostgreSQL) GetBusinessStats(ctx context.Context, tx *gorm.DB, businessID uint) (*repositories.BusinessStats, error) {
	stats := &repositories.BusinessStats{}

	var totalJobs, openJobs int64
	if err := tx.WithContext(ctx).
		Model(&models.Job{}).
		Where("business_id = ?", businessID).
		Count(&totalJobs).Error; err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	if err := tx.WithContext(ctx).
		Model(&models.Job{}).
		Where("business_id = ? AND status = ?", businessID, models.JobOpen).
		Count(&openJobs).Error; err != nil {
		return nil, fmt.Errorf("failed to count open jobs: %w", err)
	}

	var totalProposals, pendingProposals int64
	jobIDs := tx.WithContext(ctx).Model(&models.Job{}).Select("id").Where("business_id = ?", businessID)
	if err := tx.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("job_id IN (?)", jobIDs).
		Count(&totalProposals).Error; err != nil {
		return nil, fmt.Errorf("failed to count proposals: %w", err)
	}
	pendingStatuses := []models.ProposalStatus{
		models.ProposalApplied,
		models.ProposalPendingFreelancer,
		models.ProposalUnderReview,
		models.ProposalWaitlist,
	}
	if err := tx.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("job_id IN (?) AND status IN ?", jobIDs, pendingStatuses).
		Count(&pendingProposals).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending proposals: %w", err)
	}

	stats.TotalJobs = int(totalJobs)
	stats.OpenJobs = int(openJobs)
	stats.TotalProposals = int(totalProposals)
	stats.PendingProposals = int(pendingProposals)

	return stats, nil
}

// ExistsByID checks if a job exists
func (j *JobPostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// IsOwnedBy checks if a job belongs to the given business
func (j *JobPostgreSQL) IsOwnedBy(ctx context.Context, tx *gorm.DB, id, businessID uint) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&models.Job{}).Where("id = ? AND business_id = ?", id, businessID).Count(&count).Error
	return count > 0, err
}
