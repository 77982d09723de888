package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gigbridge/marketplace-service/internal/cache"
	"github.com/gigbridge/marketplace-service/internal/models"
	"github.com/gigbridge/marketplace-service/internal/repositories"
)

type ProposalPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewProposalPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ProposalRepository {
	return &ProposalPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Create creates a new proposal and invalidates job proposal listings
func (p *ProposalPostgreSQL) Create(ctx context.Context, tx *gorm.DB, proposal *models.Proposal) error {
	if err := tx.WithContext(ctx).Create(proposal).Error; err != nil {
		return fmt.Errorf("failed to create proposal: %w", err)
	}

	cache.InvalidateProposalCache(ctx, p.cacheManager, proposal.ID, proposal.JobID, proposal.FreelancerID)

	return nil
}

// GetByID retrieves a proposal by ID. Reads are not cached through
// CacheOrExecute here: status is the field everyone reads and a stale
// status right after a transition is worse than the extra query.
func (p *ProposalPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Proposal, error) {
	var proposal models.Proposal
	if err := tx.WithContext(ctx).First(&proposal, id).Error; err != nil {
		return nil, err
	}
	return &proposal, nil
}

// GetByIDWithDetails retrieves a proposal with its job and freelancer
func (p *ProposalPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Proposal, error) {
	var proposal models.Proposal
	if err := tx.WithContext(ctx).
		Preload("Job").
		Preload("Freelancer").
		First(&proposal, id).Error; err != nil {
		return nil, err
	}
	return &proposal, nil
}

// GetByIDForUpdate loads a proposal under SELECT ... FOR UPDATE. Concurrent
// status transitions serialize on this row lock, so the second writer sees
// the first writer's final status.
func (p *ProposalPostgreSQL) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Proposal, error) {
	var proposal models.Proposal
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&proposal, id).Error; err != nil {
		return nil, err
	}
	return &proposal, nil
}

// UpdateStatus persists a status change
func (p *ProposalPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.ProposalStatus) error {
	result := tx.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update proposal status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	var proposal models.Proposal
	if err := tx.WithContext(ctx).Select("id, job_id, freelancer_id").First(&proposal, id).Error; err == nil {
		cache.InvalidateProposalCache(ctx, p.cacheManager, proposal.ID, proposal.JobID, proposal.FreelancerID)
	}

	return nil
}

// Delete hard deletes a proposal (withdrawal removes the record)
func (p *ProposalPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	var proposal models.Proposal
	if err := tx.WithContext(ctx).Select("id, job_id, freelancer_id").First(&proposal, id).Error; err != nil {
		return fmt.Errorf("failed to get proposal before delete: %w", err)
	}

	if err := tx.WithContext(ctx).Delete(&models.Proposal{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete proposal: %w", err)
	}

	cache.InvalidateProposalCache(ctx, p.cacheManager, id, proposal.JobID, proposal.FreelancerID)

	return nil
}

// List retrieves proposals with filters and pagination
func (p *ProposalPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ProposalFilters) ([]*models.Proposal, int64, error) {
	query := tx.WithContext(ctx).Model(&models.Proposal{})
	query = p.helpers.ApplyProposalFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count proposals: %w", err)
	}

	query = p.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var proposals []*models.Proposal
	if err := query.Preload("Job").Preload("Freelancer").Find(&proposals).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list proposals: %w", err)
	}

	return proposals, total, nil
}

// GetByJob retrieves proposals submitted to a job
func (p *ProposalPostgreSQL) GetByJob(ctx context.Context, tx *gorm.DB, jobID uint, filters repositories.ProposalFilters) ([]*models.Proposal, int64, error) {
	filters.JobID = &jobID
	return p.List(ctx, tx, filters)
}

// GetByFreelancer retrieves proposals submitted by a freelancer
func (p *ProposalPostgreSQL) GetByFreelancer(ctx context.Context, tx *gorm.DB, freelancerID uint, filters repositories.ProposalFilters) ([]*models.Proposal, int64, error) {
	filters.FreelancerID = &freelancerID
	return p.List(ctx, tx, filters)
}

// GetFreelancerStats aggregates a freelancer's proposal outcomes
func (p *ProposalPostgreSQL) GetFreelancerStats(ctx context.Context, tx *gorm.DB, freelancerID uint) (*repositories.FreelancerStats, error) {
	stats := &repositories.FreelancerStats{}

	type statusCount struct {
		Status models.ProposalStatus
		Count  int
	}
	var counts []statusCount
	if err := tx.WithContext(ctx).
		Model(&models.Proposal{}).
		Select("status, count(*) as count").
		Where("freelancer_id = ?", freelancerID).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to get freelancer stats: %w", err)
	}

	for _, c := range counts {
		stats.TotalProposals += c.Count
		switch c.Status {
		case models.ProposalApproved:
			stats.ApprovedProposals += c.Count
		case models.ProposalRejected:
			// counted in total only
		default:
			stats.PendingProposals += c.Count
		}
	}

	if stats.TotalProposals > 0 {
		stats.ApprovalRate = float64(stats.ApprovedProposals) / float64(stats.TotalProposals)
	}

	return stats, nil
}

// ExistsByJobAndFreelancer checks for an existing proposal on the pair
func (p *ProposalPostgreSQL) ExistsByJobAndFreelancer(ctx context.Context, tx *gorm.DB, jobID, freelancerID uint) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("job_id = ? AND freelancer_id = ?", jobID, freelancerID).
		Count(&count).Error
	return count > 0, err
}

// CountByJob counts proposals submitted to a job
func (p *ProposalPostgreSQL) CountByJob(ctx context.Context, tx *gorm.DB, jobID uint) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("job_id = ?", jobID).
		Count(&count).Error
	return count, err
}
