package postgres

import (
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/gigbridge/marketplace-service/internal/repositories"
)

// pqArray adapts a string slice for Postgres array operators
func pqArray(values []string) pq.StringArray {
	return pq.StringArray(values)
}

// SharedHelpers contains common query building operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyJobFilters applies common filters to job queries
func (h *SharedHelpers) ApplyJobFilters(query *gorm.DB, filters repositories.JobFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.BusinessID != nil {
		query = query.Where("business_id = ?", *filters.BusinessID)
	}
	if len(filters.Skills) > 0 {
		query = query.Where("skills && ?", pqArray(filters.Skills))
	}
	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if filters.BudgetMin != nil {
		query = query.Where("budget >= ?", *filters.BudgetMin)
	}
	if filters.BudgetMax != nil {
		query = query.Where("budget <= ?", *filters.BudgetMax)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyProposalFilters applies common filters to proposal queries
func (h *SharedHelpers) ApplyProposalFilters(query *gorm.DB, filters repositories.ProposalFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.JobID != nil {
		query = query.Where("job_id = ?", *filters.JobID)
	}
	if filters.FreelancerID != nil {
		query = query.Where("freelancer_id = ?", *filters.FreelancerID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at":    true,
		"updated_at":    true,
		"id":            true,
		"title":         true,
		"status":        true,
		"budget":        true,
		"proposed_rate": true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
