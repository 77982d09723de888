package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/gigbridge/marketplace-service/internal/models"
	"github.com/gigbridge/marketplace-service/internal/repositories"
	"github.com/gigbridge/marketplace-service/internal/validator"
)

type jobService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewJobService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) JobService {
	return &jobService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *jobService) Create(ctx context.Context, req *CreateJobRequest, businessID uint) (*JobResponse, error) {
	s.logger.Info("Creating job", "business_id", businessID, "title", req.Title)

	if errs := s.validator.GetBusinessValidator().ValidateJobCreate(req); len(errs) > 0 {
		return nil, errs
	}

	business, err := s.getUser(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if !business.IsBusiness() {
		return nil, NewPermissionError(businessID, 0, "job", "create", "only businesses can post jobs")
	}

	job := &models.Job{
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Skills:      pq.StringArray(req.Skills),
		BusinessID:  businessID,
		Status:      models.JobOpen,
	}

	if err := s.repo.Job().Create(ctx, s.db, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Info("Job created", "job_id", job.ID)

	return s.buildResponse(job, business), nil
}

func (s *jobService) GetByID(ctx context.Context, id uint, userID uint) (*JobResponse, error) {
	job, err := s.repo.Job().GetByIDWithDetails(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var user *models.User
	if userID != 0 {
		if user, err = s.getUser(ctx, userID); err != nil {
			return nil, err
		}
	}

	return s.buildResponse(job, user), nil
}

func (s *jobService) Update(ctx context.Context, id uint, req *UpdateJobRequest, userID uint) (*JobResponse, error) {
	job, err := s.repo.Job().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if job.BusinessID != userID {
		return nil, NewPermissionError(userID, id, "job", "update", "not the job owner")
	}

	if errs := s.validator.GetBusinessValidator().ValidateJobUpdate(req, job); len(errs) > 0 {
		return nil, errs
	}

	if req.Title != nil {
		job.Title = *req.Title
	}
	if req.Description != nil {
		job.Description = *req.Description
	}
	if req.Budget != nil {
		job.Budget = *req.Budget
	}
	if req.Skills != nil {
		job.Skills = pq.StringArray(req.Skills)
	}
	if req.Status != nil {
		job.Status = *req.Status
	}
	job.UpdatedAt = time.Now()

	if err := s.repo.Job().Update(ctx, s.db, job); err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}

	s.logger.Info("Job updated", "job_id", id)

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.buildResponse(job, user), nil
}

func (s *jobService) Delete(ctx context.Context, id uint, userID uint) error {
	job, err := s.repo.Job().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrJobNotFound
		}
		return fmt.Errorf("failed to get job: %w", err)
	}

	if job.BusinessID != userID {
		return NewPermissionError(userID, id, "job", "delete", "not the job owner")
	}

	// Jobs with approved work stay on record, soft delete covers the rest
	if err := s.repo.Job().Delete(ctx, s.db, id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	s.logger.Info("Job deleted", "job_id", id, "business_id", userID)

	return nil
}

// ===== LIST AND SEARCH =====

func (s *jobService) List(ctx context.Context, filters repositories.JobFilters, userID uint) (*JobListResponse, error) {
	jobs, total, err := s.repo.Job().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	var user *models.User
	if userID != 0 {
		if user, err = s.getUser(ctx, userID); err != nil {
			return nil, err
		}
	}

	return s.buildListResponse(jobs, total, filters, user), nil
}

func (s *jobService) GetByBusiness(ctx context.Context, businessID uint, filters repositories.JobFilters) (*JobListResponse, error) {
	business, err := s.getUser(ctx, businessID)
	if err != nil {
		return nil, err
	}

	jobs, total, err := s.repo.Job().GetByBusiness(ctx, s.db, businessID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list business jobs: %w", err)
	}

	return s.buildListResponse(jobs, total, filters, business), nil
}

func (s *jobService) Search(ctx context.Context, query string, filters repositories.JobFilters, userID uint) (*JobListResponse, error) {
	jobs, total, err := s.repo.Job().Search(ctx, s.db, query, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search jobs: %w", err)
	}

	var user *models.User
	if userID != 0 {
		if user, err = s.getUser(ctx, userID); err != nil {
			return nil, err
		}
	}

	return s.buildListResponse(jobs, total, filters, user), nil
}

// ===== STATISTICS =====

func (s *jobService) GetStats(ctx context.Context, id uint, userID uint) (*repositories.JobStats, error) {
	job, err := s.repo.Job().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if job.BusinessID != userID {
		return nil, NewPermissionError(userID, id, "job", "stats", "not the job owner")
	}

	return s.repo.Job().GetJobStats(ctx, s.db, id)
}

func (s *jobService) GetBusinessStats(ctx context.Context, businessID uint) (*repositories.BusinessStats, error) {
	return s.repo.Job().GetBusinessStats(ctx, s.db, businessID)
}

// ===== HELPERS =====

func (s *jobService) getUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *jobService) buildResponse(job *models.Job, user *models.User) *JobResponse {
	resp := &JobResponse{Job: job}
	if user == nil {
		resp.CanApply = job.IsOpen()
		return resp
	}

	isOwner := user.ID == job.BusinessID
	resp.CanEdit = isOwner
	resp.CanDelete = isOwner
	resp.CanApply = job.IsOpen() && user.IsFreelancer()

	return resp
}

func (s *jobService) buildListResponse(jobs []*models.Job, total int64, filters repositories.JobFilters, user *models.User) *JobListResponse {
	responses := make([]*JobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = s.buildResponse(job, user)
	}

	page := 1
	if filters.Limit > 0 {
		page = filters.Offset/filters.Limit + 1
	}

	return &JobListResponse{
		Jobs:  responses,
		Total: total,
		Page:  page,
		Size:  len(responses),
	}
}
