package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/gigbridge/marketplace-service/internal/models"
	"github.com/gigbridge/marketplace-service/internal/repositories"
	"github.com/gigbridge/marketplace-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *userService) GetByID(ctx context.Context, id uint) (*UserResponse, error) {
	user, err := s.repo.User().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	resp := &UserResponse{User: user}
	if user.IsFreelancer() {
		stats, err := s.repo.Proposal().GetFreelancerStats(ctx, s.db, id)
		if err != nil {
			s.logger.Warn("Failed to load freelancer stats", "user_id", id, "error", err)
		} else {
			resp.Stats = stats
		}
	}

	return resp, nil
}

// GetOrCreateByAuthID resolves the external identity subject to a local
// account, provisioning one on first login. The role is only applied at
// creation time and never changes an existing account.
func (s *userService) GetOrCreateByAuthID(ctx context.Context, authID, displayName, email string, role models.UserRole) (*models.User, error) {
	user, err := s.repo.User().GetByAuthID(ctx, s.db, authID)
	if err == nil {
		return user, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up user by auth id: %w", err)
	}

	if role == "" {
		role = models.RoleFreelancer
	}
	if displayName == "" {
		displayName = email
	}

	user = &models.User{
		AuthID:      authID,
		DisplayName: displayName,
		Email:       email,
		Role:        role,
	}

	if err := s.repo.User().Create(ctx, s.db, user); err != nil {
		// Lost a provisioning race, the winner's row is authoritative
		if repositories.IsDuplicateError(err) {
			return s.repo.User().GetByAuthID(ctx, s.db, authID)
		}
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}

	s.logger.Info("User provisioned", "user_id", user.ID, "role", user.Role)

	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id uint, req *UpdateProfileRequest, actorID uint) (*UserResponse, error) {
	if id != actorID {
		return nil, NewPermissionError(actorID, id, "user", "update", "can only edit own profile")
	}

	user, err := s.repo.User().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if errs := s.validator.GetBusinessValidator().ValidateProfileUpdate(req, user.Role); len(errs) > 0 {
		return nil, errs
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if req.Skills != nil {
		user.Skills = pq.StringArray(req.Skills)
	}
	if req.HourlyRate != nil {
		user.HourlyRate = req.HourlyRate
	}
	if req.Company != nil {
		user.Company = req.Company
	}
	user.UpdatedAt = time.Now()

	if err := s.repo.User().Update(ctx, s.db, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("Profile updated", "user_id", id)

	return &UserResponse{User: user}, nil
}

func (s *userService) UpdatePortfolio(ctx context.Context, id uint, req *UpdatePortfolioRequest, actorID uint) (*UserResponse, error) {
	if id != actorID {
		return nil, NewPermissionError(actorID, id, "portfolio", "update", "can only edit own portfolio")
	}

	user, err := s.repo.User().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsFreelancer() {
		return nil, NewPermissionError(actorID, id, "portfolio", "update", "only freelancers have portfolios")
	}

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if req.Title != nil {
		user.PortfolioTitle = req.Title
	}
	if req.Summary != nil {
		user.PortfolioSummary = req.Summary
	}
	if req.Projects != nil {
		data, err := json.Marshal(req.Projects)
		if err != nil {
			return nil, fmt.Errorf("failed to encode projects: %w", err)
		}
		user.PortfolioProjects = data
	}
	if req.Education != nil {
		data, err := json.Marshal(req.Education)
		if err != nil {
			return nil, fmt.Errorf("failed to encode education: %w", err)
		}
		user.Education = data
	}
	if req.WorkExperience != nil {
		data, err := json.Marshal(req.WorkExperience)
		if err != nil {
			return nil, fmt.Errorf("failed to encode work experience: %w", err)
		}
		user.WorkExperience = data
	}
	if req.Certifications != nil {
		data, err := json.Marshal(req.Certifications)
		if err != nil {
			return nil, fmt.Errorf("failed to encode certifications: %w", err)
		}
		user.Certifications = data
	}
	user.UpdatedAt = time.Now()

	if err := s.repo.User().Update(ctx, s.db, user); err != nil {
		return nil, fmt.Errorf("failed to update portfolio: %w", err)
	}

	s.logger.Info("Portfolio updated", "user_id", id)

	return &UserResponse{User: user}, nil
}

func (s *userService) List(ctx context.Context, filters repositories.UserFilters) ([]*UserResponse, int64, error) {
	users, total, err := s.repo.User().List(ctx, s.db, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	responses := make([]*UserResponse, len(users))
	for i, user := range users {
		responses[i] = &UserResponse{User: user}
	}

	return responses, total, nil
}
