package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/gigbridge/marketplace-service/internal/models"
	"github.com/gigbridge/marketplace-service/internal/repositories"
	"github.com/gigbridge/marketplace-service/internal/validator"
)

type proposalService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewProposalService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) ProposalService {
	return &proposalService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== SUBMISSION =====

// Create submits a freelancer's application to an open job
func (s *proposalService) Create(ctx context.Context, req *CreateProposalRequest, freelancerID uint) (*ProposalResponse, error) {
	s.logger.Info("Creating proposal", "job_id", req.JobID, "freelancer_id", freelancerID)

	freelancer, err := s.getUser(ctx, freelancerID)
	if err != nil {
		return nil, err
	}
	if !freelancer.IsFreelancer() {
		return nil, NewPermissionError(freelancerID, req.JobID, "proposal", "create", "only freelancers can apply to jobs")
	}

	job, err := s.getJob(ctx, req.JobID)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.GetBusinessValidator().ValidateProposalCreate(req, job); len(errs) > 0 {
		return nil, errs
	}
	if !job.IsOpen() {
		return nil, ErrJobNotOpen
	}

	exists, err := s.repo.Proposal().ExistsByJobAndFreelancer(ctx, s.db, req.JobID, freelancerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing proposal: %w", err)
	}
	if exists {
		return nil, ErrProposalAlreadyExists
	}

	proposal := &models.Proposal{
		JobID:        req.JobID,
		FreelancerID: freelancerID,
		CoverLetter:  req.CoverLetter,
		ProposedRate: req.ProposedRate,
		Status:       models.ProposalApplied,
	}

	if err := s.repo.Proposal().Create(ctx, s.db, proposal); err != nil {
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	s.logger.Info("Proposal created", "proposal_id", proposal.ID, "job_id", req.JobID)

	return s.buildResponse(proposal, freelancer.Role), nil
}

// CreateOffer lets a business invite a freelancer to a job. The proposal
// starts in pending_freelancer with the job budget as the proposed rate.
func (s *proposalService) CreateOffer(ctx context.Context, req *CreateOfferRequest, businessID uint) (*ProposalResponse, error) {
	s.logger.Info("Creating offer", "job_id", req.JobID, "freelancer_id", req.FreelancerID, "business_id", businessID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	business, err := s.getUser(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if !business.IsBusiness() {
		return nil, NewPermissionError(businessID, req.JobID, "offer", "create", "only businesses can send offers")
	}

	job, err := s.getJob(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	if job.BusinessID != businessID {
		return nil, NewPermissionError(businessID, req.JobID, "offer", "create", "not the job owner")
	}
	if !job.IsOpen() {
		return nil, ErrJobNotOpen
	}

	target, err := s.getUser(ctx, req.FreelancerID)
	if err != nil {
		return nil, err
	}
	if !target.IsFreelancer() {
		return nil, NewPermissionError(businessID, req.FreelancerID, "offer", "create", "target user is not a freelancer")
	}

	exists, err := s.repo.Proposal().ExistsByJobAndFreelancer(ctx, s.db, req.JobID, req.FreelancerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing proposal: %w", err)
	}
	if exists {
		return nil, ErrProposalAlreadyExists
	}

	proposal := &models.Proposal{
		JobID:        req.JobID,
		FreelancerID: req.FreelancerID,
		CoverLetter:  models.OfferCoverLetter,
		ProposedRate: job.Budget,
		Status:       models.ProposalPendingFreelancer,
	}

	if err := s.repo.Proposal().Create(ctx, s.db, proposal); err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	s.logger.Info("Offer created", "proposal_id", proposal.ID, "job_id", req.JobID)

	return s.buildResponse(proposal, business.Role), nil
}

// ===== LIFECYCLE =====

// UpdateStatus applies a lifecycle transition. The proposal row is locked
// for the duration of the transaction, so concurrent transitions on the
// same proposal serialize: the first writer wins and the second sees the
// finalized state.
func (s *proposalService) UpdateStatus(ctx context.Context, id uint, req *UpdateProposalStatusRequest, actorID uint) (*StatusChange, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	actor, err := s.getUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var change *StatusChange
	err = s.withTx(ctx, func(tx *gorm.DB) error {
		change, err = s.applyStatusChange(ctx, tx, id, req.Status, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Proposal status updated",
		"proposal_id", id,
		"from", change.PrevStatus,
		"to", change.Proposal.Status,
		"actor_id", actorID,
		"actor_role", actor.Role)

	return change, nil
}

// Withdraw removes a freelancer's own proposal while it is still pending
func (s *proposalService) Withdraw(ctx context.Context, id uint, freelancerID uint) error {
	return s.withTx(ctx, func(tx *gorm.DB) error {
		return s.withdrawLocked(ctx, tx, id, freelancerID)
	})
}

// applyStatusChange runs the locked part of a transition. The row lock
// taken by GetByIDForUpdate serializes concurrent writers, so the second
// one observes the first one's final status.
func (s *proposalService) applyStatusChange(ctx context.Context, tx *gorm.DB, id uint, target models.ProposalStatus, actor *models.User) (*StatusChange, error) {
	proposal, err := s.repo.Proposal().GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to load proposal: %w", err)
	}

	if err := s.checkTransitionPermission(ctx, tx, proposal, actor); err != nil {
		return nil, err
	}

	if proposal.Status.IsFinal() {
		return nil, ErrProposalFinalized
	}
	if !models.CanTransition(proposal.Status, actor.Role, target) {
		return nil, &TransitionError{
			From:   string(proposal.Status),
			To:     string(target),
			Role:   string(actor.Role),
			Reason: "transition not allowed for role",
		}
	}

	prev := proposal.Status
	if err := s.repo.Proposal().UpdateStatus(ctx, tx, id, target); err != nil {
		return nil, fmt.Errorf("failed to update proposal status: %w", err)
	}
	proposal.Status = target

	return &StatusChange{Proposal: proposal, PrevStatus: prev}, nil
}

// withdrawLocked runs the locked part of a withdrawal.
func (s *proposalService) withdrawLocked(ctx context.Context, tx *gorm.DB, id uint, freelancerID uint) error {
	proposal, err := s.repo.Proposal().GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrProposalNotFound
		}
		return fmt.Errorf("failed to load proposal: %w", err)
	}

	if proposal.FreelancerID != freelancerID {
		return NewPermissionError(freelancerID, id, "proposal", "withdraw", "not the proposal owner")
	}
	if !proposal.Status.IsWithdrawable() {
		return ErrNotWithdrawable
	}

	if err := s.repo.Proposal().Delete(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to withdraw proposal: %w", err)
	}

	s.logger.Info("Proposal withdrawn", "proposal_id", id, "freelancer_id", freelancerID)
	return nil
}

// ===== READ OPERATIONS =====

func (s *proposalService) GetByID(ctx context.Context, id uint, userID uint) (*ProposalResponse, error) {
	proposal, err := s.repo.Proposal().GetByIDWithDetails(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	canView := proposal.FreelancerID == userID ||
		(proposal.Job.ID != 0 && proposal.Job.BusinessID == userID) ||
		user.Role == models.RoleAdmin
	if !canView {
		return nil, NewPermissionError(userID, id, "proposal", "read", "not a participant")
	}

	return s.buildResponse(proposal, user.Role), nil
}

func (s *proposalService) GetByJob(ctx context.Context, jobID uint, filters repositories.ProposalFilters, userID uint) (*ProposalListResponse, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if job.BusinessID != userID && user.Role != models.RoleAdmin {
		return nil, NewPermissionError(userID, jobID, "proposal", "list", "not the job owner")
	}

	proposals, total, err := s.repo.Proposal().GetByJob(ctx, s.db, jobID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	return s.buildListResponse(proposals, total, filters, user.Role), nil
}

func (s *proposalService) GetByFreelancer(ctx context.Context, freelancerID uint, filters repositories.ProposalFilters) (*ProposalListResponse, error) {
	proposals, total, err := s.repo.Proposal().GetByFreelancer(ctx, s.db, freelancerID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	return s.buildListResponse(proposals, total, filters, models.RoleFreelancer), nil
}

func (s *proposalService) GetFreelancerStats(ctx context.Context, freelancerID uint) (*repositories.FreelancerStats, error) {
	return s.repo.Proposal().GetFreelancerStats(ctx, s.db, freelancerID)
}

// ===== HELPERS =====

// withTx executes a function within a transaction
func (s *proposalService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// checkTransitionPermission verifies the actor participates in the proposal:
// a business actor must own the job, a freelancer actor must own the
// proposal. Admins have no lifecycle rights, the transition table rejects
// them later.
func (s *proposalService) checkTransitionPermission(ctx context.Context, tx *gorm.DB, proposal *models.Proposal, actor *models.User) error {
	switch actor.Role {
	case models.RoleBusiness:
		owned, err := s.repo.Job().IsOwnedBy(ctx, tx, proposal.JobID, actor.ID)
		if err != nil {
			return fmt.Errorf("failed to check job ownership: %w", err)
		}
		if !owned {
			return NewPermissionError(actor.ID, proposal.ID, "proposal", "update_status", "not the job owner")
		}
	case models.RoleFreelancer:
		if proposal.FreelancerID != actor.ID {
			return NewPermissionError(actor.ID, proposal.ID, "proposal", "update_status", "not the proposal owner")
		}
	default:
		return NewPermissionError(actor.ID, proposal.ID, "proposal", "update_status", "role has no lifecycle rights")
	}
	return nil
}

func (s *proposalService) getUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *proposalService) getJob(ctx context.Context, id uint) (*models.Job, error) {
	job, err := s.repo.Job().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (s *proposalService) buildResponse(proposal *models.Proposal, role models.UserRole) *ProposalResponse {
	return &ProposalResponse{
		Proposal:           proposal,
		AllowedTransitions: models.AllowedTransitions(proposal.Status, role),
		CanWithdraw:        role == models.RoleFreelancer && proposal.Status.IsWithdrawable(),
	}
}

func (s *proposalService) buildListResponse(proposals []*models.Proposal, total int64, filters repositories.ProposalFilters, role models.UserRole) *ProposalListResponse {
	responses := make([]*ProposalResponse, len(proposals))
	for i, p := range proposals {
		responses[i] = s.buildResponse(p, role)
	}

	page := 1
	if filters.Limit > 0 {
		page = filters.Offset/filters.Limit + 1
	}

	return &ProposalListResponse{
		Proposals: responses,
		Total:     total,
		Page:      page,
		Size:      len(responses),
	}
}
