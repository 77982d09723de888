package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/lib/pq"

	"github.com/gigbridge/marketplace-service/internal/models"
	"github.com/gigbridge/marketplace-service/internal/validator"
)

func newTestProposalService(repo *fakeRepository) *proposalService {
	return &proposalService{
		repo:      repo,
		logger:    testLogger(),
		validator: validator.New(),
	}
}

func seedMarketplace(repo *fakeRepository) (business, freelancer *models.User, job *models.Job) {
	business = repo.addUser(&models.User{
		AuthID:      "auth-business",
		DisplayName: "Acme Corp",
		Email:       "acme@example.com",
		Role:        models.RoleBusiness,
	})
	freelancer = repo.addUser(&models.User{
		AuthID:      "auth-freelancer",
		DisplayName: "Dana Dev",
		Email:       "dana@example.com",
		Role:        models.RoleFreelancer,
		Skills:      pq.StringArray{"go", "postgres"},
	})
	job = repo.addJob(&models.Job{
		Title:       "Backend engineer",
		Description: "Build marketplace APIs",
		Budget:      5000,
		Skills:      pq.StringArray{"go", "postgres"},
		BusinessID:  business.ID,
		Status:      models.JobOpen,
	})
	return business, freelancer, job
}

func TestProposalCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("freelancer applies to open job", func(t *testing.T) {
		repo := newFakeRepository()
		_, freelancer, job := seedMarketplace(repo)
		s := newTestProposalService(repo)

		resp, err := s.Create(ctx, &CreateProposalRequest{
			JobID:        job.ID,
			CoverLetter:  "I have shipped systems like this before.",
			ProposedRate: 4500,
		}, freelancer.ID)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		if resp.Status != models.ProposalApplied {
			t.Errorf("Expected status %s, got %s", models.ProposalApplied, resp.Status)
		}
		if !resp.CanWithdraw {
			t.Error("Freshly applied proposal should be withdrawable by its owner")
		}
	})

	t.Run("business cannot apply", func(t *testing.T) {
		repo := newFakeRepository()
		business, _, job := seedMarketplace(repo)
		s := newTestProposalService(repo)

		_, err := s.Create(ctx, &CreateProposalRequest{
			JobID:        job.ID,
			CoverLetter:  "hire me",
			ProposedRate: 100,
		}, business.ID)
		if !IsPermissionError(err) {
			t.Fatalf("Expected permission error, got %v", err)
		}
	})

	t.Run("closed job rejects applications", func(t *testing.T) {
		repo := newFakeRepository()
		_, freelancer, job := seedMarketplace(repo)
		job.Status = models.JobInProgress
		s := newTestProposalService(repo)

		_, err := s.Create(ctx, &CreateProposalRequest{
			JobID:        job.ID,
			CoverLetter:  "hire me",
			ProposedRate: 100,
		}, freelancer.ID)
		if err == nil {
			t.Fatal("Expected error applying to a closed job")
		}
	})

	t.Run("duplicate application rejected", func(t *testing.T) {
		repo := newFakeRepository()
		_, freelancer, job := seedMarketplace(repo)
		repo.addProposal(&models.Proposal{
			JobID:        job.ID,
			FreelancerID: freelancer.ID,
			CoverLetter:  "first one",
			ProposedRate: 100,
			Status:       models.ProposalApplied,
		})
		s := newTestProposalService(repo)

		_, err := s.Create(ctx, &CreateProposalRequest{
			JobID:        job.ID,
			CoverLetter:  "second one",
			ProposedRate: 200,
		}, freelancer.ID)
		if !errors.Is(err, ErrProposalAlreadyExists) {
			t.Fatalf("Expected ErrProposalAlreadyExists, got %v", err)
		}
	})
}

func TestProposalCreateOffer(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	business, freelancer, job := seedMarketplace(repo)
	s := newTestProposalService(repo)

	resp, err := s.CreateOffer(ctx, &CreateOfferRequest{
		JobID:        job.ID,
		FreelancerID: freelancer.ID,
	}, business.ID)
	if err != nil {
		t.Fatalf("CreateOffer failed: %v", err)
	}

	if resp.Status != models.ProposalPendingFreelancer {
		t.Errorf("Expected status %s, got %s", models.ProposalPendingFreelancer, resp.Status)
	}
	if resp.CoverLetter != models.OfferCoverLetter {
		t.Errorf("Expected generated cover letter, got %q", resp.CoverLetter)
	}
	if resp.ProposedRate != job.Budget {
		t.Errorf("Offer should carry the job budget %d, got %d", job.Budget, resp.ProposedRate)
	}

	t.Run("only job owner can offer", func(t *testing.T) {
		other := repo.addUser(&models.User{
			AuthID: "auth-other-biz", DisplayName: "Other Co",
			Email: "other@example.com", Role: models.RoleBusiness,
		})
		_, err := s.CreateOffer(ctx, &CreateOfferRequest{
			JobID:        job.ID,
			FreelancerID: freelancer.ID,
		}, other.ID)
		if !IsPermissionError(err) {
			t.Fatalf("Expected permission error, got %v", err)
		}
	})
}

func TestProposalStatusTransitions(t *testing.T) {
	ctx := context.Background()

	seed := func(status models.ProposalStatus) (*proposalService, *fakeRepository, *models.User, *models.User, *models.Proposal) {
		repo := newFakeRepository()
		business, freelancer, job := seedMarketplace(repo)
		proposal := repo.addProposal(&models.Proposal{
			JobID:        job.ID,
			FreelancerID: freelancer.ID,
			CoverLetter:  "cover",
			ProposedRate: 100,
			Status:       status,
		})
		return newTestProposalService(repo), repo, business, freelancer, proposal
	}

	t.Run("business moves applied to under_review", func(t *testing.T) {
		s, _, business, _, proposal := seed(models.ProposalApplied)

		change, err := s.applyStatusChange(ctx, nil, proposal.ID, models.ProposalUnderReview, business)
		if err != nil {
			t.Fatalf("applyStatusChange failed: %v", err)
		}
		if change.PrevStatus != models.ProposalApplied {
			t.Errorf("Expected previous status applied, got %s", change.PrevStatus)
		}
		if change.Proposal.Status != models.ProposalUnderReview {
			t.Errorf("Expected status under_review, got %s", change.Proposal.Status)
		}
	})

	t.Run("freelancer accepts pending offer", func(t *testing.T) {
		s, _, _, freelancer, proposal := seed(models.ProposalPendingFreelancer)

		change, err := s.applyStatusChange(ctx, nil, proposal.ID, models.ProposalApproved, freelancer)
		if err != nil {
			t.Fatalf("applyStatusChange failed: %v", err)
		}
		if change.Proposal.Status != models.ProposalApproved {
			t.Errorf("Expected status approved, got %s", change.Proposal.Status)
		}
	})

	t.Run("freelancer cannot move own proposal to review", func(t *testing.T) {
		s, _, _, freelancer, proposal := seed(models.ProposalApplied)

		_, err := s.applyStatusChange(ctx, nil, proposal.ID, models.ProposalUnderReview, freelancer)
		var transitionErr *TransitionError
		if !errors.As(err, &transitionErr) {
			t.Fatalf("Expected TransitionError, got %v", err)
		}
	})

	t.Run("non-participant business denied", func(t *testing.T) {
		s, repo, _, _, proposal := seed(models.ProposalApplied)
		other := repo.addUser(&models.User{
			AuthID: "auth-outsider", DisplayName: "Outsider Co",
			Email: "outsider@example.com", Role: models.RoleBusiness,
		})

		_, err := s.applyStatusChange(ctx, nil, proposal.ID, models.ProposalApproved, other)
		if !IsPermissionError(err) {
			t.Fatalf("Expected permission error, got %v", err)
		}
	})

	t.Run("admin has no lifecycle rights", func(t *testing.T) {
		s, repo, _, _, proposal := seed(models.ProposalApplied)
		admin := repo.addUser(&models.User{
			AuthID: "auth-admin", DisplayName: "Admin",
			Email: "admin@example.com", Role: models.RoleAdmin,
		})

		_, err := s.applyStatusChange(ctx, nil, proposal.ID, models.ProposalApproved, admin)
		if !IsPermissionError(err) {
			t.Fatalf("Expected permission error, got %v", err)
		}
	})

	t.Run("finalized proposal rejects further transitions", func(t *testing.T) {
		s, _, business, _, proposal := seed(models.ProposalApproved)

		_, err := s.applyStatusChange(ctx, nil, proposal.ID, models.ProposalRejected, business)
		if !errors.Is(err, ErrProposalFinalized) {
			t.Fatalf("Expected ErrProposalFinalized, got %v", err)
		}
	})
}

// TestProposalConcurrentFinalization models two actors racing to finalize
// the same proposal. The database row lock serializes the two transitions
// in production; the mutex here stands in for that lock. Exactly one
// transition must succeed and the loser must see the finalized state.
func TestProposalConcurrentFinalization(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	business, freelancer, job := seedMarketplace(repo)
	proposal := repo.addProposal(&models.Proposal{
		JobID:        job.ID,
		FreelancerID: freelancer.ID,
		CoverLetter:  "cover",
		ProposedRate: 100,
		Status:       models.ProposalApplied,
	})
	s := newTestProposalService(repo)

	var rowLock sync.Mutex
	errs := make(chan error, 2)

	run := func(target models.ProposalStatus) {
		rowLock.Lock()
		defer rowLock.Unlock()
		_, err := s.applyStatusChange(ctx, nil, proposal.ID, target, business)
		errs <- err
	}

	go run(models.ProposalApproved)
	go run(models.ProposalRejected)

	var succeeded, finalized int
	for i := 0; i < 2; i++ {
		err := <-errs
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrProposalFinalized):
			finalized++
		default:
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	if succeeded != 1 || finalized != 1 {
		t.Fatalf("Expected exactly one success and one finalized error, got %d/%d", succeeded, finalized)
	}

	stored, err := repo.proposals.GetByID(ctx, nil, proposal.ID)
	if err != nil {
		t.Fatalf("Failed to reload proposal: %v", err)
	}
	if !stored.Status.IsFinal() {
		t.Errorf("Proposal should be in a final state, got %s", stored.Status)
	}
}

func TestProposalWithdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("owner withdraws pending proposal", func(t *testing.T) {
		repo := newFakeRepository()
		_, freelancer, job := seedMarketplace(repo)
		proposal := repo.addProposal(&models.Proposal{
			JobID:        job.ID,
			FreelancerID: freelancer.ID,
			CoverLetter:  "cover",
			ProposedRate: 100,
			Status:       models.ProposalApplied,
		})
		s := newTestProposalService(repo)

		if err := s.withdrawLocked(ctx, nil, proposal.ID, freelancer.ID); err != nil {
			t.Fatalf("Withdraw failed: %v", err)
		}

		if _, err := repo.proposals.GetByID(ctx, nil, proposal.ID); err == nil {
			t.Error("Withdrawn proposal should be deleted")
		}
	})

	t.Run("approved proposal cannot be withdrawn", func(t *testing.T) {
		repo := newFakeRepository()
		_, freelancer, job := seedMarketplace(repo)
		proposal := repo.addProposal(&models.Proposal{
			JobID:        job.ID,
			FreelancerID: freelancer.ID,
			CoverLetter:  "cover",
			ProposedRate: 100,
			Status:       models.ProposalApproved,
		})
		s := newTestProposalService(repo)

		err := s.withdrawLocked(ctx, nil, proposal.ID, freelancer.ID)
		if !errors.Is(err, ErrNotWithdrawable) {
			t.Fatalf("Expected ErrNotWithdrawable, got %v", err)
		}
	})

	t.Run("non-owner cannot withdraw", func(t *testing.T) {
		repo := newFakeRepository()
		_, freelancer, job := seedMarketplace(repo)
		other := repo.addUser(&models.User{
			AuthID: "auth-other-fl", DisplayName: "Other Dev",
			Email: "otherdev@example.com", Role: models.RoleFreelancer,
		})
		proposal := repo.addProposal(&models.Proposal{
			JobID:        job.ID,
			FreelancerID: freelancer.ID,
			CoverLetter:  "cover",
			ProposedRate: 100,
			Status:       models.ProposalApplied,
		})
		s := newTestProposalService(repo)

		err := s.withdrawLocked(ctx, nil, proposal.ID, other.ID)
		if !IsPermissionError(err) {
			t.Fatalf("Expected permission error, got %v", err)
		}
	})
}
