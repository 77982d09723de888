package services

import (
	"context"
	"errors"
	"testing"

	"github.com/gigbridge/marketplace-service/internal/models"
	"github.com/gigbridge/marketplace-service/internal/validator"
)

func newTestJobService(repo *fakeRepository) *jobService {
	return &jobService{
		repo:      repo,
		logger:    testLogger(),
		validator: validator.New(),
	}
}

func TestJobCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("business posts a job", func(t *testing.T) {
		repo := newFakeRepository()
		business, _, _ := seedMarketplace(repo)
		s := newTestJobService(repo)

		resp, err := s.Create(ctx, &CreateJobRequest{
			Title:       "Platform engineer",
			Description: "Own our deployment pipeline",
			Budget:      8000,
			Skills:      []string{"go", "kubernetes"},
		}, business.ID)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		if resp.Status != models.JobOpen {
			t.Errorf("New job should be open, got %s", resp.Status)
		}
		if !resp.CanEdit || !resp.CanDelete {
			t.Error("Owner should be able to edit and delete")
		}
	})

	t.Run("freelancer cannot post", func(t *testing.T) {
		repo := newFakeRepository()
		_, freelancer, _ := seedMarketplace(repo)
		s := newTestJobService(repo)

		_, err := s.Create(ctx, &CreateJobRequest{
			Title:       "Some job",
			Description: "desc",
			Budget:      100,
			Skills:      []string{"go"},
		}, freelancer.ID)
		if !IsPermissionError(err) {
			t.Fatalf("Expected permission error, got %v", err)
		}
	})

	t.Run("validation rejects empty skills", func(t *testing.T) {
		repo := newFakeRepository()
		business, _, _ := seedMarketplace(repo)
		s := newTestJobService(repo)

		_, err := s.Create(ctx, &CreateJobRequest{
			Title:       "Some job",
			Description: "desc",
			Budget:      100,
		}, business.ID)
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("Expected validation errors, got %v", err)
		}
	})
}

func TestJobUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("owner updates budget", func(t *testing.T) {
		repo := newFakeRepository()
		business, _, job := seedMarketplace(repo)
		s := newTestJobService(repo)

		budget := 9000
		resp, err := s.Update(ctx, job.ID, &UpdateJobRequest{Budget: &budget}, business.ID)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if resp.Budget != 9000 {
			t.Errorf("Expected budget 9000, got %d", resp.Budget)
		}
	})

	t.Run("non-owner denied", func(t *testing.T) {
		repo := newFakeRepository()
		_, freelancer, job := seedMarketplace(repo)
		s := newTestJobService(repo)

		budget := 1
		_, err := s.Update(ctx, job.ID, &UpdateJobRequest{Budget: &budget}, freelancer.ID)
		if !IsPermissionError(err) {
			t.Fatalf("Expected permission error, got %v", err)
		}
	})
}

func TestJobResponseFlags(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	_, freelancer, job := seedMarketplace(repo)
	s := newTestJobService(repo)

	resp, err := s.GetByID(ctx, job.ID, freelancer.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if resp.CanEdit || resp.CanDelete {
		t.Error("Freelancer should not be able to edit someone else's job")
	}
	if !resp.CanApply {
		t.Error("Freelancer should be able to apply to an open job")
	}
}
