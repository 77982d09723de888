package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gigbridge/marketplace-service/internal/models"
)

type stubCareerOracle struct {
	answer string
	err    error
	prompt string
}

func (o *stubCareerOracle) GenerateContent(ctx context.Context, prompt string) (string, error) {
	o.prompt = prompt
	return o.answer, o.err
}

func TestCareerGuidance(t *testing.T) {
	ctx := context.Background()

	seed := func(oracle CareerOracle) (*careerService, *models.User) {
		repo := newFakeRepository()
		_, freelancer, _ := seedMarketplace(repo)
		return &careerService{repo: repo, oracle: oracle, logger: testLogger()}, freelancer
	}

	t.Run("oracle answer passed through", func(t *testing.T) {
		oracle := &stubCareerOracle{answer: "Learn Go and distributed systems."}
		s, freelancer := seed(oracle)

		resp, err := s.GetGuidance(ctx, &CareerGuideRequest{Question: "What should I learn next?"}, freelancer.ID)
		if err != nil {
			t.Fatalf("GetGuidance failed: %v", err)
		}
		if resp.Fallback {
			t.Error("Oracle answer should not be marked as fallback")
		}
		if resp.Answer != oracle.answer {
			t.Errorf("Expected oracle answer, got %q", resp.Answer)
		}
		if !strings.Contains(oracle.prompt, "What should I learn next?") {
			t.Error("Prompt should contain the user's question")
		}
	})

	t.Run("oracle failure uses keyword fallback", func(t *testing.T) {
		s, freelancer := seed(&stubCareerOracle{err: errors.New("quota exceeded")})

		tests := []struct {
			question string
			contains string
		}{
			{"Which skills should I learn?", "technical skills"},
			{"Is a cloud certification worth it?", "certifications"},
			{"How do I grow my career?", "general career advice"},
		}
		for _, tt := range tests {
			resp, err := s.GetGuidance(ctx, &CareerGuideRequest{Question: tt.question}, freelancer.ID)
			if err != nil {
				t.Fatalf("GetGuidance failed: %v", err)
			}
			if !resp.Fallback {
				t.Errorf("Expected fallback answer for %q", tt.question)
			}
			if !strings.Contains(strings.ToLower(resp.Answer), tt.contains) {
				t.Errorf("Fallback for %q should mention %q", tt.question, tt.contains)
			}
		}
	})

	t.Run("business accounts denied", func(t *testing.T) {
		repo := newFakeRepository()
		business, _, _ := seedMarketplace(repo)
		s := &careerService{repo: repo, logger: testLogger()}

		_, err := s.GetGuidance(ctx, &CareerGuideRequest{Question: "anything"}, business.ID)
		if !IsPermissionError(err) {
			t.Fatalf("Expected permission error, got %v", err)
		}
	})
}
