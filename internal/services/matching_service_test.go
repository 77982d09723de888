package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/lib/pq"

	"github.com/gigbridge/marketplace-service/internal/ai"
	"github.com/gigbridge/marketplace-service/internal/ai/gemini"
	"github.com/gigbridge/marketplace-service/internal/models"
)

// stubOracle returns fixed assessments keyed by freelancer bio, or fails
// outright when err is set.
type stubOracle struct {
	err    error
	scores map[string]int
}

func (o *stubOracle) Evaluate(ctx context.Context, job *gemini.JobPayload, freelancer *gemini.FreelancerPayload) (*ai.MatchAssessment, error) {
	if o.err != nil {
		return nil, o.err
	}
	score, ok := o.scores[freelancer.Bio]
	if !ok {
		score = 50
	}
	return &ai.MatchAssessment{Score: score, Explanation: "oracle verdict"}, nil
}

// stubBatchOracle adds the prepared-job fast path on top of stubOracle.
type stubBatchOracle struct {
	stubOracle
	mu          sync.Mutex
	cacheName   string
	prepareErr  error
	prepared    int
	cachedCalls int
}

func (o *stubBatchOracle) PrepareJob(ctx context.Context, jobID uint, job *gemini.JobPayload) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prepared++
	if o.prepareErr != nil {
		return "", o.prepareErr
	}
	return o.cacheName, nil
}

func (o *stubBatchOracle) EvaluateCached(ctx context.Context, cacheName string, freelancer *gemini.FreelancerPayload) (*ai.MatchAssessment, error) {
	o.mu.Lock()
	o.cachedCalls++
	o.mu.Unlock()
	return o.Evaluate(ctx, nil, freelancer)
}

func TestFallbackAssessment(t *testing.T) {
	tests := []struct {
		name             string
		jobSkills        []string
		freelancerSkills []string
		wantScore        int
		wantOverlap      int
	}{
		{
			name:             "two of three skills overlap",
			jobSkills:        []string{"a", "b", "c"},
			freelancerSkills: []string{"a", "c", "d"},
			wantScore:        67,
			wantOverlap:      2,
		},
		{
			name:             "full overlap",
			jobSkills:        []string{"go", "postgres"},
			freelancerSkills: []string{"postgres", "go", "redis"},
			wantScore:        100,
			wantOverlap:      2,
		},
		{
			name:             "no overlap",
			jobSkills:        []string{"go"},
			freelancerSkills: []string{"java"},
			wantScore:        0,
			wantOverlap:      0,
		},
		{
			name:             "job without skills scores zero",
			jobSkills:        nil,
			freelancerSkills: []string{"go"},
			wantScore:        0,
			wantOverlap:      0,
		},
		{
			name:             "comparison ignores case and spacing",
			jobSkills:        []string{"Go", "PostgreSQL"},
			freelancerSkills: []string{" go ", "postgresql"},
			wantScore:        100,
			wantOverlap:      2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fallbackAssessment(tt.jobSkills, tt.freelancerSkills)
			if got.Score != tt.wantScore {
				t.Errorf("Expected score %d, got %d", tt.wantScore, got.Score)
			}
			if !got.Fallback {
				t.Error("Fallback flag should be set")
			}
			wantExplanation := fmt.Sprintf("Basic match based on %d overlapping skills", tt.wantOverlap)
			if got.Explanation != wantExplanation {
				t.Errorf("Expected explanation %q, got %q", wantExplanation, got.Explanation)
			}
		})
	}
}

func TestScoreMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("oracle result used when available", func(t *testing.T) {
		repo := newFakeRepository()
		_, freelancer, job := seedMarketplace(repo)
		s := &matchingService{
			repo:   repo,
			oracle: &stubOracle{scores: map[string]int{}},
			logger: testLogger(),
		}

		assessment, err := s.ScoreMatch(ctx, job.ID, freelancer.ID)
		if err != nil {
			t.Fatalf("ScoreMatch failed: %v", err)
		}
		if assessment.Fallback {
			t.Error("Oracle result should not be marked as fallback")
		}
		if assessment.Score != 50 {
			t.Errorf("Expected oracle score 50, got %d", assessment.Score)
		}
	})

	t.Run("oracle failure degrades to fallback", func(t *testing.T) {
		repo := newFakeRepository()
		_, freelancer, job := seedMarketplace(repo)
		s := &matchingService{
			repo:   repo,
			oracle: &stubOracle{err: errors.New("model unavailable")},
			logger: testLogger(),
		}

		assessment, err := s.ScoreMatch(ctx, job.ID, freelancer.ID)
		if err != nil {
			t.Fatalf("ScoreMatch failed: %v", err)
		}
		if !assessment.Fallback {
			t.Error("Expected fallback assessment when oracle fails")
		}
		// Seeded freelancer covers both job skills
		if assessment.Score != 100 {
			t.Errorf("Expected fallback score 100, got %d", assessment.Score)
		}
	})

	t.Run("nil oracle always falls back", func(t *testing.T) {
		repo := newFakeRepository()
		_, freelancer, job := seedMarketplace(repo)
		s := &matchingService{repo: repo, logger: testLogger()}

		assessment, err := s.ScoreMatch(ctx, job.ID, freelancer.ID)
		if err != nil {
			t.Fatalf("ScoreMatch failed: %v", err)
		}
		if !assessment.Fallback {
			t.Error("Expected fallback assessment without an oracle")
		}
	})

	t.Run("unknown job", func(t *testing.T) {
		repo := newFakeRepository()
		_, freelancer, _ := seedMarketplace(repo)
		s := &matchingService{repo: repo, logger: testLogger()}

		_, err := s.ScoreMatch(ctx, 999, freelancer.ID)
		if !errors.Is(err, ErrJobNotFound) {
			t.Fatalf("Expected ErrJobNotFound, got %v", err)
		}
	})
}

func TestRankCandidates(t *testing.T) {
	ctx := context.Background()

	setup := func(oracle MatchOracle) (*matchingService, *fakeRepository, *models.User, *models.Job) {
		repo := newFakeRepository()
		business, _, job := seedMarketplace(repo)
		s := &matchingService{
			repo:   repo,
			oracle: oracle,
			logger: testLogger(),
		}
		return s, repo, business, job
	}

	addCandidate := func(repo *fakeRepository, name, bio string) *models.User {
		b := bio
		return repo.addUser(&models.User{
			AuthID:      "auth-" + name,
			DisplayName: name,
			Email:       name + "@example.com",
			Role:        models.RoleFreelancer,
			Bio:         &b,
			Skills:      pq.StringArray{"go", "postgres"},
		})
	}

	t.Run("results sorted by descending score", func(t *testing.T) {
		oracle := &stubOracle{scores: map[string]int{
			"low": 20, "mid": 60, "high": 95,
		}}
		s, repo, business, job := setup(oracle)
		addCandidate(repo, "low-dev", "low")
		addCandidate(repo, "mid-dev", "mid")
		addCandidate(repo, "high-dev", "high")

		results, err := s.RankCandidates(ctx, job.ID, 10, business.ID)
		if err != nil {
			t.Fatalf("RankCandidates failed: %v", err)
		}

		for i := 1; i < len(results); i++ {
			if results[i].Score > results[i-1].Score {
				t.Fatalf("Results not sorted: %d before %d", results[i-1].Score, results[i].Score)
			}
		}
		if results[0].Score != 95 {
			t.Errorf("Expected best score 95 first, got %d", results[0].Score)
		}
	})

	t.Run("default limit caps the result", func(t *testing.T) {
		s, repo, business, job := setup(&stubOracle{scores: map[string]int{}})
		for i := 0; i < 8; i++ {
			addCandidate(repo, fmt.Sprintf("dev-%d", i), fmt.Sprintf("bio-%d", i))
		}

		results, err := s.RankCandidates(ctx, job.ID, DefaultRankLimit, business.ID)
		if err != nil {
			t.Fatalf("RankCandidates failed: %v", err)
		}
		if len(results) > DefaultRankLimit {
			t.Errorf("Expected at most %d results, got %d", DefaultRankLimit, len(results))
		}
	})

	t.Run("non-positive limit yields no matches", func(t *testing.T) {
		s, repo, business, job := setup(&stubOracle{scores: map[string]int{}})
		addCandidate(repo, "dev-x", "x")

		results, err := s.RankCandidates(ctx, job.ID, 0, business.ID)
		if err != nil {
			t.Fatalf("RankCandidates failed: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("Expected empty result for limit 0, got %d", len(results))
		}
	})

	t.Run("oracle failure never fails the ranking", func(t *testing.T) {
		s, repo, business, job := setup(&stubOracle{err: errors.New("timeout")})
		addCandidate(repo, "dev-a", "a")
		addCandidate(repo, "dev-b", "b")

		results, err := s.RankCandidates(ctx, job.ID, 10, business.ID)
		if err != nil {
			t.Fatalf("RankCandidates should absorb oracle failures, got %v", err)
		}
		for _, result := range results {
			if !result.Fallback {
				t.Error("Expected fallback results when oracle is down")
			}
		}
	})

	t.Run("prepared job cache serves the whole pool", func(t *testing.T) {
		oracle := &stubBatchOracle{
			stubOracle: stubOracle{scores: map[string]int{"a": 90, "b": 40}},
			cacheName:  "caches/job",
		}
		s, repo, business, job := setup(oracle)
		addCandidate(repo, "dev-a", "a")
		addCandidate(repo, "dev-b", "b")

		results, err := s.RankCandidates(ctx, job.ID, 10, business.ID)
		if err != nil {
			t.Fatalf("RankCandidates failed: %v", err)
		}

		if oracle.prepared != 1 {
			t.Errorf("Expected one job cache preparation, got %d", oracle.prepared)
		}
		if oracle.cachedCalls != len(results) {
			t.Errorf("Expected %d cached evaluations, got %d", len(results), oracle.cachedCalls)
		}
		if results[0].Score != 90 {
			t.Errorf("Expected best score 90 first, got %d", results[0].Score)
		}
	})

	t.Run("cache preparation failure degrades to full prompts", func(t *testing.T) {
		oracle := &stubBatchOracle{
			stubOracle: stubOracle{scores: map[string]int{"a": 90}},
			prepareErr: errors.New("quota exceeded"),
		}
		s, repo, business, job := setup(oracle)
		addCandidate(repo, "dev-a", "a")

		results, err := s.RankCandidates(ctx, job.ID, 10, business.ID)
		if err != nil {
			t.Fatalf("RankCandidates failed: %v", err)
		}
		if oracle.cachedCalls != 0 {
			t.Errorf("Expected no cached evaluations, got %d", oracle.cachedCalls)
		}
		if len(results) == 0 || results[0].Score != 90 {
			t.Error("Candidates should still be scored through the full prompt")
		}
	})

	t.Run("only job owner can rank", func(t *testing.T) {
		s, repo, _, job := setup(nil)
		outsider := repo.addUser(&models.User{
			AuthID: "auth-outsider-biz", DisplayName: "Outsider",
			Email: "outsider-biz@example.com", Role: models.RoleBusiness,
		})

		_, err := s.RankCandidates(ctx, job.ID, 5, outsider.ID)
		if !IsPermissionError(err) {
			t.Fatalf("Expected permission error, got %v", err)
		}
	})
}
