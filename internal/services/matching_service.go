package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/gigbridge/marketplace-service/internal/ai"
	"github.com/gigbridge/marketplace-service/internal/ai/gemini"
	"github.com/gigbridge/marketplace-service/internal/cache"
	"github.com/gigbridge/marketplace-service/internal/models"
	"github.com/gigbridge/marketplace-service/internal/repositories"
)

const (
	// oracleTimeout bounds a single scoring call so one slow candidate
	// cannot stall a whole ranking run.
	oracleTimeout = 10 * time.Second

	// DefaultRankLimit is how many matches a ranking returns when the
	// caller does not ask for a specific count.
	DefaultRankLimit = 5

	// candidatePoolSize is how many freelancers are pulled from the
	// skill overlap query before scoring.
	candidatePoolSize = 20
)

// MatchOracle scores a job against a freelancer profile. Implementations
// may fail or time out; callers are expected to degrade to the skill
// overlap fallback.
type MatchOracle interface {
	Evaluate(ctx context.Context, job *gemini.JobPayload, freelancer *gemini.FreelancerPayload) (*ai.MatchAssessment, error)
}

// batchMatchOracle is the optional ranking fast path: the job payload is
// uploaded once per run and referenced by every candidate evaluation.
type batchMatchOracle interface {
	MatchOracle
	PrepareJob(ctx context.Context, jobID uint, job *gemini.JobPayload) (string, error)
	EvaluateCached(ctx context.Context, cacheName string, freelancer *gemini.FreelancerPayload) (*ai.MatchAssessment, error)
}

type matchingService struct {
	repo   repositories.Repository
	db     *gorm.DB
	oracle MatchOracle
	cache  *cache.CacheManager
	logger *slog.Logger
}

// NewMatchingService creates the matching service. oracle may be nil when
// no scoring backend is configured; every request then uses the fallback.
func NewMatchingService(repo repositories.Repository, db *gorm.DB, oracle MatchOracle, cacheManager *cache.CacheManager, logger *slog.Logger) MatchingService {
	return &matchingService{
		repo:   repo,
		db:     db,
		oracle: oracle,
		cache:  cacheManager,
		logger: logger,
	}
}

func (s *matchingService) ScoreMatch(ctx context.Context, jobID, freelancerID uint) (*ai.MatchAssessment, error) {
	job, err := s.repo.Job().GetByID(ctx, s.db, jobID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	freelancer, err := s.repo.User().GetByID(ctx, s.db, freelancerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !freelancer.IsFreelancer() {
		return nil, NewPermissionError(freelancerID, jobID, "match", "score", "target user is not a freelancer")
	}

	if s.cache != nil {
		cacheKey := cache.MatchScoreKey(jobID, freelancerID)
		var cached ai.MatchAssessment
		result := &cached
		err := s.cache.Match.CacheOrExecute(ctx, cacheKey, result, cache.MatchCacheConfig.TTL, func() (interface{}, error) {
			return s.score(ctx, job, freelancer), nil
		})
		if err == nil {
			return result, nil
		}
		s.logger.Warn("Match cache error, scoring directly", "error", err, "job_id", jobID, "freelancer_id", freelancerID)
	}

	return s.score(ctx, job, freelancer), nil
}

func (s *matchingService) RankCandidates(ctx context.Context, jobID uint, limit int, userID uint) ([]*MatchResult, error) {
	job, err := s.repo.Job().GetByID(ctx, s.db, jobID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	user, err := s.repo.User().GetByID(ctx, s.db, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if job.BusinessID != userID && user.Role != models.RoleAdmin {
		return nil, NewPermissionError(userID, jobID, "match", "rank", "not the job owner")
	}

	// A non-positive limit asks for nothing; callers that want the default
	// pass DefaultRankLimit themselves.
	if limit <= 0 {
		return []*MatchResult{}, nil
	}

	candidates, err := s.repo.User().GetFreelancersBySkills(ctx, s.db, job.Skills, candidatePoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	if len(candidates) == 0 {
		return []*MatchResult{}, nil
	}

	s.logger.Info("Ranking candidates", "job_id", jobID, "candidates", len(candidates))

	// One uploaded job payload serves the whole pool when the oracle
	// supports it; preparation failure just means candidates are scored
	// with the full prompt.
	var cacheName string
	if batch, ok := s.oracle.(batchMatchOracle); ok {
		name, err := batch.PrepareJob(ctx, job.ID, jobPayload(job))
		if err != nil {
			s.logger.Warn("Job cache preparation failed, scoring without it", "error", err, "job_id", job.ID)
		} else {
			cacheName = name
		}
	}

	// Score every candidate concurrently. The results slice is indexed so
	// no locking is needed; each goroutine writes only its own slot.
	results := make([]*MatchResult, len(candidates))
	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func(i int, candidate *models.User) {
			defer wg.Done()

			scoreCtx, cancel := context.WithTimeout(ctx, oracleTimeout)
			defer cancel()

			assessment := s.scoreCached(scoreCtx, job, candidate, cacheName)
			results[i] = &MatchResult{
				Freelancer:  candidate,
				Score:       assessment.Score,
				Explanation: assessment.Explanation,
				Fallback:    assessment.Fallback,
			}
		}(i, candidate)
	}
	wg.Wait()

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// score consults the oracle and degrades to the skill overlap fallback on
// any failure. It never returns an error; a ranking must not collapse
// because one candidate could not be scored.
func (s *matchingService) score(ctx context.Context, job *models.Job, freelancer *models.User) *ai.MatchAssessment {
	if s.oracle != nil {
		assessment, err := s.evaluateOracle(ctx, job, freelancer)
		if err == nil {
			return assessment
		}
		s.logger.Warn("Oracle scoring failed, using fallback",
			"error", err,
			"job_id", job.ID,
			"freelancer_id", freelancer.ID)
	}

	return fallbackAssessment(job.Skills, freelancer.Skills)
}

// scoreCached is the ranking variant of score: with a prepared job cache it
// evaluates through the cached path, keeping the same per-candidate fallback
// guarantee.
func (s *matchingService) scoreCached(ctx context.Context, job *models.Job, freelancer *models.User, cacheName string) *ai.MatchAssessment {
	if cacheName == "" {
		return s.score(ctx, job, freelancer)
	}

	batch, ok := s.oracle.(batchMatchOracle)
	if !ok {
		return s.score(ctx, job, freelancer)
	}

	assessment, err := batch.EvaluateCached(ctx, cacheName, freelancerPayload(freelancer))
	if err == nil {
		return assessment
	}
	s.logger.Warn("Cached oracle scoring failed, using fallback",
		"error", err,
		"job_id", job.ID,
		"freelancer_id", freelancer.ID)

	return fallbackAssessment(job.Skills, freelancer.Skills)
}

func (s *matchingService) evaluateOracle(ctx context.Context, job *models.Job, freelancer *models.User) (*ai.MatchAssessment, error) {
	return s.oracle.Evaluate(ctx, jobPayload(job), freelancerPayload(freelancer))
}

func jobPayload(job *models.Job) *gemini.JobPayload {
	return &gemini.JobPayload{
		Title:       job.Title,
		Description: job.Description,
		Skills:      job.Skills,
	}
}

func freelancerPayload(freelancer *models.User) *gemini.FreelancerPayload {
	payload := &gemini.FreelancerPayload{
		Skills: freelancer.Skills,
	}
	if freelancer.Bio != nil {
		payload.Bio = *freelancer.Bio
	}
	return payload
}

// fallbackAssessment computes the deterministic skill overlap score. Skill
// comparison is exact after trimming and lowercasing; the score is the
// share of required skills the freelancer covers, rounded to the nearest
// whole percent.
func fallbackAssessment(jobSkills, freelancerSkills []string) *ai.MatchAssessment {
	matching := countOverlap(jobSkills, freelancerSkills)

	score := 0
	if len(jobSkills) > 0 {
		score = int(math.Round(float64(matching) / float64(len(jobSkills)) * 100))
	}

	return &ai.MatchAssessment{
		Score:       score,
		Explanation: fmt.Sprintf("Basic match based on %d overlapping skills", matching),
		Fallback:    true,
	}
}

func countOverlap(jobSkills, freelancerSkills []string) int {
	have := make(map[string]struct{}, len(freelancerSkills))
	for _, skill := range freelancerSkills {
		have[normalizeSkill(skill)] = struct{}{}
	}

	matching := 0
	for _, skill := range jobSkills {
		if _, ok := have[normalizeSkill(skill)]; ok {
			matching++
		}
	}
	return matching
}

func normalizeSkill(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}
