package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	_ "embed"

	"github.com/gigbridge/marketplace-service/internal/ai"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// jobCachingGenerator is the optional fast path for ranking runs: the job
// side of the prompt is uploaded once and referenced per candidate.
type jobCachingGenerator interface {
	contentGenerator
	EnsureJobCache(ctx context.Context, jobID uint, displayName, jobPayload string) (string, error)
	GenerateContentWithCache(ctx context.Context, prompt, cacheName string) (string, error)
}

// Scorer asks the model to rate how well a freelancer profile fits a job
type Scorer struct {
	generator contentGenerator
	logger    *slog.Logger
}

//go:embed prompt.md
var promptTemplate string

// JobPayload is the job side of the scoring prompt
type JobPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Skills      []string `json:"required_skills"`
}

// FreelancerPayload is the candidate side of the scoring prompt
type FreelancerPayload struct {
	Bio    string   `json:"bio"`
	Skills []string `json:"skills"`
}

func NewScorer(generator contentGenerator, logger *slog.Logger) *Scorer {
	return &Scorer{
		generator: generator,
		logger:    logger,
	}
}

// Evaluate scores a freelancer against a job via the model. The caller is
// responsible for fallback scoring when this returns an error.
func (s *Scorer) Evaluate(ctx context.Context, job *JobPayload, freelancer *FreelancerPayload) (*ai.MatchAssessment, error) {
	if job == nil {
		return nil, fmt.Errorf("job payload is required")
	}
	if freelancer == nil {
		return nil, fmt.Errorf("freelancer payload is required")
	}

	jobJSON, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	freelancerJSON, err := json.MarshalIndent(freelancer, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal freelancer payload: %w", err)
	}

	prompt := buildPrompt(string(jobJSON), string(freelancerJSON))

	s.logger.DebugContext(ctx, "gemini match request",
		"job_title", job.Title,
		"prompt_length", len(prompt))

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "gemini match response",
		"job_title", job.Title,
		"response_length", len(raw))

	assessment, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	assessment.Raw = raw
	return assessment, nil
}

// PrepareJob uploads the job payload as Gemini cached content so a ranking
// run does not resend it with every candidate prompt. Returns an empty name
// when the generator does not support content caching; callers then score
// through Evaluate as usual.
func (s *Scorer) PrepareJob(ctx context.Context, jobID uint, job *JobPayload) (string, error) {
	caching, ok := s.generator.(jobCachingGenerator)
	if !ok {
		return "", nil
	}
	if job == nil {
		return "", fmt.Errorf("job payload is required")
	}

	jobJSON, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal job payload: %w", err)
	}

	payload := "Job Details:\n" + string(jobJSON)
	return caching.EnsureJobCache(ctx, jobID, fmt.Sprintf("match-job-%d", jobID), payload)
}

// EvaluateCached scores a freelancer against a job previously uploaded with
// PrepareJob.
func (s *Scorer) EvaluateCached(ctx context.Context, cacheName string, freelancer *FreelancerPayload) (*ai.MatchAssessment, error) {
	caching, ok := s.generator.(jobCachingGenerator)
	if !ok {
		return nil, fmt.Errorf("generator does not support content caching")
	}
	if strings.TrimSpace(cacheName) == "" {
		return nil, fmt.Errorf("cache name is required")
	}
	if freelancer == nil {
		return nil, fmt.Errorf("freelancer payload is required")
	}

	freelancerJSON, err := json.MarshalIndent(freelancer, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal freelancer payload: %w", err)
	}

	prompt := buildPrompt("(provided as cached content)", string(freelancerJSON))

	raw, err := caching.GenerateContentWithCache(ctx, prompt, cacheName)
	if err != nil {
		return nil, err
	}

	assessment, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	assessment.Raw = raw
	return assessment, nil
}

func buildPrompt(jobJSON, freelancerJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job:\n{{JOB_JSON}}\n\nFreelancer:\n{{FREELANCER_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{JOB_JSON}}", jobJSON)
	prompt = strings.ReplaceAll(prompt, "{{FREELANCER_JSON}}", freelancerJSON)
	return prompt
}

func parseResponse(raw string) (*ai.MatchAssessment, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		return nil, fmt.Errorf("gemini response has no usable score")
	}
	if score < 0 || score > 100 {
		return nil, fmt.Errorf("gemini score %v out of range", score)
	}

	return &ai.MatchAssessment{
		Score:       int(math.Round(score)),
		Explanation: coerceString(data["explanation"]),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
