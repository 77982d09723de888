package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/gigbridge/marketplace-service/internal/repositories"
)

const careerSystemPrompt = `You are an AI Career Guide specialized in providing advice about technology careers, certifications, and skill development. Your responses should:

1. Focus on practical, actionable advice
2. Recommend relevant certifications and courses
3. Suggest skill development paths based on current job market trends
4. Provide specific resources when possible
5. Keep responses concise and structured

When recommending certifications or courses:
- Prioritize widely recognized certifications
- Consider the user's current skill level
- Explain why specific certifications are valuable
- Include estimated time commitments and prerequisites

For skill recommendations:
- Focus on in-demand technologies
- Suggest learning paths
- Consider both technical and soft skills
- Base advice on current industry trends

Always maintain a professional yet encouraging tone.`

// Canned answers served when the generation backend is unavailable, keyed
// by rough question topic.
var careerFallbacks = map[string]string{
	"skills": `Here are some key technical skills that are currently in high demand:

1. Programming Languages:
   - JavaScript/TypeScript
   - Python
   - Java
   - Go

2. Frameworks:
   - React/Next.js
   - Node.js
   - Django/Flask
   - Spring Boot

3. Tools & Technologies:
   - Docker & Kubernetes
   - Git
   - CI/CD tools
   - Cloud Platforms`,

	"certifications": `Popular technology certifications that can boost your career:

1. Cloud:
   - AWS Solutions Architect
   - Google Cloud Professional
   - Azure Administrator

2. Development:
   - Oracle Java Certification
   - MongoDB Developer
   - Kubernetes Application Developer

3. Project Management:
   - PMP
   - Scrum Master
   - PRINCE2`,

	"general": `I'm currently experiencing some technical limitations, but I can provide some general career advice:

1. Focus on in-demand skills like:
   - Full-stack development
   - Cloud computing (AWS, Azure, GCP)
   - Data Science & AI/ML
   - DevOps & CI/CD

2. Recommended certifications:
   - AWS Certified Developer
   - Microsoft Azure Fundamentals
   - Google Cloud Associate Engineer
   - CompTIA Security+

3. Learning platforms:
   - Coursera
   - Udemy
   - freeCodeCamp
   - LinkedIn Learning

Would you like to know more about any of these areas?`,
}

// CareerOracle generates freeform guidance text.
type CareerOracle interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type careerService struct {
	repo   repositories.Repository
	db     *gorm.DB
	oracle CareerOracle
	logger *slog.Logger
}

// NewCareerService creates the career guidance service. oracle may be nil;
// questions then get the canned fallback answers.
func NewCareerService(repo repositories.Repository, db *gorm.DB, oracle CareerOracle, logger *slog.Logger) CareerService {
	return &careerService{
		repo:   repo,
		db:     db,
		oracle: oracle,
		logger: logger,
	}
}

func (s *careerService) GetGuidance(ctx context.Context, req *CareerGuideRequest, userID uint) (*CareerGuideResponse, error) {
	user, err := s.repo.User().GetByID(ctx, s.db, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsFreelancer() {
		return nil, NewPermissionError(userID, 0, "career_guide", "ask", "guidance is for freelancer accounts")
	}

	if s.oracle != nil {
		prompt := careerSystemPrompt + "\n\nQuestion: " + req.Question
		answer, err := s.oracle.GenerateContent(ctx, prompt)
		if err == nil && strings.TrimSpace(answer) != "" {
			return &CareerGuideResponse{Answer: answer}, nil
		}
		s.logger.Warn("Career guidance generation failed, using fallback", "error", err, "user_id", userID)
	}

	return &CareerGuideResponse{
		Answer:   fallbackGuidance(req.Question),
		Fallback: true,
	}, nil
}

// fallbackGuidance picks a canned answer by keyword.
func fallbackGuidance(question string) string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "skill") || strings.Contains(q, "learn"):
		return careerFallbacks["skills"]
	case strings.Contains(q, "certif") || strings.Contains(q, "course"):
		return careerFallbacks["certifications"]
	default:
		return careerFallbacks["general"]
	}
}
