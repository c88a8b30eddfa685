package in

import "context"

// AIService defines the inbound port for resume and cover-letter helpers.
type AIService interface {
	// ScoreResume rates a resume against a job description.
	ScoreResume(ctx context.Context, req *ScoreResumeRequest) (*ScoreResumeResult, error)

	// GenerateCoverLetter drafts a cover letter for a specific opening.
	GenerateCoverLetter(ctx context.Context, req *CoverLetterRequest) (string, error)
}

type ScoreResumeRequest struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"job_description"`
}

type ScoreResumeResult struct {
	Score           int      `json:"score"`
	Strengths       []string `json:"strengths"`
	Gaps            []string `json:"gaps"`
	MissingKeywords []string `json:"missing_keywords"`
	Suggestions     []string `json:"suggestions"`
}

type CoverLetterRequest struct {
	Resume         string `json:"resume"`
	Company        string `json:"company"`
	Role           string `json:"role"`
	JobDescription string `json:"job_description,omitempty"`
}
