package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/classlens/ai-assist/internal/models"
)

const (
	defaultModel       = "gpt-4o"
	analysisTemp       = 0.3
	analysisMaxTokens  = 2000
	defaultCallTimeout = 60 * time.Second
)

// QuestionInfo is the question view handed to the prompt builder.
type QuestionInfo struct {
	ID      string
	Text    string
	Type    string
	Options []string
	Points  int
}

// StudentAnswers pairs a student with their normalized answers.
type StudentAnswers struct {
	StudentName string
	Answers     []models.SubmissionAnswer
}

// AnalysisRequest carries everything the model needs to analyze a test run.
type AnalysisRequest struct {
	MaterialTitle       string
	MaterialDescription string
	MaterialContent     string
	Questions           []QuestionInfo
	Submissions         []StudentAnswers
}

// AnalysisResult is the parsed model output. Fallback is set when the
// response could not be parsed and a synthetic result was substituted.
type AnalysisResult struct {
	Misconceptions  []models.StudentMisconception `json:"misconceptions"`
	ContentGuidance []models.ContentGuidance      `json:"contentGuidance"`
	OverallInsights []string                      `json:"overallInsights"`
	Fallback        bool                          `json:"-"`
}

// Analyzer produces misconception analyses from assembled test data.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error)
}

// ClientConfig configures the OpenAI-backed analyzer.
type ClientConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// Client calls an OpenAI-compatible chat-completion API.
type Client struct {
	api        *openai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	logger     *slog.Logger
}

func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	return &Client{
		api:        openai.NewClientWithConfig(apiCfg),
		model:      model,
		timeout:    timeout,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}
}

// Analyze sends the assembled prompt and parses the response. A response
// that cannot be parsed as JSON, even after extracting the largest JSON
// object, degrades to a synthetic fallback result rather than an error.
func (c *Client) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	prompt := BuildAnalysisPrompt(req)

	content, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result, ok := parseAnalysisResponse(content)
	if !ok {
		c.logger.Warn("AI response could not be parsed, using fallback analysis",
			"response_length", len(content))
		return FallbackResult(studentNames(req.Submissions)), nil
	}

	return result, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are an education analyst. Respond with a single JSON object and nothing else.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: analysisTemp,
			MaxTokens:   analysisMaxTokens,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		cancel()

		if err == nil {
			if len(resp.Choices) == 0 {
				return "", fmt.Errorf("AI returned no choices")
			}
			return resp.Choices[0].Message.Content, nil
		}

		lastErr = err
		if !isRetryable(err) {
			break
		}
		c.logger.Warn("AI call failed, retrying",
			"attempt", attempt+1,
			"error", err)
	}

	return "", fmt.Errorf("AI completion failed: %w", lastErr)
}

func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	// Timeouts and transport errors are worth one more try
	return errors.Is(err, context.DeadlineExceeded)
}

// parseAnalysisResponse tries a direct unmarshal first, then the largest
// JSON object embedded in the text (models sometimes wrap JSON in prose).
func parseAnalysisResponse(content string) (*AnalysisResult, bool) {
	var result AnalysisResult
	if err := json.Unmarshal([]byte(content), &result); err == nil && !resultEmpty(&result) {
		return &result, true
	}

	extracted, ok := ExtractJSONObject(content)
	if !ok {
		return nil, false
	}

	if err := json.Unmarshal([]byte(extracted), &result); err != nil || resultEmpty(&result) {
		return nil, false
	}
	return &result, true
}

func resultEmpty(r *AnalysisResult) bool {
	return len(r.Misconceptions) == 0 && len(r.ContentGuidance) == 0 && len(r.OverallInsights) == 0
}

// ExtractJSONObject returns the largest balanced top-level JSON object in s.
// Braces inside strings are ignored.
func ExtractJSONObject(s string) (string, bool) {
	best := ""
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					candidate := s[start : i+1]
					if len(candidate) > len(best) {
						best = candidate
					}
				}
			}
		}
	}

	if best == "" {
		return "", false
	}
	return best, true
}

// FallbackResult synthesizes a generic analysis naming every submitted
// student. Callers must persist it with the fallback flag set.
func FallbackResult(names []string) *AnalysisResult {
	return &AnalysisResult{
		Misconceptions: []models.StudentMisconception{
			{
				Topic:            "General Understanding",
				Description:      "The automated analysis could not be completed. Review the submissions manually to identify misconception patterns.",
				AffectedStudents: names,
				Severity:         models.SeverityMedium,
			},
		},
		ContentGuidance: []models.ContentGuidance{
			{
				Section:              "Overall material",
				Issues:               []string{"Automated content review unavailable for this run"},
				SpecificImprovements: []string{"Re-run the analysis or review student answers against the material manually"},
				Priority:             models.PriorityMedium,
			},
		},
		OverallInsights: []string{
			"Automated analysis was unavailable; results below are generic placeholders.",
			"Student submissions were recorded successfully and can be re-analyzed at any time.",
		},
		Fallback: true,
	}
}

func studentNames(submissions []StudentAnswers) []string {
	names := make([]string, 0, len(submissions))
	for _, s := range submissions {
		name := strings.TrimSpace(s.StudentName)
		if name == "" {
			name = "Unknown student"
		}
		names = append(names, name)
	}
	return names
}
