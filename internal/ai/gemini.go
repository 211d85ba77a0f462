package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/prajna-app/prajna-backend/internal/config"
	"github.com/prajna-app/prajna-backend/internal/model"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// ErrAIUnavailable is returned when no API key is configured.
var ErrAIUnavailable = errors.New("ai provider not configured")

// ShortAnswerInput is what the evaluator sees for one short answer.
type ShortAnswerInput struct {
	IdealAnswer string
	Question    string
	Answer      string
}

// ShortAnswerEvaluation is the evaluator's verdict on a short answer.
type ShortAnswerEvaluation struct {
	Explanation string  `json:"explanation"`
	Score       float64 `json:"score"`
}

// GenerationRequest describes the exam to generate.
type GenerationRequest struct {
	Topics           []model.Topic
	MCQCount         int
	TrueFalseCount   int
	ShortAnswerCount int
	AdditionalInfo   string
}

// GeneratedExam is the generator output.
type GeneratedExam struct {
	Title       string                      `json:"title"`
	MCQ         []model.MCQQuestion         `json:"mcq"`
	TrueFalse   []model.TrueFalseQuestion   `json:"true_false"`
	ShortAnswer []model.ShortAnswerQuestion `json:"short_answer"`
}

// Client talks to the Gemini API.
type Client struct {
	genai *genai.Client
	model string
	retry RetryPolicy
	log   zerolog.Logger
}

// NewClient creates a Gemini client. Without an API key the client is returned
// in a disabled state where every call fails with ErrAIUnavailable.
func NewClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Client, error) {
	c := &Client{
		model: cfg.GeminiModel,
		retry: RetryPolicy{MaxRetries: cfg.AIMaxRetries, Initial: cfg.AIRetryInitial},
		log:   log.With().Str("component", "gemini").Logger(),
	}
	if cfg.GeminiAPIKey == "" {
		c.log.Warn().Msg("GEMINI_API_KEY not set, AI calls are disabled")
		return c, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	c.genai = client
	return c, nil
}

// EvaluateShortAnswer asks the model to grade a short answer on the 0-5 scale.
// The score is returned as produced; range checks are the caller's job.
func (c *Client) EvaluateShortAnswer(ctx context.Context, in ShortAnswerInput) (*ShortAnswerEvaluation, error) {
	var out struct {
		Evaluation *ShortAnswerEvaluation `json:"evaluation"`
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   evaluationSchema,
		Temperature:      genai.Ptr[float32](0.2),
	}
	if err := c.generateJSON(ctx, ShortAnswerPrompt(in), cfg, &out); err != nil {
		return nil, err
	}
	if out.Evaluation == nil {
		return nil, errors.New("evaluation missing from model response")
	}
	return out.Evaluation, nil
}

// GenerateQuestions asks the model for an exam built from topic notes.
// Extra questions beyond the requested counts are dropped.
func (c *Client) GenerateQuestions(ctx context.Context, req GenerationRequest) (*GeneratedExam, error) {
	var out GeneratedExam
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   examSchema,
		Temperature:      genai.Ptr[float32](0.7),
	}
	if err := c.generateJSON(ctx, GenerationPrompt(req), cfg, &out); err != nil {
		return nil, err
	}

	out.MCQ = validMCQ(out.MCQ)
	out.MCQ = truncate(out.MCQ, req.MCQCount)
	out.TrueFalse = truncate(out.TrueFalse, req.TrueFalseCount)
	out.ShortAnswer = truncate(out.ShortAnswer, req.ShortAnswerCount)

	if len(out.MCQ) < req.MCQCount || len(out.TrueFalse) < req.TrueFalseCount || len(out.ShortAnswer) < req.ShortAnswerCount {
		c.log.Warn().
			Int("mcq", len(out.MCQ)).
			Int("true_false", len(out.TrueFalse)).
			Int("short_answer", len(out.ShortAnswer)).
			Msg("Model returned fewer questions than requested")
	}
	return &out, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig, dst interface{}) error {
	if c.genai == nil {
		return ErrAIUnavailable
	}

	return c.retry.Do(ctx, func() error {
		result, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
		if err != nil {
			c.log.Debug().Err(err).Msg("GenerateContent failed")
			return fmt.Errorf("generate content: %w", err)
		}

		raw := cleanJSON(result.Text())
		if raw == "" {
			return errors.New("empty model response")
		}
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			return fmt.Errorf("decode model response: %w", err)
		}
		return nil
	})
}

// cleanJSON strips markdown code fences the model sometimes wraps around JSON.
func cleanJSON(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.Trim(clean, "`")
	return strings.TrimSpace(clean)
}

func validMCQ(qs []model.MCQQuestion) []model.MCQQuestion {
	out := qs[:0]
	for _, q := range qs {
		for _, opt := range q.Options {
			if opt == q.Answer {
				out = append(out, q)
				break
			}
		}
	}
	return out
}

func truncate[T any](items []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(items) > n {
		return items[:n]
	}
	if items == nil {
		return []T{}
	}
	return items
}

// ─── Response schemas ─────────────────────────────────────────────────

var evaluationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"evaluation": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"explanation": {Type: genai.TypeString},
				"score":       {Type: genai.TypeNumber},
			},
			Required: []string{"explanation", "score"},
		},
	},
	Required: []string{"evaluation"},
}

var examSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title": {Type: genai.TypeString},
		"mcq": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"question":       {Type: genai.TypeString},
					"options":        {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
					"answer":         {Type: genai.TypeString},
					"ai_explanation": {Type: genai.TypeString},
				},
				Required: []string{"question", "options", "answer"},
			},
		},
		"true_false": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"question":    {Type: genai.TypeString},
					"answer":      {Type: genai.TypeBoolean},
					"explanation": {Type: genai.TypeString},
				},
				Required: []string{"question", "answer", "explanation"},
			},
		},
		"short_answer": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"question":    {Type: genai.TypeString},
					"modelAnswer": {Type: genai.TypeString},
				},
				Required: []string{"question", "modelAnswer"},
			},
		},
	},
	Required: []string{"title", "mcq", "true_false", "short_answer"},
}
