package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pavelanni/questionbank/internal/apperr"
	"github.com/pavelanni/questionbank/internal/llm/prompts"
	"github.com/pavelanni/questionbank/internal/model"
)

// GeneratorConfig tunes the retry policy of a Generator.
type GeneratorConfig struct {
	// Attempts is the total number of model calls per question.
	Attempts int
	// Backoff is multiplied by the attempt number before retrying a rate-limited call.
	Backoff time.Duration
	// Timeout bounds each model call. Zero means no deadline.
	Timeout time.Duration
	Lang    prompts.Language
}

// DefaultGeneratorConfig returns 3 attempts with 1s linear backoff and a 60s deadline.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Attempts: 3,
		Backoff:  time.Second,
		Timeout:  60 * time.Second,
		Lang:     prompts.LangEnglish,
	}
}

// Generator produces exam questions from a Completer.
type Generator struct {
	api   Completer
	cfg   GeneratorConfig
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGenerator returns a Generator. Non-positive settings take their defaults.
func NewGenerator(api Completer, cfg GeneratorConfig) *Generator {
	def := DefaultGeneratorConfig()
	if cfg.Attempts <= 0 {
		cfg.Attempts = def.Attempts
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = def.Backoff
	}
	if cfg.Lang == "" {
		cfg.Lang = def.Lang
	}
	return &Generator{api: api, cfg: cfg, sleep: sleepCtx}
}

// Generate produces one question. Exemplars are the already resolved base
// questions of req. Every failure is reported as AIGenerationFailed.
func (g *Generator) Generate(ctx context.Context, req model.GenerationRequest, exemplars []model.Question) (model.GenerationResult, error) {
	prompt, err := BuildPrompt(g.cfg.Lang, req, exemplars)
	if err != nil {
		return model.GenerationResult{}, apperr.Internal("AIGenerationFailed", err)
	}

	var lastErr error
	for attempt := 1; attempt <= g.cfg.Attempts; attempt++ {
		result, err := g.attempt(ctx, prompt)
		if err == nil {
			return result, nil
		}
		lastErr = err
		limited := IsRateLimited(err)
		slog.Warn("question generation attempt failed",
			"attempt", attempt, "of", g.cfg.Attempts, "rate_limited", limited, "error", err)

		if ctx.Err() != nil || attempt == g.cfg.Attempts {
			break
		}
		if limited {
			if err := g.sleep(ctx, time.Duration(attempt)*g.cfg.Backoff); err != nil {
				lastErr = err
				break
			}
		}
	}
	return model.GenerationResult{}, apperr.Internal("AIGenerationFailed", lastErr)
}

func (g *Generator) attempt(ctx context.Context, prompt string) (model.GenerationResult, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}
	raw, err := g.api.Complete(ctx, prompt)
	if err != nil {
		return model.GenerationResult{}, err
	}
	return ParseResult(raw)
}

// ParseResult decodes model text into a GenerationResult, tolerating code fences.
func ParseResult(raw string) (model.GenerationResult, error) {
	var result model.GenerationResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &result); err != nil {
		return model.GenerationResult{}, fmt.Errorf("parse generation response: %w", err)
	}
	if strings.TrimSpace(result.Statement) == "" {
		return model.GenerationResult{}, errors.New("generation response has no statement")
	}
	if result.Alternatives == nil {
		result.Alternatives = model.Alternatives{}
	}
	return result, nil
}

func stripFences(raw string) string {
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// BuildPrompt renders the generation prompt for req.
func BuildPrompt(lang prompts.Language, req model.GenerationRequest, exemplars []model.Question) (string, error) {
	data := prompts.QuestionData{
		Topic:      req.Topic,
		Difficulty: string(req.Difficulty),
		Type:       string(req.Type),
		Guidance:   req.GeneralContext,
	}
	for _, q := range exemplars {
		data.Exemplars = append(data.Exemplars, prompts.Exemplar{
			Statement:     q.Statement,
			CorrectAnswer: q.CorrectAnswer,
			Alternatives:  q.Alternatives.Texts(),
		})
	}
	return prompts.BuildQuestionPrompt(lang, data)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
