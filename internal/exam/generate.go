package exam

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/questionbank/internal/apperr"
	"github.com/pavelanni/questionbank/internal/model"
)

type slot struct {
	req    model.GenerationRequest
	result model.GenerationResult
}

// generateAll runs every AI item of cfg. Results come back in issuance
// order (item by item, repetition by repetition) whatever order the calls
// finish in.
func (s *Service) generateAll(ctx context.Context, cfg model.ExamGenerationConfig) ([]slot, error) {
	if len(cfg.Items) == 0 {
		return nil, apperr.BadRequest("GenerationItemsRequired")
	}
	discipline, err := s.repo.GetDiscipline(ctx, cfg.DisciplineID)
	if err != nil {
		return nil, err
	}
	if discipline == nil {
		return nil, apperr.NotFound("DisciplineNotFound")
	}

	var slots []slot
	var exemplars [][]model.Question
	for _, item := range cfg.Items {
		base, err := s.resolveBase(ctx, item.BaseQuestionIDs)
		if err != nil {
			return nil, err
		}
		req := model.GenerationRequest{
			Topic:           discipline.Name + ": " + item.Topic,
			Difficulty:      item.Difficulty,
			Type:            item.Type,
			BaseQuestionIDs: item.BaseQuestionIDs,
			GeneralContext:  cfg.GeneralPrompt,
		}
		if req.Difficulty == "" {
			req.Difficulty = cfg.Difficulty
		}
		if req.Difficulty == "" {
			req.Difficulty = model.DifficultyMedium
		}
		if req.Type == "" {
			req.Type = model.TypeObjective
		}
		for range item.Repeats() {
			slots = append(slots, slot{req: req})
			exemplars = append(exemplars, base)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range slots {
		g.Go(func() error {
			res, err := s.gen.Generate(gctx, slots[i].req, exemplars[i])
			if err != nil {
				return fmt.Errorf("generate slot %d: %w", i, err)
			}
			slots[i].result = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slots, nil
}

// resolveBase loads the reference questions for a generation request.
func (s *Service) resolveBase(ctx context.Context, ids []string) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	unique := dedupe(ids)
	found, err := s.repo.FindQuestions(ctx, model.QuestionFilter{IDs: unique})
	if err != nil {
		return nil, err
	}
	if len(found) != len(unique) {
		return nil, apperr.NotFound("BaseQuestionsNotFound").
			With("Found", len(found)).
			With("Requested", len(unique))
	}
	return found, nil
}

// Preview generates the AI items of cfg without persisting anything.
func (s *Service) Preview(ctx context.Context, cfg model.ExamGenerationConfig) ([]model.PreviewQuestion, error) {
	if !cfg.UseAI {
		return nil, apperr.BadRequest("PreviewRequiresAI")
	}
	slots, err := s.generateAll(ctx, cfg)
	if err != nil {
		return nil, apperr.Classify(err, "PreviewFailed")
	}
	out := make([]model.PreviewQuestion, len(slots))
	for i, sl := range slots {
		out[i] = model.PreviewQuestion{
			Topic:         sl.req.Topic,
			Statement:     sl.result.Statement,
			CorrectAnswer: sl.result.CorrectAnswer,
			Alternatives:  sl.result.Alternatives,
			Explanation:   sl.result.Explanation,
			Difficulty:    sl.req.Difficulty,
			Type:          sl.req.Type,
			DisciplineID:  cfg.DisciplineID,
		}
	}
	return out, nil
}

// GenerateQuestion produces a single question without persisting it.
func (s *Service) GenerateQuestion(ctx context.Context, req model.GenerationRequest) (model.GenerationResult, error) {
	base, err := s.resolveBase(ctx, req.BaseQuestionIDs)
	if err != nil {
		return model.GenerationResult{}, apperr.Classify(err, "AIGenerationFailed")
	}
	if req.Type == "" {
		req.Type = model.TypeObjective
	}
	res, err := s.gen.Generate(ctx, req, base)
	if err != nil {
		return model.GenerationResult{}, apperr.Classify(err, "AIGenerationFailed")
	}
	return res, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
