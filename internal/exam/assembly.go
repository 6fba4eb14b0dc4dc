package exam

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/pavelanni/questionbank/internal/apperr"
	"github.com/pavelanni/questionbank/internal/model"
)

// assembly collects question IDs for one Create call, in source order:
// manual picks, authored questions, then the generation config.
type assembly struct {
	svc       *Service
	exam      model.Exam
	creatorID string

	ids     []string
	created []string
}

func (a *assembly) run(ctx context.Context, in model.CreateExamInput) error {
	if len(in.QuestionIDs) > 0 {
		if err := a.svc.checkQuestionsExist(ctx, a.svc.repo, in.QuestionIDs); err != nil {
			return err
		}
		a.ids = append(a.ids, in.QuestionIDs...)
	}

	for _, nq := range in.NewQuestions {
		if err := a.addNew(ctx, nq); err != nil {
			return err
		}
	}

	if cfg := in.GenerateConfig; cfg != nil {
		var err error
		if cfg.UseAI {
			err = a.addGenerated(ctx, *cfg)
		} else {
			err = a.addSampled(ctx, *cfg)
		}
		if err != nil {
			return err
		}
	}

	if len(a.ids) == 0 {
		return apperr.BadRequest("ExamEmpty")
	}
	if err := a.svc.repo.AddExamQuestions(ctx, buildLinks(a.exam.ID, a.ids)); err != nil {
		return fmt.Errorf("link questions: %w", err)
	}
	return nil
}

func (a *assembly) persist(ctx context.Context, q model.Question) error {
	q.CreatorID = a.creatorID
	if !q.Type.HasAlternatives() {
		q.Alternatives = model.Alternatives{}
	}
	created, err := a.svc.repo.CreateQuestion(ctx, q)
	if err != nil {
		return err
	}
	a.created = append(a.created, created.ID)
	a.ids = append(a.ids, created.ID)
	return nil
}

func (a *assembly) addNew(ctx context.Context, nq model.NewQuestion) error {
	nq = nq.WithDefaults()
	disciplineID := a.exam.DisciplineID
	if nq.DisciplineID != nil && *nq.DisciplineID != "" {
		d, err := a.svc.repo.GetDiscipline(ctx, *nq.DisciplineID)
		if err != nil {
			return err
		}
		if d == nil {
			return apperr.NotFound("DisciplineNotFound")
		}
		disciplineID = &d.ID
	}
	return a.persist(ctx, model.Question{
		Statement:     nq.Statement,
		CorrectAnswer: nq.CorrectAnswer,
		Difficulty:    nq.Difficulty,
		Type:          nq.Type,
		Alternatives:  nq.Alternatives,
		DisciplineID:  disciplineID,
	})
}

func (a *assembly) addGenerated(ctx context.Context, cfg model.ExamGenerationConfig) error {
	slots, err := a.svc.generateAll(ctx, cfg)
	if err != nil {
		return err
	}
	for _, sl := range slots {
		disciplineID := cfg.DisciplineID
		if err := a.persist(ctx, model.Question{
			Statement:     sl.result.Statement,
			CorrectAnswer: sl.result.CorrectAnswer,
			Difficulty:    sl.req.Difficulty,
			Type:          sl.req.Type,
			Alternatives:  sl.result.Alternatives,
			DisciplineID:  &disciplineID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// addSampled picks cfg.Count random bank questions not already in the exam.
func (a *assembly) addSampled(ctx context.Context, cfg model.ExamGenerationConfig) error {
	if cfg.Count <= 0 {
		return apperr.BadRequest("GenerationCountRequired")
	}
	filter := model.QuestionFilter{
		DisciplineID: cfg.DisciplineID,
		Difficulty:   cfg.Difficulty,
		ExcludeIDs:   a.ids,
	}
	if cfg.OnlyMyQuestions {
		filter.CreatorID = a.creatorID
	}
	pool, err := a.svc.repo.FindQuestions(ctx, filter)
	if err != nil {
		return err
	}
	if len(pool) < cfg.Count {
		return apperr.BadRequest("InsufficientQuestions").
			With("Available", len(pool)).
			With("Requested", cfg.Count)
	}
	ids := make([]string, len(pool))
	for i, q := range pool {
		ids[i] = q.ID
	}
	a.svc.shuffle(ids)
	a.ids = append(a.ids, ids[:cfg.Count]...)
	return nil
}

// shuffle permutes ids uniformly (Fisher-Yates).
func (s *Service) shuffle(ids []string) {
	swap := func(i, j int) { ids[i], ids[j] = ids[j], ids[i] }
	if s.rng != nil {
		s.rngMu.Lock()
		defer s.rngMu.Unlock()
		s.rng.Shuffle(len(ids), swap)
		return
	}
	rand.Shuffle(len(ids), swap)
}
