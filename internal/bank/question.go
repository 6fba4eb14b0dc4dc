package bank

import (
	"context"
	"errors"

	"github.com/pavelanni/questionbank/internal/apperr"
	"github.com/pavelanni/questionbank/internal/model"
	"github.com/pavelanni/questionbank/internal/store"
)

// QuestionQuery holds question listing parameters.
type QuestionQuery struct {
	DisciplineID string
	Difficulty   model.Difficulty
	Type         model.QuestionType
	Search       string
	OrderBy      store.QuestionOrder
	Desc         bool
	Page         model.PageRequest
}

func (s *Service) checkDiscipline(ctx context.Context, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	_, err := s.GetDiscipline(ctx, *id)
	return err
}

// CreateQuestion stores an authored question owned by creatorID.
func (s *Service) CreateQuestion(ctx context.Context, creatorID string, in model.NewQuestion) (*model.Question, error) {
	in = in.WithDefaults()
	if err := s.checkDiscipline(ctx, in.DisciplineID); err != nil {
		return nil, err
	}
	q, err := s.store.CreateQuestion(ctx, model.Question{
		Statement:     in.Statement,
		CorrectAnswer: in.CorrectAnswer,
		Difficulty:    in.Difficulty,
		Type:          in.Type,
		Alternatives:  in.Alternatives,
		DisciplineID:  in.DisciplineID,
		CreatorID:     creatorID,
	})
	if err != nil {
		return nil, apperr.Internal("InternalError", err)
	}
	return s.GetQuestion(ctx, q.ID)
}

func (s *Service) GetQuestion(ctx context.Context, id string) (*model.Question, error) {
	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return nil, apperr.Internal("InternalError", err)
	}
	if q == nil {
		return nil, apperr.NotFound("QuestionNotFound")
	}
	return q, nil
}

// ListQuestions pages through the whole bank.
func (s *Service) ListQuestions(ctx context.Context, q QuestionQuery) (model.Page[model.Question], error) {
	return s.listQuestions(ctx, "", q)
}

// ListMyQuestions pages through the questions created by userID.
func (s *Service) ListMyQuestions(ctx context.Context, userID string, q QuestionQuery) (model.Page[model.Question], error) {
	return s.listQuestions(ctx, userID, q)
}

func (s *Service) listQuestions(ctx context.Context, creatorID string, q QuestionQuery) (model.Page[model.Question], error) {
	page := q.Page.Normalize()
	order := q.OrderBy
	if order == "" {
		order = store.OrderCreatedAt
	}
	rows, total, err := s.store.ListQuestionsPage(ctx, model.QuestionFilter{
		DisciplineID: q.DisciplineID,
		Difficulty:   q.Difficulty,
		Type:         q.Type,
		CreatorID:    creatorID,
		Search:       q.Search,
	}, page, order, q.Desc)
	if err != nil {
		return model.Page[model.Question]{}, apperr.Internal("InternalError", err)
	}
	return model.NewPage(rows, total, page), nil
}

func (s *Service) ownedQuestion(ctx context.Context, userID, id, forbiddenMsg string) (*model.Question, error) {
	q, err := s.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.CreatorID != userID {
		return nil, apperr.Forbidden(forbiddenMsg)
	}
	return q, nil
}

// UpdateQuestion applies patch. Only the creator may update.
func (s *Service) UpdateQuestion(ctx context.Context, userID, id string, patch model.QuestionPatch) (*model.Question, error) {
	if _, err := s.ownedQuestion(ctx, userID, id, "QuestionEditForbidden"); err != nil {
		return nil, err
	}
	if err := s.checkDiscipline(ctx, patch.DisciplineID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateQuestion(ctx, id, patch); err != nil {
		return nil, apperr.Internal("InternalError", err)
	}
	return s.GetQuestion(ctx, id)
}

// DeleteQuestion removes a question no exam uses. Only the creator may delete.
func (s *Service) DeleteQuestion(ctx context.Context, userID, id string) error {
	if _, err := s.ownedQuestion(ctx, userID, id, "QuestionDeleteForbidden"); err != nil {
		return err
	}
	err := s.store.DeleteQuestion(ctx, id)
	if errors.Is(err, store.ErrReferenced) {
		return apperr.Conflict("QuestionInUse")
	}
	if err != nil {
		return apperr.Internal("InternalError", err)
	}
	return nil
}
