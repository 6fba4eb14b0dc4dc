package exam

import (
	"context"

	"github.com/pavelanni/questionbank/internal/model"
	"github.com/pavelanni/questionbank/internal/store"
)

// Repository is the persistence the exam service needs.
type Repository interface {
	// InTx runs fn against a transaction-bound Repository.
	InTx(ctx context.Context, fn func(tx Repository) error) error

	CountQuestions(ctx context.Context, ids []string) (int, error)
	FindQuestions(ctx context.Context, f model.QuestionFilter) ([]model.Question, error)
	CreateQuestion(ctx context.Context, q model.Question) (model.Question, error)
	DeleteQuestions(ctx context.Context, ids []string) error

	GetDiscipline(ctx context.Context, id string) (*model.Discipline, error)

	CreateExam(ctx context.Context, e model.Exam) (model.Exam, error)
	GetExam(ctx context.Context, id string) (*model.Exam, error)
	GetExamDetail(ctx context.Context, id string) (*model.ExamDetail, error)
	UpdateExam(ctx context.Context, id string, p model.ExamPatch) error
	DeleteExam(ctx context.Context, id string) error
	CountExams(ctx context.Context, f model.ExamFilter) (int, error)
	ListExams(ctx context.Context, f model.ExamFilter, page model.PageRequest) ([]model.ExamSummary, error)

	AddExamQuestions(ctx context.Context, links []model.ExamQuestion) error
	DeleteExamQuestions(ctx context.Context, examID string) error
}

type storeRepo struct {
	*store.Store
}

// FromStore adapts a store.Store to Repository.
func FromStore(s *store.Store) Repository {
	return storeRepo{s}
}

func (r storeRepo) InTx(ctx context.Context, fn func(tx Repository) error) error {
	return r.Store.InTx(ctx, func(tx *store.Store) error {
		return fn(storeRepo{tx})
	})
}
