// Package exam assembles exams from manual picks, newly authored questions,
// AI generation and random sampling of the question bank.
package exam

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/pavelanni/questionbank/internal/apperr"
	"github.com/pavelanni/questionbank/internal/model"
)

// Generator produces one question per request. Exemplars are the resolved
// base questions of req.
type Generator interface {
	Generate(ctx context.Context, req model.GenerationRequest, exemplars []model.Question) (model.GenerationResult, error)
}

// Options tunes a Service.
type Options struct {
	// Concurrency bounds parallel AI generation calls. Defaults to 4.
	Concurrency int
	// Rand drives random sampling. Nil uses the runtime-seeded global source.
	// The Service serializes its use, so one Rand may serve concurrent calls.
	Rand *rand.Rand
}

// Service implements exam assembly, preview and maintenance.
type Service struct {
	repo        Repository
	gen         Generator
	concurrency int

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewService(repo Repository, gen Generator, opts Options) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Service{repo: repo, gen: gen, concurrency: opts.Concurrency, rng: opts.Rand}
}

// Create builds an exam for creatorID. On failure nothing created by the
// call remains: the exam shell and any questions it persisted are deleted.
func (s *Service) Create(ctx context.Context, creatorID string, in model.CreateExamInput) (*model.ExamDetail, error) {
	if in.Visibility == "" {
		in.Visibility = model.VisibilityPrivate
	}
	shell, err := s.repo.CreateExam(ctx, model.Exam{
		Title:        in.Title,
		Description:  in.Description,
		Visibility:   in.Visibility,
		CreatorID:    creatorID,
		DisciplineID: s.inferDiscipline(ctx, in),
	})
	if err != nil {
		return nil, apperr.Classify(err, "ExamCreateFailed")
	}

	a := &assembly{svc: s, exam: shell, creatorID: creatorID}
	if err := a.run(ctx, in); err != nil {
		s.rollback(ctx, shell.ID, a.created, err)
		return nil, apperr.Classify(err, "ExamCreateFailed")
	}

	detail, err := s.repo.GetExamDetail(ctx, shell.ID)
	if err != nil {
		return nil, apperr.Classify(err, "ExamCreateFailed")
	}
	slog.Info("exam created", "id", shell.ID, "creator", creatorID, "questions", len(a.ids))
	return detail, nil
}

// inferDiscipline picks the exam's discipline from the generation config or
// the first authored question. Unknown IDs are ignored.
func (s *Service) inferDiscipline(ctx context.Context, in model.CreateExamInput) *string {
	var candidate string
	if in.GenerateConfig != nil && in.GenerateConfig.DisciplineID != "" {
		candidate = in.GenerateConfig.DisciplineID
	} else {
		for _, nq := range in.NewQuestions {
			if nq.DisciplineID != nil && *nq.DisciplineID != "" {
				candidate = *nq.DisciplineID
				break
			}
		}
	}
	if candidate == "" {
		return nil
	}
	d, err := s.repo.GetDiscipline(ctx, candidate)
	if err != nil || d == nil {
		slog.Debug("exam discipline not inferred", "discipline", candidate, "error", err)
		return nil
	}
	return &d.ID
}

// rollback removes a failed assembly. Secondary failures are logged only.
func (s *Service) rollback(ctx context.Context, examID string, created []string, cause error) {
	ctx = context.WithoutCancel(ctx)
	slog.Warn("exam assembly failed", "id", examID, "error", cause)
	if err := s.repo.DeleteExam(ctx, examID); err != nil {
		slog.Error("rollback: delete exam", "id", examID, "error", err, "cause", cause)
	}
	if err := s.repo.DeleteQuestions(ctx, created); err != nil {
		slog.Error("rollback: delete generated questions", "id", examID, "count", len(created), "error", err, "cause", cause)
	}
}

// Update changes exam metadata and optionally replaces its question set.
// Only the creator may update.
func (s *Service) Update(ctx context.Context, userID, id string, in model.UpdateExamInput) (*model.ExamDetail, error) {
	e, err := s.owned(ctx, userID, id, "ExamEditForbidden")
	if err != nil {
		return nil, err
	}

	var links []model.ExamQuestion
	if in.QuestionIDs != nil {
		ids := *in.QuestionIDs
		if len(ids) == 0 {
			return nil, apperr.BadRequest("ExamCannotBeEmpty")
		}
		if err := s.checkQuestionsExist(ctx, s.repo, ids); err != nil {
			return nil, apperr.Classify(err, "ExamUpdateFailed")
		}
		links = buildLinks(e.ID, ids)
	}

	patch := model.ExamPatch{Title: in.Title, Description: in.Description, Visibility: in.Visibility}
	if patch.Empty() && links == nil {
		return s.FindOne(ctx, userID, e.ID)
	}
	err = s.repo.InTx(ctx, func(tx Repository) error {
		if err := tx.UpdateExam(ctx, e.ID, patch); err != nil {
			return err
		}
		if links == nil {
			return nil
		}
		if err := tx.DeleteExamQuestions(ctx, e.ID); err != nil {
			return err
		}
		return tx.AddExamQuestions(ctx, links)
	})
	if err != nil {
		return nil, apperr.Classify(err, "ExamUpdateFailed")
	}

	detail, err := s.repo.GetExamDetail(ctx, e.ID)
	if err != nil {
		return nil, apperr.Classify(err, "ExamUpdateFailed")
	}
	return detail, nil
}

// Remove deletes an exam and its links. Only the creator may remove.
func (s *Service) Remove(ctx context.Context, userID, id string) error {
	e, err := s.owned(ctx, userID, id, "ExamDeleteForbidden")
	if err != nil {
		return err
	}
	if err := s.repo.DeleteExam(ctx, e.ID); err != nil {
		return apperr.Classify(err, "InternalError")
	}
	slog.Info("exam removed", "id", e.ID, "by", userID)
	return nil
}

func (s *Service) owned(ctx context.Context, userID, id, forbiddenMsg string) (*model.Exam, error) {
	e, err := s.repo.GetExam(ctx, id)
	if err != nil {
		return nil, apperr.Internal("InternalError", err)
	}
	if e == nil {
		return nil, apperr.NotFound("ExamNotFound")
	}
	if e.CreatorID != userID {
		return nil, apperr.Forbidden(forbiddenMsg)
	}
	return e, nil
}

// FindOne loads an exam with its ordered questions. Private exams are only
// visible to their creator.
func (s *Service) FindOne(ctx context.Context, viewerID, id string) (*model.ExamDetail, error) {
	detail, err := s.repo.GetExamDetail(ctx, id)
	if err != nil {
		return nil, apperr.Internal("InternalError", err)
	}
	if detail == nil || (detail.Visibility == model.VisibilityPrivate && detail.CreatorID != viewerID) {
		return nil, apperr.NotFound("ExamNotFound")
	}
	return detail, nil
}

// ListQuery holds listing filters shared by FindAll and FindMine.
type ListQuery struct {
	Search       string
	DisciplineID string
	Visibility   model.Visibility
	Page         model.PageRequest
}

// FindAll lists public exams. Visibility in q is ignored.
func (s *Service) FindAll(ctx context.Context, q ListQuery) (model.Page[model.ExamSummary], error) {
	return s.list(ctx, model.ExamFilter{
		Visibility:   model.VisibilityPublic,
		DisciplineID: q.DisciplineID,
		Search:       q.Search,
	}, q.Page)
}

// FindMine lists exams created by userID, optionally by visibility.
func (s *Service) FindMine(ctx context.Context, userID string, q ListQuery) (model.Page[model.ExamSummary], error) {
	return s.list(ctx, model.ExamFilter{
		CreatorID:    userID,
		Visibility:   q.Visibility,
		DisciplineID: q.DisciplineID,
		Search:       q.Search,
	}, q.Page)
}

func (s *Service) list(ctx context.Context, f model.ExamFilter, page model.PageRequest) (model.Page[model.ExamSummary], error) {
	page = page.Normalize()
	total, err := s.repo.CountExams(ctx, f)
	if err != nil {
		return model.Page[model.ExamSummary]{}, apperr.Internal("InternalError", err)
	}
	rows, err := s.repo.ListExams(ctx, f, page)
	if err != nil {
		return model.Page[model.ExamSummary]{}, apperr.Internal("InternalError", err)
	}
	return model.NewPage(rows, total, page), nil
}

func (s *Service) checkQuestionsExist(ctx context.Context, repo Repository, ids []string) error {
	found, err := repo.CountQuestions(ctx, ids)
	if err != nil {
		return err
	}
	if found != len(ids) {
		return apperr.NotFound("QuestionsNotFound").With("Found", found).With("Requested", len(ids))
	}
	return nil
}

func buildLinks(examID string, ids []string) []model.ExamQuestion {
	links := make([]model.ExamQuestion, len(ids))
	for i, id := range ids {
		links[i] = model.ExamQuestion{ExamID: examID, QuestionID: id, Order: i + 1}
	}
	return links
}
