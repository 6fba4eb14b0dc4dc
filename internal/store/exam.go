package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pavelanni/questionbank/internal/model"
)

const examColumns = `e.id, e.title, e.description, e.visibility, e.creator_id, e.discipline_id, e.created_at, e.updated_at`

func scanExam(row interface{ Scan(...any) error }, extra ...any) (*model.Exam, error) {
	var e model.Exam
	var disciplineID sql.NullString
	dest := append([]any{&e.ID, &e.Title, &e.Description, &e.Visibility, &e.CreatorID,
		&disciplineID, &e.CreatedAt, &e.UpdatedAt}, extra...)
	err := row.Scan(dest...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.DisciplineID = ptr(disciplineID)
	return &e, nil
}

// CreateExam inserts an exam without questions.
func (s *Store) CreateExam(ctx context.Context, e model.Exam) (model.Exam, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = now()
	e.UpdatedAt = e.CreatedAt
	if e.Visibility == "" {
		e.Visibility = model.VisibilityPrivate
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO exams (id, title, description, visibility, creator_id, discipline_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Description, e.Visibility, e.CreatorID, nullable(e.DisciplineID), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return model.Exam{}, fmt.Errorf("insert exam: %w", classify(err))
	}
	return e, nil
}

// GetExam returns an exam by ID, or nil if missing.
func (s *Store) GetExam(ctx context.Context, id string) (*model.Exam, error) {
	return scanExam(s.q.QueryRowContext(ctx, `SELECT `+examColumns+` FROM exams e WHERE e.id = ?`, id))
}

// GetExamDetail loads an exam with its creator, discipline and ordered questions.
func (s *Store) GetExamDetail(ctx context.Context, id string) (*model.ExamDetail, error) {
	var creatorName, disciplineName string
	e, err := scanExam(s.q.QueryRowContext(ctx,
		`SELECT `+examColumns+`, COALESCE(u.name, ''), COALESCE(d.name, '')
		 FROM exams e
		 LEFT JOIN users u ON u.id = e.creator_id
		 LEFT JOIN disciplines d ON d.id = e.discipline_id
		 WHERE e.id = ?`, id), &creatorName, &disciplineName)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if e == nil {
		return nil, nil
	}

	rows, err := s.q.QueryContext(ctx, `SELECT eq.position, `+strings.TrimPrefix(questionSelect, "SELECT ")+`
		JOIN exam_questions eq ON eq.question_id = q.id
		WHERE eq.exam_id = ?
		ORDER BY eq.position`, id)
	if err != nil {
		return nil, fmt.Errorf("list exam questions: %w", err)
	}
	defer rows.Close()

	detail := &model.ExamDetail{
		Exam:           *e,
		CreatorName:    creatorName,
		DisciplineName: disciplineName,
		Questions:      []model.ExamItem{},
	}
	for rows.Next() {
		var item model.ExamItem
		var q model.Question
		var qDisciplineID sql.NullString
		if err := rows.Scan(&item.Order, &q.ID, &q.Statement, &q.CorrectAnswer, &q.Difficulty, &q.Type,
			&q.Alternatives, &qDisciplineID, &q.CreatorID, &q.CreatedAt, &q.UpdatedAt,
			&q.DisciplineName, &q.CreatorName); err != nil {
			return nil, fmt.Errorf("scan exam question: %w", err)
		}
		q.DisciplineID = ptr(qDisciplineID)
		item.Question = q
		detail.Questions = append(detail.Questions, item)
	}
	return detail, rows.Err()
}

// UpdateExam applies the non-nil metadata fields of patch.
func (s *Store) UpdateExam(ctx context.Context, id string, p model.ExamPatch) error {
	sets := []string{"updated_at = ?"}
	args := []any{now()}
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Visibility != nil {
		sets = append(sets, "visibility = ?")
		args = append(args, *p.Visibility)
	}
	args = append(args, id)
	_, err := s.q.ExecContext(ctx, `UPDATE exams SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update exam: %w", classify(err))
	}
	return nil
}

// DeleteExam removes an exam together with its question links.
func (s *Store) DeleteExam(ctx context.Context, id string) error {
	return s.InTx(ctx, func(tx *Store) error {
		if err := tx.DeleteExamQuestions(ctx, id); err != nil {
			return err
		}
		if _, err := tx.q.ExecContext(ctx, `DELETE FROM exams WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete exam: %w", classify(err))
		}
		return nil
	})
}

func examWhere(f model.ExamFilter) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	if f.CreatorID != "" {
		clauses = append(clauses, "e.creator_id = ?")
		args = append(args, f.CreatorID)
	}
	if f.Visibility != "" {
		clauses = append(clauses, "e.visibility = ?")
		args = append(args, f.Visibility)
	}
	if f.DisciplineID != "" {
		clauses = append(clauses, "e.discipline_id = ?")
		args = append(args, f.DisciplineID)
	}
	if f.Search != "" {
		pattern := likePattern(fold(f.Search))
		clauses = append(clauses, `(fold(e.title) LIKE ? ESCAPE '\' OR fold(e.description) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// CountExams returns the number of exams matching the filter.
func (s *Store) CountExams(ctx context.Context, f model.ExamFilter) (int, error) {
	where, args := examWhere(f)
	var count int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM exams e`+where, args...).Scan(&count)
	return count, err
}

// ListExams returns one page of exam summaries, newest first.
func (s *Store) ListExams(ctx context.Context, f model.ExamFilter, page model.PageRequest) ([]model.ExamSummary, error) {
	where, args := examWhere(f)
	query := `SELECT ` + examColumns + `, COALESCE(u.name, ''), COALESCE(d.name, ''),
		(SELECT COUNT(*) FROM exam_questions eq WHERE eq.exam_id = e.id)
		FROM exams e
		LEFT JOIN users u ON u.id = e.creator_id
		LEFT JOIN disciplines d ON d.id = e.discipline_id` + where + `
		ORDER BY e.created_at DESC, e.id LIMIT ? OFFSET ?`
	rows, err := s.q.QueryContext(ctx, query, append(args, page.PerPage, page.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()

	var out []model.ExamSummary
	for rows.Next() {
		var sum model.ExamSummary
		e, err := scanExam(rows, &sum.CreatorName, &sum.DisciplineName, &sum.QuestionCount)
		if err != nil {
			return nil, err
		}
		sum.Exam = *e
		out = append(out, sum)
	}
	return out, rows.Err()
}

// AddExamQuestions inserts question links.
func (s *Store) AddExamQuestions(ctx context.Context, links []model.ExamQuestion) error {
	return s.InTx(ctx, func(tx *Store) error {
		for _, l := range links {
			if _, err := tx.q.ExecContext(ctx,
				`INSERT INTO exam_questions (exam_id, question_id, position) VALUES (?, ?, ?)`,
				l.ExamID, l.QuestionID, l.Order,
			); err != nil {
				return fmt.Errorf("insert exam question: %w", classify(err))
			}
		}
		return nil
	})
}

// DeleteExamQuestions removes every question link of an exam.
func (s *Store) DeleteExamQuestions(ctx context.Context, examID string) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM exam_questions WHERE exam_id = ?`, examID); err != nil {
		return fmt.Errorf("delete exam questions: %w", err)
	}
	return nil
}

// ListExamQuestions returns the links of an exam ordered by position.
func (s *Store) ListExamQuestions(ctx context.Context, examID string) ([]model.ExamQuestion, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT exam_id, question_id, position FROM exam_questions WHERE exam_id = ? ORDER BY position`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ExamQuestion
	for rows.Next() {
		var l model.ExamQuestion
		if err := rows.Scan(&l.ExamID, &l.QuestionID, &l.Order); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
