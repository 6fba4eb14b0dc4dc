package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pavelanni/questionbank/internal/model"
)

const questionSelect = `SELECT q.id, q.statement, q.correct_answer, q.difficulty, q.type, q.alternatives,
	q.discipline_id, q.creator_id, q.created_at, q.updated_at,
	COALESCE(d.name, ''), COALESCE(u.name, '')
	FROM questions q
	LEFT JOIN disciplines d ON d.id = q.discipline_id
	LEFT JOIN users u ON u.id = q.creator_id`

// QuestionOrder names a sortable question column.
type QuestionOrder string

const (
	OrderCreatedAt  QuestionOrder = "createdAt"
	OrderStatement  QuestionOrder = "statement"
	OrderDifficulty QuestionOrder = "difficulty"
	OrderType       QuestionOrder = "type"
)

var questionOrderColumns = map[QuestionOrder]string{
	OrderCreatedAt:  "q.created_at",
	OrderStatement:  "q.statement",
	OrderDifficulty: "q.difficulty",
	OrderType:       "q.type",
}

func scanQuestion(row interface{ Scan(...any) error }) (*model.Question, error) {
	var q model.Question
	var disciplineID sql.NullString
	err := row.Scan(&q.ID, &q.Statement, &q.CorrectAnswer, &q.Difficulty, &q.Type, &q.Alternatives,
		&disciplineID, &q.CreatorID, &q.CreatedAt, &q.UpdatedAt, &q.DisciplineName, &q.CreatorName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	q.DisciplineID = ptr(disciplineID)
	return &q, nil
}

func questionWhere(f model.QuestionFilter) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	if f.IDs != nil {
		if len(f.IDs) == 0 {
			clauses = append(clauses, "0=1")
		} else {
			clauses = append(clauses, "q.id IN ("+placeholders(len(f.IDs))+")")
			args = append(args, stringArgs(f.IDs)...)
		}
	}
	if len(f.ExcludeIDs) > 0 {
		clauses = append(clauses, "q.id NOT IN ("+placeholders(len(f.ExcludeIDs))+")")
		args = append(args, stringArgs(f.ExcludeIDs)...)
	}
	if f.DisciplineID != "" {
		clauses = append(clauses, "q.discipline_id = ?")
		args = append(args, f.DisciplineID)
	}
	if f.Difficulty != "" {
		clauses = append(clauses, "q.difficulty = ?")
		args = append(args, f.Difficulty)
	}
	if f.Type != "" {
		clauses = append(clauses, "q.type = ?")
		args = append(args, f.Type)
	}
	if f.CreatorID != "" {
		clauses = append(clauses, "q.creator_id = ?")
		args = append(args, f.CreatorID)
	}
	if f.Search != "" {
		clauses = append(clauses, `fold(q.statement) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(fold(f.Search)))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// CreateQuestion stores a question and returns it with its new ID.
func (s *Store) CreateQuestion(ctx context.Context, q model.Question) (model.Question, error) {
	q.ID = uuid.NewString()
	q.CreatedAt = now()
	q.UpdatedAt = q.CreatedAt
	if q.Alternatives == nil {
		q.Alternatives = model.Alternatives{}
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO questions (id, statement, correct_answer, difficulty, type, alternatives, discipline_id, creator_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Statement, q.CorrectAnswer, q.Difficulty, q.Type, q.Alternatives,
		nullable(q.DisciplineID), q.CreatorID, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return model.Question{}, fmt.Errorf("insert question: %w", classify(err))
	}
	return q, nil
}

// GetQuestion returns a question by ID, or nil if missing.
func (s *Store) GetQuestion(ctx context.Context, id string) (*model.Question, error) {
	return scanQuestion(s.q.QueryRowContext(ctx, questionSelect+` WHERE q.id = ?`, id))
}

// CountQuestions returns how many of the given IDs exist.
func (s *Store) CountQuestions(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...,
	).Scan(&count)
	return count, err
}

// FindQuestions returns every question matching the filter, oldest first.
func (s *Store) FindQuestions(ctx context.Context, f model.QuestionFilter) ([]model.Question, error) {
	where, args := questionWhere(f)
	return s.queryQuestions(ctx, questionSelect+where+` ORDER BY q.created_at, q.id`, args...)
}

// ListQuestionsPage returns one page of matching questions and the total match count.
func (s *Store) ListQuestionsPage(ctx context.Context, f model.QuestionFilter, page model.PageRequest, order QuestionOrder, desc bool) ([]model.Question, int, error) {
	where, args := questionWhere(f)

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions q`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count questions: %w", err)
	}

	column, ok := questionOrderColumns[order]
	if !ok {
		column = questionOrderColumns[OrderCreatedAt]
	}
	direction := "ASC"
	if desc {
		direction = "DESC"
	}
	query := questionSelect + where + ` ORDER BY ` + column + ` ` + direction + `, q.id LIMIT ? OFFSET ?`
	questions, err := s.queryQuestions(ctx, query, append(args, page.PerPage, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

func (s *Store) queryQuestions(ctx context.Context, query string, args ...any) ([]model.Question, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// UpdateQuestion applies the non-nil fields of patch.
func (s *Store) UpdateQuestion(ctx context.Context, id string, p model.QuestionPatch) error {
	sets := []string{"updated_at = ?"}
	args := []any{now()}
	if p.Statement != nil {
		sets = append(sets, "statement = ?")
		args = append(args, *p.Statement)
	}
	if p.CorrectAnswer != nil {
		sets = append(sets, "correct_answer = ?")
		args = append(args, *p.CorrectAnswer)
	}
	if p.Difficulty != nil {
		sets = append(sets, "difficulty = ?")
		args = append(args, *p.Difficulty)
	}
	if p.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, *p.Type)
	}
	if p.Alternatives != nil {
		sets = append(sets, "alternatives = ?")
		args = append(args, *p.Alternatives)
	}
	if p.DisciplineID != nil {
		sets = append(sets, "discipline_id = ?")
		args = append(args, nullable(p.DisciplineID))
	}
	args = append(args, id)
	_, err := s.q.ExecContext(ctx, `UPDATE questions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update question: %w", classify(err))
	}
	return nil
}

// DeleteQuestion removes a question. It fails with ErrReferenced while an
// exam still links it.
func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", classify(err))
	}
	return nil
}

// DeleteQuestions removes the given questions.
func (s *Store) DeleteQuestions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM questions WHERE id IN (`+placeholders(len(ids))+`)`, stringArgs(ids)...)
	if err != nil {
		return fmt.Errorf("delete questions: %w", classify(err))
	}
	return nil
}
