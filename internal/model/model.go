package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleProfessor authors questions and assembles exams.
	UserRoleProfessor UserRole = "PROFESSOR"
	// UserRoleStudent can browse public exams and download them.
	UserRoleStudent UserRole = "STUDENT"
)

// User represents a system user.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// QuestionType selects how a question is answered.
type QuestionType string

const (
	TypeObjective  QuestionType = "OBJECTIVE"
	TypeDiscursive QuestionType = "DISCURSIVE"
	TypeTrueFalse  QuestionType = "TRUE_FALSE"
	TypeDrawing    QuestionType = "DRAWING"
)

// HasAlternatives reports whether questions of this type carry alternatives.
func (t QuestionType) HasAlternatives() bool {
	return t == TypeObjective || t == TypeTrueFalse
}

// Visibility controls who can list an exam.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// Discipline is a subject area grouping questions and exams.
type Discipline struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Question is a row of the question bank.
type Question struct {
	ID            string       `json:"id"`
	Statement     string       `json:"statement"`
	CorrectAnswer string       `json:"correctAnswer"`
	Difficulty    Difficulty   `json:"difficulty"`
	Type          QuestionType `json:"type"`
	Alternatives  Alternatives `json:"alternatives"`
	DisciplineID  *string      `json:"disciplineId,omitempty"`
	CreatorID     string       `json:"creatorId"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`

	DisciplineName string `json:"disciplineName,omitempty"`
	CreatorName    string `json:"creatorName,omitempty"`
}

// NewQuestion is an authored question payload, used both by the question
// endpoints and by exam assembly.
type NewQuestion struct {
	Statement     string       `json:"statement" validate:"required,min=5"`
	CorrectAnswer string       `json:"correctAnswer" validate:"required"`
	Difficulty    Difficulty   `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	Type          QuestionType `json:"type" validate:"omitempty,oneof=OBJECTIVE DISCURSIVE TRUE_FALSE DRAWING"`
	Alternatives  Alternatives `json:"alternatives"`
	DisciplineID  *string      `json:"disciplineId" validate:"omitempty,uuid"`
}

// WithDefaults fills the difficulty and type defaults.
func (n NewQuestion) WithDefaults() NewQuestion {
	if n.Difficulty == "" {
		n.Difficulty = DifficultyMedium
	}
	if n.Type == "" {
		n.Type = TypeObjective
	}
	if n.Alternatives == nil {
		n.Alternatives = Alternatives{}
	}
	return n
}

// QuestionPatch holds optional question updates.
type QuestionPatch struct {
	Statement     *string       `json:"statement" validate:"omitempty,min=5"`
	CorrectAnswer *string       `json:"correctAnswer"`
	Difficulty    *Difficulty   `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	Type          *QuestionType `json:"type" validate:"omitempty,oneof=OBJECTIVE DISCURSIVE TRUE_FALSE DRAWING"`
	Alternatives  *Alternatives `json:"alternatives"`
	DisciplineID  *string       `json:"disciplineId" validate:"omitempty,uuid"`
}

// QuestionFilter selects questions. Empty fields mean no filtering.
type QuestionFilter struct {
	IDs          []string
	DisciplineID string
	Difficulty   Difficulty
	Type         QuestionType
	CreatorID    string
	Search       string
	ExcludeIDs   []string
}

// Exam is an ordered collection of questions.
type Exam struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Visibility   Visibility `json:"visibility"`
	CreatorID    string     `json:"creatorId"`
	DisciplineID *string    `json:"disciplineId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ExamQuestion links a question to an exam at a 1-based position.
type ExamQuestion struct {
	ExamID     string `json:"examId"`
	QuestionID string `json:"questionId"`
	Order      int    `json:"order"`
}

// ExamSummary is a listing row.
type ExamSummary struct {
	Exam
	CreatorName    string `json:"creatorName,omitempty"`
	DisciplineName string `json:"disciplineName,omitempty"`
	QuestionCount  int    `json:"questionCount"`
}

// ExamItem is one ordered question of a loaded exam.
type ExamItem struct {
	Order    int      `json:"order"`
	Question Question `json:"question"`
}

// ExamDetail is a fully loaded exam.
type ExamDetail struct {
	Exam
	CreatorName    string     `json:"creatorName"`
	DisciplineName string     `json:"disciplineName,omitempty"`
	Questions      []ExamItem `json:"questions"`
}

// ExamPatch holds optional metadata updates.
type ExamPatch struct {
	Title       *string
	Description *string
	Visibility  *Visibility
}

// Empty reports whether the patch changes nothing.
func (p ExamPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Visibility == nil
}

// ExamFilter selects exams for listing. Empty fields mean no filtering.
type ExamFilter struct {
	CreatorID    string
	Visibility   Visibility
	DisciplineID string
	Search       string
}

// PageRequest is a 1-based page selection.
type PageRequest struct {
	Page    int
	PerPage int
}

// Normalize clamps the request to valid bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = 10
	}
	if p.PerPage > 100 {
		p.PerPage = 100
	}
	return p
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// PageMeta describes a page of results.
type PageMeta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	PerPage  int `json:"perPage"`
	LastPage int `json:"lastPage"`
}

// Page is a page of results.
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// NewPage builds a page from rows and the total match count.
func NewPage[T any](data []T, total int, req PageRequest) Page[T] {
	if data == nil {
		data = []T{}
	}
	last := 0
	if req.PerPage > 0 {
		last = (total + req.PerPage - 1) / req.PerPage
	}
	return Page[T]{
		Data: data,
		Meta: PageMeta{Total: total, Page: req.Page, PerPage: req.PerPage, LastPage: last},
	}
}
