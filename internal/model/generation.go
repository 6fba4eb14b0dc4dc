package model

// GenerationRequest asks the generative model for one question.
type GenerationRequest struct {
	Topic           string       `json:"topic" validate:"required,min=3"`
	Difficulty      Difficulty   `json:"difficulty" validate:"required,oneof=EASY MEDIUM HARD"`
	Type            QuestionType `json:"type" validate:"required,oneof=OBJECTIVE DISCURSIVE TRUE_FALSE DRAWING"`
	BaseQuestionIDs []string     `json:"baseQuestionIds" validate:"omitempty,dive,uuid"`
	GeneralContext  string       `json:"generalContext"`
}

// GenerationResult is the parsed model output.
type GenerationResult struct {
	Statement     string       `json:"statement"`
	CorrectAnswer string       `json:"correctAnswer"`
	Alternatives  Alternatives `json:"alternatives"`
	Explanation   string       `json:"explanation"`
}

// GenerationItem asks for Count questions on one topic. A zero Count means one.
type GenerationItem struct {
	Topic           string       `json:"topic" validate:"required,min=3"`
	Count           int          `json:"count" validate:"omitempty,min=1,max=10"`
	Difficulty      Difficulty   `json:"difficulty" validate:"required,oneof=EASY MEDIUM HARD"`
	Type            QuestionType `json:"type" validate:"omitempty,oneof=OBJECTIVE DISCURSIVE TRUE_FALSE DRAWING"`
	BaseQuestionIDs []string     `json:"baseQuestionIds" validate:"omitempty,dive,uuid"`
}

// Repeats returns how many questions the item asks for.
func (i GenerationItem) Repeats() int {
	if i.Count <= 0 {
		return 1
	}
	return i.Count
}

// ExamGenerationConfig describes how to auto-fill an exam, either by AI
// generation (UseAI) or by random sampling from the bank.
type ExamGenerationConfig struct {
	UseAI           bool             `json:"useAI"`
	Items           []GenerationItem `json:"items" validate:"omitempty,dive"`
	OnlyMyQuestions bool             `json:"onlyMyQuestions"`
	DisciplineID    string           `json:"disciplineId" validate:"required,uuid"`
	Difficulty      Difficulty       `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	Count           int              `json:"count" validate:"min=0,max=50"`
	GeneralPrompt   string           `json:"generalPrompt"`
}

// CreateExamInput is the composite exam creation request.
type CreateExamInput struct {
	Title          string                `json:"title" validate:"required,min=3"`
	Description    string                `json:"description"`
	Visibility     Visibility            `json:"visibility" validate:"omitempty,oneof=PUBLIC PRIVATE"`
	QuestionIDs    []string              `json:"questionIds" validate:"omitempty,dive,uuid"`
	NewQuestions   []NewQuestion         `json:"newQuestions" validate:"omitempty,dive"`
	GenerateConfig *ExamGenerationConfig `json:"generateConfig"`
}

// UpdateExamInput holds exam updates. A non-nil QuestionIDs replaces the
// question set in the given order.
type UpdateExamInput struct {
	Title       *string     `json:"title" validate:"omitempty,min=3"`
	Description *string     `json:"description"`
	Visibility  *Visibility `json:"visibility" validate:"omitempty,oneof=PUBLIC PRIVATE"`
	QuestionIDs *[]string   `json:"questions" validate:"omitempty,dive,uuid"`
}

// PreviewQuestion is an unsaved generated question offered for review.
type PreviewQuestion struct {
	Topic         string       `json:"topic"`
	Statement     string       `json:"statement"`
	CorrectAnswer string       `json:"correctAnswer"`
	Alternatives  Alternatives `json:"alternatives"`
	Explanation   string       `json:"explanation"`
	Difficulty    Difficulty   `json:"difficulty"`
	Type          QuestionType `json:"type"`
	DisciplineID  string       `json:"disciplineId"`
}
