package model

// QuestionImport is used for loading questions from JSON files.
type QuestionImport struct {
	Discipline    string       `json:"discipline"`
	Statement     string       `json:"statement"`
	CorrectAnswer string       `json:"correctAnswer"`
	Difficulty    Difficulty   `json:"difficulty"`
	Type          QuestionType `json:"type"`
	Alternatives  Alternatives `json:"alternatives"`
}
