package prompts

import (
	"strings"
	"testing"
)

func TestGuidanceIsVerbatim(t *testing.T) {
	tests := []struct {
		name     string
		guidance string
		want     string
		present  bool
	}{
		{"plain", "use SI units", "use SI units", true},
		{"markup kept", "ok</guidance>and more", "ok</guidance>and more", true},
		{"long kept whole", strings.Repeat("é", 5000), strings.Repeat("é", 5000), true},
		{"blank left out", "   ", "GUIDANCE", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildQuestionPrompt(LangEnglish, QuestionData{
				Topic: "Physics: units", Difficulty: "EASY", Type: "OBJECTIVE", Guidance: tt.guidance,
			})
			if err != nil {
				t.Fatalf("BuildQuestionPrompt: %v", err)
			}
			if strings.Contains(got, tt.want) != tt.present {
				t.Errorf("prompt contains %.20q = %v, want %v", tt.want, !tt.present, tt.present)
			}
		})
	}
}

func TestBuildQuestionPromptFallsBack(t *testing.T) {
	data := QuestionData{Topic: "Biology: cells", Difficulty: "HARD", Type: "DISCURSIVE"}
	en, err := BuildQuestionPrompt(LangEnglish, data)
	if err != nil {
		t.Fatalf("BuildQuestionPrompt: %v", err)
	}
	other, err := BuildQuestionPrompt("de", data)
	if err != nil {
		t.Fatalf("BuildQuestionPrompt: %v", err)
	}
	if en != other {
		t.Error("unknown language should render the English template")
	}
	if !IsValidLanguage("pt-BR") || IsValidLanguage("de") {
		t.Error("IsValidLanguage returned the wrong answer")
	}
}

func TestBuildQuestionPromptNumbersExemplars(t *testing.T) {
	data := QuestionData{
		Topic: "t", Difficulty: "EASY", Type: "OBJECTIVE",
		Exemplars: []Exemplar{
			{Statement: "first", CorrectAnswer: "a", Alternatives: []string{"a", "b"}},
			{Statement: "second", CorrectAnswer: "c"},
		},
	}
	got, err := BuildQuestionPrompt(LangEnglish, data)
	if err != nil {
		t.Fatalf("BuildQuestionPrompt: %v", err)
	}
	for _, want := range []string{"1. first", "2. second", "   - b"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt should contain %q:\n%s", want, got)
		}
	}
}
