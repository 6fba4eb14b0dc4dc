package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/*.tmpl
var embedded embed.FS

// Language selects the prompt translation.
type Language string

const (
	LangEnglish    Language = "en"
	LangPortuguese Language = "pt-BR"
)

var languages = []Language{LangEnglish, LangPortuguese}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[Language]*template.Template
)

// Exemplar is a reference question shown to the model.
type Exemplar struct {
	Statement     string
	CorrectAnswer string
	Alternatives  []string
}

// QuestionData holds template data for question generation prompts.
type QuestionData struct {
	Topic      string
	Difficulty string
	Type       string
	Guidance   string
	Exemplars  []Exemplar
}

// IsValidLanguage checks if a prompt language is available.
func IsValidLanguage(lang string) bool {
	for _, l := range languages {
		if string(l) == lang {
			return true
		}
	}
	return false
}

// Load parses the embedded prompt templates once.
func Load() error {
	return load(embedded)
}

func load(fsys fs.FS) error {
	loadOnce.Do(func() {
		templates = make(map[Language]*template.Template)
		funcs := template.FuncMap{"add": func(a, b int) int { return a + b }}
		for _, lang := range languages {
			file := "templates/question_" + string(lang) + ".tmpl"
			content, err := fs.ReadFile(fsys, file)
			if err != nil {
				loadErr = errors.New("failed to read prompt file " + file + ": " + err.Error())
				return
			}
			tmpl, err := template.New("question").Funcs(funcs).Parse(string(content))
			if err != nil {
				loadErr = errors.New("failed to parse prompt template " + file + ": " + err.Error())
				return
			}
			templates[lang] = tmpl
		}
	})
	return loadErr
}

// BuildQuestionPrompt renders the generation prompt. Unknown languages fall
// back to English.
func BuildQuestionPrompt(lang Language, data QuestionData) (string, error) {
	if err := Load(); err != nil {
		return "", fmt.Errorf("templates load failed: %w", err)
	}
	tmpl, ok := templates[lang]
	if !ok {
		tmpl = templates[LangEnglish]
	}

	// Guidance goes into the prompt as given; blank guidance is left out.
	if strings.TrimSpace(data.Guidance) == "" {
		data.Guidance = ""
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

