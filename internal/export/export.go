// Package export renders exams as printable documents.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pavelanni/questionbank/internal/apperr"
	"github.com/pavelanni/questionbank/internal/i18n"
	"github.com/pavelanni/questionbank/internal/model"
)

// Format is a download format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// ParseFormat resolves a format name. An empty name selects PDF.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPDF, nil
	case FormatPDF, FormatDOCX, FormatHTML, FormatJSON:
		return f, nil
	}
	return "", apperr.BadRequest("UnsupportedFormat").With("Format", s)
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/json"
	}
}

// Filename returns the attachment name for an exam.
func (f Format) Filename(examID string) string {
	return fmt.Sprintf("exam-%s.%s", examID, f)
}

// answerLines is the number of ruled lines printed under a discursive question.
const answerLines = 5

// Item is one printable question.
type Item struct {
	Number       int                `json:"number"`
	Heading      string             `json:"heading"`
	Statement    string             `json:"statement"`
	Type         model.QuestionType `json:"type"`
	Alternatives []string           `json:"alternatives,omitempty"`
	AnswerLines  int                `json:"answerLines,omitempty"`
	DrawingBox   bool               `json:"drawingBox,omitempty"`
}

// Labels are the localized captions printed on a document.
type Labels struct {
	Discipline string `json:"discipline"`
	Teacher    string `json:"teacher"`
	Student    string `json:"student"`
	Date       string `json:"date"`
}

// Document is the student-facing view of an exam. Correct answers are
// never included.
type Document struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Discipline  string `json:"discipline"`
	Teacher     string `json:"teacher"`
	Summary     string `json:"summary"`
	Labels      Labels `json:"labels"`
	Items       []Item `json:"questions"`
}

// Build turns a loaded exam into a document localized for ctx.
func Build(ctx context.Context, e *model.ExamDetail) Document {
	doc := Document{
		Title:       e.Title,
		Description: e.Description,
		Discipline:  e.DisciplineName,
		Teacher:     e.CreatorName,
		Summary:     i18n.Tp(ctx, "QuestionsCount", len(e.Questions)),
		Labels: Labels{
			Discipline: i18n.T(ctx, "ExportDiscipline"),
			Teacher:    i18n.T(ctx, "ExportTeacher"),
			Student:    i18n.T(ctx, "ExportStudent"),
			Date:       i18n.T(ctx, "ExportDate"),
		},
		Items: make([]Item, 0, len(e.Questions)),
	}
	if doc.Discipline == "" {
		doc.Discipline = i18n.T(ctx, "ExportGeneral")
	}
	if doc.Teacher == "" {
		doc.Teacher = i18n.T(ctx, "ExportNotAvailable")
	}
	for i, eq := range e.Questions {
		q := eq.Question
		item := Item{
			Number:    i + 1,
			Heading:   i18n.Td(ctx, "ExportQuestionN", map[string]any{"N": i + 1}),
			Statement: q.Statement,
			Type:      q.Type,
		}
		switch q.Type {
		case model.TypeObjective, model.TypeTrueFalse:
			texts := q.Alternatives.Texts()
			if q.Type == model.TypeTrueFalse && len(texts) == 0 {
				texts = []string{i18n.T(ctx, "ExportTrue"), i18n.T(ctx, "ExportFalse")}
			}
			for j, t := range texts {
				item.Alternatives = append(item.Alternatives, fmt.Sprintf("%s) %s", letter(j), t))
			}
		case model.TypeDiscursive:
			item.AnswerLines = answerLines
		case model.TypeDrawing:
			item.DrawingBox = true
		}
		doc.Items = append(doc.Items, item)
	}
	return doc
}

// letter returns a, b, ..., z, aa, ab, ...
func letter(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	return letter(i/26-1) + letter(i%26)
}

// PDFConverter prints an HTML page to PDF.
type PDFConverter interface {
	Render(ctx context.Context, html []byte) ([]byte, error)
}

// Exporter renders exams in every supported format.
type Exporter struct {
	pdf PDFConverter
}

// New creates an exporter. A nil converter makes PDF export fail.
func New(pdf PDFConverter) *Exporter {
	return &Exporter{pdf: pdf}
}

// Export renders e as f.
func (x *Exporter) Export(ctx context.Context, f Format, e *model.ExamDetail) ([]byte, error) {
	doc := Build(ctx, e)
	switch f {
	case FormatHTML:
		return renderHTML(ctx, doc)
	case FormatDOCX:
		return DOCX(doc)
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return nil, apperr.Internal("ExportFailed", err)
		}
		return buf.Bytes(), nil
	case FormatPDF:
		if x.pdf == nil {
			return nil, apperr.Internal("ExportFailed", fmt.Errorf("no PDF converter configured"))
		}
		html, err := renderHTML(ctx, doc)
		if err != nil {
			return nil, err
		}
		out, err := x.pdf.Render(ctx, html)
		if err != nil {
			return nil, apperr.Internal("ExportFailed", err)
		}
		return out, nil
	}
	return nil, apperr.BadRequest("UnsupportedFormat").With("Format", string(f))
}

func renderHTML(ctx context.Context, doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Page(doc).Render(ctx, &buf); err != nil {
		return nil, apperr.Internal("ExportFailed", err)
	}
	return buf.Bytes(), nil
}
