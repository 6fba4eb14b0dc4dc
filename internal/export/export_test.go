package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pavelanni/questionbank/internal/apperr"
	"github.com/pavelanni/questionbank/internal/i18n"
	"github.com/pavelanni/questionbank/internal/model"
)

func testCtx(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := i18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	return i18n.WithLocalizer(context.Background(), i18n.NewLocalizer(lang))
}

func sampleExam() *model.ExamDetail {
	return &model.ExamDetail{
		Exam: model.Exam{ID: "e1", Title: "Mechanics <final>", Description: "Answer all"},
		Questions: []model.ExamItem{
			{Order: 1, Question: model.Question{
				Statement: "What is F?", Type: model.TypeObjective, CorrectAnswer: "ma",
				Alternatives: model.Alternatives{{Text: "ma"}, {Text: "mv"}, {Text: "m/a"}},
			}},
			{Order: 2, Question: model.Question{Statement: "Explain inertia", Type: model.TypeDiscursive}},
			{Order: 3, Question: model.Question{Statement: "Draw a lever", Type: model.TypeDrawing}},
			{Order: 4, Question: model.Question{Statement: "Mass is conserved", Type: model.TypeTrueFalse}},
		},
	}
}

func TestBuild(t *testing.T) {
	doc := Build(testCtx(t, "en"), sampleExam())

	if doc.Discipline != "General" || doc.Teacher != "N/A" {
		t.Errorf("expected fallbacks, got discipline %q teacher %q", doc.Discipline, doc.Teacher)
	}
	if len(doc.Items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(doc.Items))
	}
	if doc.Summary != "4 questions" {
		t.Errorf("summary = %q", doc.Summary)
	}
	tests := []struct {
		name    string
		item    Item
		alts    []string
		lines   int
		drawing bool
	}{
		{"objective", doc.Items[0], []string{"a) ma", "b) mv", "c) m/a"}, 0, false},
		{"discursive", doc.Items[1], nil, answerLines, false},
		{"drawing", doc.Items[2], nil, 0, true},
		{"true false", doc.Items[3], []string{"a) True", "b) False"}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if strings.Join(tt.item.Alternatives, "|") != strings.Join(tt.alts, "|") {
				t.Errorf("alternatives = %v, want %v", tt.item.Alternatives, tt.alts)
			}
			if tt.item.AnswerLines != tt.lines || tt.item.DrawingBox != tt.drawing {
				t.Errorf("lines=%d box=%v, want %d %v", tt.item.AnswerLines, tt.item.DrawingBox, tt.lines, tt.drawing)
			}
		})
	}
	if doc.Items[1].Heading != "Question 2" {
		t.Errorf("heading = %q", doc.Items[1].Heading)
	}
}

func TestBuildLocalized(t *testing.T) {
	doc := Build(testCtx(t, "pt-BR"), sampleExam())
	if doc.Discipline != "Geral" || doc.Items[0].Heading != "Questão 1" || doc.Summary != "4 questões" {
		t.Errorf("expected Portuguese labels, got %q / %q / %q", doc.Discipline, doc.Items[0].Heading, doc.Summary)
	}
}

func TestLetter(t *testing.T) {
	for i, want := range map[int]string{0: "a", 2: "c", 25: "z", 26: "aa", 27: "ab"} {
		if got := letter(i); got != want {
			t.Errorf("letter(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"", FormatPDF, true},
		{"PDF", FormatPDF, true},
		{"docx", FormatDOCX, true},
		{"html", FormatHTML, true},
		{"json", FormatJSON, true},
		{"odt", "", false},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
		if !tt.ok && !apperr.Is(err, apperr.KindBadRequest) {
			t.Errorf("ParseFormat(%q): expected bad request, got %v", tt.in, err)
		}
	}
	if got := FormatDOCX.Filename("abc"); got != "exam-abc.docx" {
		t.Errorf("Filename = %q", got)
	}
}

func TestHTMLEscapesAndOmitsAnswers(t *testing.T) {
	out, err := New(nil).Export(testCtx(t, "en"), FormatHTML, sampleExam())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	html := string(out)
	if !strings.HasPrefix(html, "<!doctype html>") {
		t.Errorf("unexpected start %.40q", html)
	}
	if !strings.Contains(html, "<title>Mechanics &lt;final&gt;</title>") {
		t.Error("title not escaped")
	}
	if !strings.Contains(html, `<p class="summary">4 questions</p>`) {
		t.Error("missing question count")
	}
	if strings.Count(html, `<section class="question">`) != 4 || !strings.Contains(html, "<li>a) ma</li>") {
		t.Error("questions not rendered")
	}
	if strings.Count(html, `class="line"`) != answerLines {
		t.Errorf("expected %d answer lines", answerLines)
	}
	if !strings.Contains(html, `class="box"`) {
		t.Error("missing drawing box")
	}
}

func TestDOCX(t *testing.T) {
	out, err := New(nil).Export(testCtx(t, "en"), FormatDOCX, sampleExam())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	var body string
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("open document.xml: %v", err)
			}
			data, _ := io.ReadAll(rc)
			rc.Close()
			body = string(data)
		}
	}
	for _, n := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml", "word/styles.xml"} {
		if !names[n] {
			t.Errorf("missing part %s", n)
		}
	}
	for _, want := range []string{"Mechanics &lt;final&gt;", "a) ma", "Question 3", "Discipline: General", "4 questions"} {
		if !strings.Contains(body, want) {
			t.Errorf("document.xml missing %q", want)
		}
	}
	if strings.Count(body, answerRule) != answerLines {
		t.Errorf("expected %d answer lines", answerLines)
	}
	if strings.Count(body, "<w:tbl>") != 1 {
		t.Error("expected one drawing box table")
	}
}

func TestJSONOmitsCorrectAnswer(t *testing.T) {
	out, err := New(nil).Export(testCtx(t, "en"), FormatJSON, sampleExam())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Items) != 4 || strings.Contains(string(out), "correctAnswer") {
		t.Errorf("unexpected JSON export: %s", out)
	}
}

type fakePDF struct {
	html []byte
	err  error
}

func (f *fakePDF) Render(_ context.Context, html []byte) ([]byte, error) {
	f.html = html
	return []byte("%PDF-1.4"), f.err
}

func TestPDFUsesConverter(t *testing.T) {
	ctx := testCtx(t, "en")
	conv := &fakePDF{}
	out, err := New(conv).Export(ctx, FormatPDF, sampleExam())
	if err != nil || string(out) != "%PDF-1.4" {
		t.Fatalf("Export = %q, %v", out, err)
	}
	if !bytes.Contains(conv.html, []byte("<h1>")) {
		t.Error("converter did not receive the HTML page")
	}

	_, err = New(&fakePDF{err: errors.New("chrome missing")}).Export(ctx, FormatPDF, sampleExam())
	if e := apperr.As(err); e.Kind != apperr.KindInternal || e.MsgID != "ExportFailed" {
		t.Errorf("expected internal ExportFailed, got %v", err)
	}
	_, err = New(nil).Export(ctx, FormatPDF, sampleExam())
	if !apperr.Is(err, apperr.KindInternal) {
		t.Errorf("expected internal error without converter, got %v", err)
	}
}
