package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gomutex/godocx"

	"github.com/pavelanni/questionbank/internal/apperr"
)

// answerRule is one printed answer line of a discursive question.
var answerRule = strings.Repeat("_", 75)

// boxRows is the height, in empty lines, of a drawing box.
const boxRows = 8

// DOCX renders doc as a Word document.
func DOCX(doc Document) ([]byte, error) {
	d, err := godocx.NewDocument()
	if err != nil {
		return nil, apperr.Internal("ExportFailed", fmt.Errorf("new docx: %w", err))
	}

	if _, err := d.AddHeading(doc.Title, 0); err != nil {
		return nil, apperr.Internal("ExportFailed", fmt.Errorf("add title: %w", err))
	}
	d.AddParagraph(fmt.Sprintf("%s: %s  |  %s: %s", doc.Labels.Discipline, doc.Discipline, doc.Labels.Teacher, doc.Teacher))
	d.AddParagraph(fmt.Sprintf("%s: ________________________  %s: ____/____/______", doc.Labels.Student, doc.Labels.Date))
	d.AddParagraph(doc.Summary)
	if doc.Description != "" {
		d.AddParagraph(doc.Description)
	}

	for _, it := range doc.Items {
		if _, err := d.AddHeading(it.Heading, 2); err != nil {
			return nil, apperr.Internal("ExportFailed", fmt.Errorf("add heading %d: %w", it.Number, err))
		}
		d.AddParagraph(it.Statement)
		for _, alt := range it.Alternatives {
			d.AddParagraph("    " + alt)
		}
		for range it.AnswerLines {
			d.AddParagraph(answerRule)
		}
		if it.DrawingBox {
			box := d.AddTable()
			box.Style("TableGrid")
			cell := box.AddRow().AddCell()
			for range boxRows {
				cell.AddParagraph("")
			}
		}
	}

	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, apperr.Internal("ExportFailed", fmt.Errorf("write docx: %w", err))
	}
	return buf.Bytes(), nil
}
