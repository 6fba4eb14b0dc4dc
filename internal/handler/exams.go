package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/questionbank/internal/apperr"
	"github.com/pavelanni/questionbank/internal/exam"
	"github.com/pavelanni/questionbank/internal/export"
	"github.com/pavelanni/questionbank/internal/model"
)

func (p listParams) examQuery() exam.ListQuery {
	return exam.ListQuery{
		Search:       p.Search,
		DisciplineID: p.DisciplineID,
		Visibility:   p.Visibility,
		Page:         p.pageRequest(),
	}
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	p, err := h.listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.exams.FindAll(r.Context(), p.examQuery())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleListMyExams(w http.ResponseWriter, r *http.Request) {
	p, err := h.listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.exams.FindMine(r.Context(), model.UserFromContext(r.Context()).ID, p.examQuery())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	detail, err := h.exams.FindOne(r.Context(), model.UserFromContext(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	var in model.CreateExamInput
	if err := h.decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := h.exams.Create(r.Context(), model.UserFromContext(r.Context()).ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", path(r, "/api/v1/exams/"+detail.ID))
	writeJSON(w, http.StatusCreated, detail)
}

func (h *Handler) handlePreviewExam(w http.ResponseWriter, r *http.Request) {
	var in model.ExamGenerationConfig
	if err := h.decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	preview, err := h.exams.Preview(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (h *Handler) handleGenerateQuestion(w http.ResponseWriter, r *http.Request) {
	var in model.GenerationRequest
	if err := h.decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.exams.GenerateQuestion(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleUpdateExam(w http.ResponseWriter, r *http.Request) {
	var in model.UpdateExamInput
	if err := h.decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := h.exams.Update(r.Context(), model.UserFromContext(r.Context()).ID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	if err := h.exams.Remove(r.Context(), model.UserFromContext(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDownloadExam(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := h.exams.FindOne(r.Context(), model.UserFromContext(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := h.exporter.Export(r.Context(), format, detail)
	if err != nil {
		writeError(w, r, apperr.Classify(err, "ExportFailed"))
		return
	}
	slog.Info("exam exported", "exam_id", detail.ID, "format", format, "bytes", len(data))
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(detail.ID)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("write export", "exam_id", detail.ID, "error", err)
	}
}
