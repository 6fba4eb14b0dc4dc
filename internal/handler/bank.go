package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/questionbank/internal/bank"
	"github.com/pavelanni/questionbank/internal/model"
	"github.com/pavelanni/questionbank/internal/store"
)

type updateMeRequest struct {
	Name string `json:"name" validate:"required,min=3,max=100"`
}

func (h *Handler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.bank.Profile(r.Context(), model.UserFromContext(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var in updateMeRequest
	if err := h.decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.bank.Rename(r.Context(), model.UserFromContext(r.Context()).ID, in.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.bank.DeleteAccount(r.Context(), model.UserFromContext(r.Context()).ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createDisciplineRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"max=500"`
}

func (h *Handler) handleListDisciplines(w http.ResponseWriter, r *http.Request) {
	list, err := h.bank.ListDisciplines(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetDiscipline(w http.ResponseWriter, r *http.Request) {
	d, err := h.bank.GetDiscipline(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleCreateDiscipline(w http.ResponseWriter, r *http.Request) {
	var in createDisciplineRequest
	if err := h.decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.bank.CreateDiscipline(r.Context(), in.Name, in.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", path(r, "/api/v1/disciplines/"+d.ID))
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) handleUpdateDiscipline(w http.ResponseWriter, r *http.Request) {
	var in bank.DisciplineInput
	if err := h.decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.bank.UpdateDiscipline(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleDeleteDiscipline(w http.ResponseWriter, r *http.Request) {
	if err := h.bank.DeleteDiscipline(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (p listParams) questionQuery() bank.QuestionQuery {
	return bank.QuestionQuery{
		DisciplineID: p.DisciplineID,
		Difficulty:   p.Difficulty,
		Type:         model.QuestionType(p.Type),
		Search:       p.Search,
		OrderBy:      store.QuestionOrder(p.OrderBy),
		Desc:         p.Order == "desc",
		Page:         p.pageRequest(),
	}
}

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	p, err := h.listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.bank.ListQuestions(r.Context(), p.questionQuery())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleListMyQuestions(w http.ResponseWriter, r *http.Request) {
	p, err := h.listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.bank.ListMyQuestions(r.Context(), model.UserFromContext(r.Context()).ID, p.questionQuery())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.bank.GetQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var in model.NewQuestion
	if err := h.decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.bank.CreateQuestion(r.Context(), model.UserFromContext(r.Context()).ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", path(r, "/api/v1/questions/"+q.ID))
	writeJSON(w, http.StatusCreated, q)
}

func (h *Handler) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var in model.QuestionPatch
	if err := h.decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.bank.UpdateQuestion(r.Context(), model.UserFromContext(r.Context()).ID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.bank.DeleteQuestion(r.Context(), model.UserFromContext(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
