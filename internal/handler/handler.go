// Package handler exposes the question bank as a JSON API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/questionbank/internal/auth"
	"github.com/pavelanni/questionbank/internal/bank"
	"github.com/pavelanni/questionbank/internal/exam"
	"github.com/pavelanni/questionbank/internal/export"
	"github.com/pavelanni/questionbank/internal/model"
	"github.com/pavelanni/questionbank/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	bank     *bank.Service
	exams    *exam.Service
	exporter *export.Exporter
	tokens   *auth.Issuer
	validate *validator.Validate
}

// New creates a new Handler.
func New(s *store.Store, exams *exam.Service, exp *export.Exporter, tokens *auth.Issuer) *Handler {
	return &Handler{
		store:    s,
		bank:     bank.New(s),
		exams:    exams,
		exporter: exp,
		tokens:   tokens,
		validate: newValidator(),
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, notFoundRoute)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", h.handleSignUp)
		r.Post("/auth/signin", h.handleSignIn)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			professor := requireRole(model.UserRoleProfessor)

			r.Get("/users/me", h.handleGetMe)
			r.Patch("/users/me", h.handleUpdateMe)
			r.Delete("/users/me", h.handleDeleteMe)

			r.Route("/disciplines", func(r chi.Router) {
				r.Get("/", h.handleListDisciplines)
				r.Get("/{id}", h.handleGetDiscipline)
				r.With(professor).Post("/", h.handleCreateDiscipline)
				r.With(professor).Patch("/{id}", h.handleUpdateDiscipline)
				r.With(professor).Delete("/{id}", h.handleDeleteDiscipline)
			})

			r.Route("/questions", func(r chi.Router) {
				r.Get("/", h.handleListQuestions)
				r.Get("/me", h.handleListMyQuestions)
				r.Get("/{id}", h.handleGetQuestion)
				r.With(professor).Post("/", h.handleCreateQuestion)
				r.With(professor).Patch("/{id}", h.handleUpdateQuestion)
				r.With(professor).Delete("/{id}", h.handleDeleteQuestion)
			})

			r.With(professor).Post("/ai/generate", h.handleGenerateQuestion)

			r.Route("/exams", func(r chi.Router) {
				r.Get("/", h.handleListExams)
				r.With(professor).Get("/me", h.handleListMyExams)
				r.With(professor).Post("/", h.handleCreateExam)
				r.With(professor).Post("/preview-ai", h.handlePreviewExam)
				r.Get("/{id}", h.handleGetExam)
				r.With(professor).Patch("/{id}", h.handleUpdateExam)
				r.With(professor).Delete("/{id}", h.handleDeleteExam)
				r.Get("/{id}/download", h.handleDownloadExam)
			})
		})
	})
}

// BasePathMiddleware stores the mount prefix of the router in the request context.
func (h *Handler) BasePathMiddleware(basePath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(model.ContextWithBasePath(r.Context(), basePath)))
		})
	}
}

// path prepends the request's base path to an absolute path.
func path(r *http.Request, p string) string {
	return model.BasePathFromContext(r.Context()) + p
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	status, code := "ok", http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status})
}
