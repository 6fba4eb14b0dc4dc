package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/pavelanni/questionbank/internal/apperr"
	"github.com/pavelanni/questionbank/internal/bank"
	"github.com/pavelanni/questionbank/internal/model"
)

// requireAuth is middleware that checks for a valid bearer token whose
// subject is an active user.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeError(w, r, apperr.Unauthorized("Unauthorized"))
			return
		}

		claims, err := h.tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			writeError(w, r, err)
			return
		}

		user, err := h.store.GetUserByID(r.Context(), claims.Subject)
		if err != nil {
			slog.Error("failed to load token subject", "user_id", claims.Subject, "error", err)
			writeError(w, r, apperr.Internal("InternalError", err))
			return
		}
		if user == nil || !user.Active {
			writeError(w, r, apperr.Unauthorized("InvalidToken"))
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole returns middleware that checks the user has one of the allowed roles.
func requireRole(allowed ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				writeError(w, r, apperr.Unauthorized("Unauthorized"))
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, r, apperr.Forbidden("RoleForbidden"))
		})
	}
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var in bank.SignUp
	if err := h.decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.bank.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var in signInRequest
	if err := h.decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.bank.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, err := h.tokens.Issue(*u)
	if err != nil {
		writeError(w, r, apperr.Internal("InternalError", err))
		return
	}
	slog.Info("user signed in", "user_id", u.ID)
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": token})
}
