package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/questionbank/internal/apperr"
	"github.com/pavelanni/questionbank/internal/i18n"
	"github.com/pavelanni/questionbank/internal/model"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var notFoundRoute = apperr.NotFound("NotFoundRoute")

// fieldError is one validation failure. Message is filled from msgID
// when the error is written.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`

	msgID string
	data  map[string]any
}

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	StatusCode int          `json:"statusCode"`
	Timestamp  string       `json:"timestamp"`
	Path       string       `json:"path"`
	Message    string       `json:"message"`
	Details    []fieldError `json:"details,omitempty"`
}

// validationError carries validator failures to writeError.
type validationError struct {
	details []fieldError
}

func (e *validationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.details))
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func statusOf(k apperr.Kind) int {
	switch k {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindBadRequest:
		return http.StatusBadRequest
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a localized error body. Wrapped causes of
// internal errors are logged, never returned to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
	}
	var ve *validationError
	if errors.As(err, &ve) {
		body.StatusCode = http.StatusBadRequest
		body.Message = i18n.T(r.Context(), "ValidationFailed")
		body.Details = make([]fieldError, len(ve.details))
		for i, d := range ve.details {
			d.Message = i18n.Td(r.Context(), d.msgID, d.data)
			body.Details[i] = d
		}
		writeJSON(w, body.StatusCode, body)
		return
	}

	e := apperr.As(err)
	body.StatusCode = statusOf(e.Kind)
	body.Message = i18n.Td(r.Context(), e.MsgID, e.Data)
	if e.Kind == apperr.KindInternal {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "msg_id", e.MsgID, "error", e.Err)
	} else {
		slog.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "kind", e.Kind, "msg_id", e.MsgID)
	}
	writeJSON(w, body.StatusCode, body)
}

// decode reads a JSON body into dst and validates it.
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperr.BadRequest("InvalidJSON")
	}
	return h.check(dst)
}

// check validates v, returning a validationError listing every failed field.
func (h *Handler) check(v any) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal("InternalError", err)
	}
	details := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		msgID, data := describe(fe)
		details = append(details, fieldError{Field: fieldPath(fe.Namespace()), msgID: msgID, data: data})
	}
	return &validationError{details: details}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// describe returns the message id and template data explaining fe.
func describe(fe validator.FieldError) (string, map[string]any) {
	switch fe.Tag() {
	case "required":
		return "FieldRequired", nil
	case "min":
		return "FieldMin", map[string]any{"Param": fe.Param()}
	case "max":
		return "FieldMax", map[string]any{"Param": fe.Param()}
	case "oneof":
		return "FieldOneOf", map[string]any{"Param": strings.ReplaceAll(fe.Param(), " ", ", ")}
	case "uuid":
		return "FieldUUID", nil
	case "email":
		return "FieldEmail", nil
	}
	return "FieldInvalid", map[string]any{"Tag": fe.Tag()}
}

// listParams are the query parameters shared by listing endpoints.
type listParams struct {
	Page         int              `json:"page" validate:"min=0"`
	PerPage      int              `json:"perPage" validate:"min=0,max=100"`
	OrderBy      string           `json:"orderBy" validate:"omitempty,oneof=createdAt statement difficulty type"`
	Order        string           `json:"order" validate:"omitempty,oneof=asc desc"`
	Search       string           `json:"search" validate:"max=200"`
	DisciplineID string           `json:"disciplineId" validate:"omitempty,uuid"`
	Difficulty   model.Difficulty `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	Type         string           `json:"type" validate:"omitempty,oneof=OBJECTIVE DISCURSIVE TRUE_FALSE DRAWING"`
	Visibility   model.Visibility `json:"visibility" validate:"omitempty,oneof=PUBLIC PRIVATE"`
}

func (h *Handler) listQuery(r *http.Request) (listParams, error) {
	q := r.URL.Query()
	p := listParams{
		OrderBy:      q.Get("orderBy"),
		Order:        strings.ToLower(q.Get("order")),
		Search:       strings.TrimSpace(q.Get("search")),
		DisciplineID: q.Get("disciplineId"),
		Difficulty:   model.Difficulty(q.Get("difficulty")),
		Type:         q.Get("type"),
		Visibility:   model.Visibility(q.Get("visibility")),
	}
	var details []fieldError
	for name, dst := range map[string]*int{"page": &p.Page, "perPage": &p.PerPage} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			details = append(details, fieldError{Field: name, msgID: "FieldInteger"})
			continue
		}
		*dst = n
	}
	if len(details) > 0 {
		return p, &validationError{details: details}
	}
	return p, h.check(p)
}

func (p listParams) pageRequest() model.PageRequest {
	return model.PageRequest{Page: p.Page, PerPage: p.PerPage}
}
