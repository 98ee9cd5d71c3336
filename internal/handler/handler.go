package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/examdash/internal/auth"
	appI18n "github.com/pavelanni/examdash/internal/i18n"
	"github.com/pavelanni/examdash/internal/model"
	"github.com/pavelanni/examdash/internal/records"
	"github.com/pavelanni/examdash/internal/table"
	"github.com/pavelanni/examdash/internal/validate"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	auth    *auth.Service
	records *records.Store
	config  model.DashboardConfig
}

// New creates a new Handler.
func New(a *auth.Service, rs *records.Store, cfg model.DashboardConfig) *Handler {
	if cfg.PageSize <= 0 {
		cfg.PageSize = table.DefaultPageSize
	}
	return &Handler{auth: a, records: rs, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleHome)
	r.Get("/session", h.handleSession)
	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)

	r.Route("/student", func(r chi.Router) {
		r.Use(h.requireAuth, requireRole(model.UserRoleStudent))
		r.Get("/", h.handleStudentDashboard)
		r.Post("/notifications/{id}/read", h.handleMarkRead)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireAuth, requireRole(model.UserRoleAdmin))
		r.Post("/password", h.handleChangePassword)

		r.Group(func(r chi.Router) {
			r.Use(requirePasswordChanged)
			h.adminRoutes(r)
		})
	})
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	sess := h.auth.Current()
	resp := map[string]any{
		"title":         appI18n.T(r.Context(), "AppTitle"),
		"authenticated": sess.IsAuthenticated,
	}
	if sess.User != nil {
		resp["home"] = sess.User.Role.Home()
		resp["welcome"] = appI18n.Td(r.Context(), "Welcome", map[string]any{"Name": sess.User.FirstName})
	}
	writeJSON(w, http.StatusOK, resp)
}

type errorBody struct {
	Code    string                `json:"code"`
	Message string                `json:"message"`
	Fields  []validate.FieldError `json:"fields,omitempty"`
}

// errBadRequest marks bodies and parameters that could not be parsed.
var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msgID string) {
	writeJSON(w, status, map[string]errorBody{
		"error": {Code: code, Message: appI18n.T(r.Context(), msgID)},
	})
}

// fail maps a domain error to a status code and a localized message.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]errorBody{
			"error": {Code: "validation_failed", Message: appI18n.T(r.Context(), "ValidationFailed"), Fields: verr.Fields},
		})
	case errors.Is(err, errBadRequest):
		writeError(w, r, http.StatusBadRequest, "bad_request", "BadRequest")
	case errors.Is(err, auth.ErrUnknownAccount):
		writeError(w, r, http.StatusUnauthorized, "invalid_credentials", "InvalidUsernameOrRole")
	case errors.Is(err, auth.ErrWrongPassword):
		writeError(w, r, http.StatusUnauthorized, "invalid_credentials", "InvalidPassword")
	case errors.Is(err, auth.ErrUsernameTaken):
		writeError(w, r, http.StatusConflict, "username_taken", "UsernameTaken")
	case errors.Is(err, records.ErrExamNotCompleted):
		writeError(w, r, http.StatusConflict, "exam_not_completed", "ExamNotCompleted")
	case errors.Is(err, records.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", "NotFound")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, r, http.StatusGatewayTimeout, "timeout", "Timeout")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "InternalError")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		slog.Debug("malformed request body", "path", r.URL.Path, "error", err)
		return errBadRequest
	}
	return nil
}

type columnInfo struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Sortable bool   `json:"sortable"`
}

type listResponse[T any] struct {
	table.Page[T]
	Dir     string       `json:"dir,omitempty"`
	Summary string       `json:"summary"`
	Columns []columnInfo `json:"columns"`
}

// listPage runs records through a table view driven by the q, sort, dir,
// page and page_size query parameters.
func listPage[T any](r *http.Request, items []T, cfg table.Config[T], defaultSize int) (listResponse[T], error) {
	q := r.URL.Query()
	cfg.PageSize = defaultSize
	if s := q.Get("page_size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return listResponse[T]{}, errBadRequest
		}
		cfg.PageSize = n
	}
	cfg.Language = appI18n.Language(r.Context())

	v := table.New(cfg)
	v.SetQuery(q.Get("q"))
	if key := q.Get("sort"); key != "" {
		v.SetSort(key, table.ParseDirection(q.Get("dir")))
	}
	if s := q.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return listResponse[T]{}, errBadRequest
		}
		v.SetPage(n)
	}

	page := v.Apply(items)
	if page.Rows == nil {
		page.Rows = []T{}
	}
	resp := listResponse[T]{Page: page, Summary: page.Summary()}
	if page.SortKey != "" {
		resp.Dir = page.Direction.String()
	}
	for _, c := range v.Columns() {
		resp.Columns = append(resp.Columns, columnInfo{Key: c.Key, Label: c.Label, Sortable: !c.DisableSort})
	}
	return resp, nil
}

func writeList[T any](w http.ResponseWriter, r *http.Request, items []T, cfg table.Config[T], defaultSize int) {
	resp, err := listPage(r, items, cfg, defaultSize)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
