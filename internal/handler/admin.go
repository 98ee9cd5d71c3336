package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/pavelanni/examdash/internal/i18n"
	"github.com/pavelanni/examdash/internal/model"
	"github.com/pavelanni/examdash/internal/records"
	"github.com/pavelanni/examdash/internal/table"
	"github.com/pavelanni/examdash/internal/validate"
	"github.com/pavelanni/examdash/internal/views"
)

// resource exposes one record collection as list/create/update/delete routes.
type resource[T records.Keyed] struct {
	coll     *records.Collection[T]
	config   func() table.Config[T]
	pageSize int
	setID    func(v *T, id string)
	onCreate func(v *T)        // optional defaults for new records
	onUpdate func(old T, v *T) // optional carry-over from the stored record
}

func (res resource[T]) routes(r chi.Router) {
	r.Get("/", res.list)
	r.Post("/", res.create)
	r.Put("/{id}", res.update)
	r.Delete("/{id}", res.remove)
}

func (res resource[T]) list(w http.ResponseWriter, r *http.Request) {
	writeList(w, r, res.coll.List(), res.config(), res.pageSize)
}

func (res resource[T]) create(w http.ResponseWriter, r *http.Request) {
	var v T
	if err := decodeJSON(w, r, &v); err != nil {
		fail(w, r, err)
		return
	}
	res.setID(&v, "")
	if res.onCreate != nil {
		res.onCreate(&v)
	}
	if err := validate.Struct(v); err != nil {
		fail(w, r, err)
		return
	}
	v = res.coll.Add(v)
	slog.Info("record created", "id", v.Key())
	writeJSON(w, http.StatusCreated, v)
}

func (res resource[T]) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	old, ok := res.coll.Get(id)
	if !ok {
		fail(w, r, records.ErrNotFound)
		return
	}
	var v T
	if err := decodeJSON(w, r, &v); err != nil {
		fail(w, r, err)
		return
	}
	res.setID(&v, id)
	if res.onUpdate != nil {
		res.onUpdate(old, &v)
	}
	if err := validate.Struct(v); err != nil {
		fail(w, r, err)
		return
	}
	if !res.coll.Update(v) {
		fail(w, r, records.ErrNotFound)
		return
	}
	slog.Info("record updated", "id", id)
	writeJSON(w, http.StatusOK, v)
}

func (res resource[T]) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !res.coll.Delete(id) {
		fail(w, r, records.ErrNotFound)
		return
	}
	slog.Info("record deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adminRoutes(r chi.Router) {
	rs := h.records
	size := h.config.PageSize

	r.Get("/", h.handleAdminDashboard)

	r.Route("/exam-types", resource[model.ExamType]{
		coll: rs.ExamTypes, config: views.ExamTypes, pageSize: size,
		setID: func(v *model.ExamType, id string) { v.ID = id },
		onCreate: func(v *model.ExamType) {
			v.Name = strings.TrimSpace(v.Name)
			v.Description = strings.TrimSpace(v.Description)
		},
	}.routes)

	r.Route("/periods", resource[model.ExamPeriod]{
		coll: rs.Periods, config: views.Periods, pageSize: size,
		setID: func(v *model.ExamPeriod, id string) { v.ID = id },
		onCreate: func(v *model.ExamPeriod) { v.Name = strings.TrimSpace(v.Name) },
	}.routes)

	r.Route("/subjects", resource[model.Subject]{
		coll: rs.Subjects, config: views.Subjects, pageSize: size,
		setID: func(v *model.Subject, id string) { v.ID = id },
		onCreate: func(v *model.Subject) {
			v.Name = strings.TrimSpace(v.Name)
			v.Code = strings.TrimSpace(v.Code)
		},
	}.routes)

	r.Route("/exams", func(r chi.Router) {
		resource[model.Exam]{
			coll:     rs.Exams,
			config:   func() table.Config[model.Exam] { return views.Exams(rs) },
			pageSize: size,
			setID:    func(v *model.Exam, id string) { v.ID = id },
			onCreate: func(v *model.Exam) {
				v.Title = strings.TrimSpace(v.Title)
				v.Instructions = strings.TrimSpace(v.Instructions)
				v.Status = model.ExamScheduled
			},
			onUpdate: func(old model.Exam, v *model.Exam) {
				if v.Status == "" {
					v.Status = old.Status
				}
			},
		}.routes(r)
		r.Post("/{id}/complete", h.handleCompleteExam)
	})

	r.Route("/results", func(r chi.Router) {
		r.Get("/", h.handleListResults)
		r.Get("/{examID}", h.handleExamResults)
		r.Post("/{examID}/generate", h.handleGenerateResults)
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.handleListNotifications)
		r.Post("/", h.handleCreateNotification)
		r.Delete("/{id}", h.handleDeleteNotification)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.handleListUsers)
		r.Get("/{id}", h.handleGetUser)
		r.Post("/", h.handleCreateAdmin)
		r.Post("/verify", h.handleVerifySuperAdmin)
	})
}

func (h *Handler) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"welcome": appI18n.Td(r.Context(), "Welcome", map[string]any{"Name": user.FirstName}),
		"stats":   h.records.Stats(h.auth.AllUsers()),
	})
}

func (h *Handler) handleCompleteExam(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.records.CompleteExam(id) {
		fail(w, r, records.ErrNotFound)
		return
	}
	exam, _ := h.records.Exams.Get(id)
	writeJSON(w, http.StatusOK, exam)
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	writeList(w, r, h.records.Results.List(), views.Results(), h.config.PageSize)
}

func (h *Handler) handleExamResults(w http.ResponseWriter, r *http.Request) {
	exp, err := h.records.Export(chi.URLParam(r, "examID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

func (h *Handler) handleGenerateResults(w http.ResponseWriter, r *http.Request) {
	examID := chi.URLParam(r, "examID")
	if _, ok := h.records.Exams.Get(examID); !ok {
		fail(w, r, records.ErrNotFound)
		return
	}
	results, err := h.records.GenerateResults(r.Context(), examID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": appI18n.Tp(r.Context(), "ResultsGenerated", len(results)),
		"results": results,
	})
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	writeList(w, r, h.records.Notifications.List(), views.Notifications(), h.config.PageSize)
}

type notificationForm struct {
	Type    model.NotificationType `json:"type"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Target  *model.Target          `json:"target"`
}

func (h *Handler) handleCreateNotification(w http.ResponseWriter, r *http.Request) {
	var form notificationForm
	if err := decodeJSON(w, r, &form); err != nil {
		fail(w, r, err)
		return
	}
	n := model.Notification{
		Type:      form.Type,
		Title:     strings.TrimSpace(form.Title),
		Message:   strings.TrimSpace(form.Message),
		Target:    model.TargetAll(),
		CreatedAt: time.Now().UTC(),
	}
	if n.Type == "" {
		n.Type = model.NotificationGeneral
	}
	if form.Target != nil {
		n.Target = *form.Target
	}
	if err := validate.Struct(n); err != nil {
		fail(w, r, err)
		return
	}
	n = h.records.Notifications.Add(n)
	slog.Info("notification published", "id", n.ID, "target", n.Target.String())
	writeJSON(w, http.StatusCreated, n)
}

func (h *Handler) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	if !h.records.Notifications.Delete(chi.URLParam(r, "id")) {
		fail(w, r, records.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	writeList(w, r, h.auth.AllUsers(), views.Users(), h.config.PageSize)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, ok := h.auth.UserByID(chi.URLParam(r, "id"))
	if !ok {
		fail(w, r, records.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type superAdminForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleVerifySuperAdmin(w http.ResponseWriter, r *http.Request) {
	var form superAdminForm
	if err := decodeJSON(w, r, &form); err != nil {
		fail(w, r, err)
		return
	}
	if !h.auth.VerifySuperAdmin(form.Username, form.Password) {
		slog.Warn("super admin verification failed", "username", form.Username)
		writeError(w, r, http.StatusUnauthorized, "superadmin_required", "SuperAdminRequired")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

type createAdminForm struct {
	SuperAdminUsername string `json:"superadmin_username"`
	SuperAdminPassword string `json:"superadmin_password"`
	Username           string `json:"username"`
	Email              string `json:"email"`
	Password           string `json:"password"`
}

func (h *Handler) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var form createAdminForm
	if err := decodeJSON(w, r, &form); err != nil {
		fail(w, r, err)
		return
	}
	if !h.auth.VerifySuperAdmin(form.SuperAdminUsername, form.SuperAdminPassword) {
		slog.Warn("admin creation without super admin credentials", "username", form.Username)
		writeError(w, r, http.StatusUnauthorized, "superadmin_required", "SuperAdminRequired")
		return
	}
	u, err := h.auth.CreateAdmin(r.Context(), form.Username, form.Email, form.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": appI18n.Td(r.Context(), "AdminCreated", map[string]any{"Username": u.Username}),
		"user":    u,
	})
}
