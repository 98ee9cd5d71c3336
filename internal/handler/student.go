package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/pavelanni/examdash/internal/i18n"
	"github.com/pavelanni/examdash/internal/model"
	"github.com/pavelanni/examdash/internal/records"
)

type studentExam struct {
	model.Exam
	Subject string `json:"subject"`
}

type studentDashboard struct {
	Welcome       string               `json:"welcome"`
	Exams         []studentExam        `json:"exams"`
	Results       []model.Result       `json:"results"`
	Notifications []model.Notification `json:"notifications"`
	Unread        int                  `json:"unread"`
	UnreadText    string               `json:"unread_text"`
}

func (h *Handler) handleStudentDashboard(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	exams := h.records.Exams.List()
	resp := studentDashboard{
		Welcome:       appI18n.Td(r.Context(), "Welcome", map[string]any{"Name": user.FirstName}),
		Exams:         make([]studentExam, 0, len(exams)),
		Results:       h.records.ResultsForStudent(user.ID),
		Notifications: h.records.NotificationsFor(user.ID),
	}
	for _, e := range exams {
		resp.Exams = append(resp.Exams, studentExam{Exam: e, Subject: h.records.SubjectName(e.SubjectID)})
	}
	if resp.Results == nil {
		resp.Results = []model.Result{}
	}
	if resp.Notifications == nil {
		resp.Notifications = []model.Notification{}
	}
	for _, n := range resp.Notifications {
		if !n.Read {
			resp.Unread++
		}
	}
	resp.UnreadText = appI18n.Tp(r.Context(), "UnreadNotifications", resp.Unread)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	n, ok := h.records.Notifications.Get(id)
	if !ok || !n.Target.Includes(user.ID) {
		fail(w, r, records.ErrNotFound)
		return
	}
	h.records.MarkNotificationRead(id)
	w.WriteHeader(http.StatusNoContent)
}
