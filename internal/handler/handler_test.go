package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/examdash/internal/auth"
	appI18n "github.com/pavelanni/examdash/internal/i18n"
	"github.com/pavelanni/examdash/internal/model"
	"github.com/pavelanni/examdash/internal/records"
	"github.com/pavelanni/examdash/internal/store"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fixedScores int

func (f fixedScores) Score(int) int { return int(f) }

type client struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
	lang   string
}

func newTestClient(t *testing.T) *client {
	t.Helper()
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	a, err := auth.New(st, auth.Options{HashCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("auth.New: %v", err)
	}
	rs, err := records.New(st, records.Options{Scores: fixedScores(60)})
	if err != nil {
		t.Fatalf("records.New: %v", err)
	}

	r := chi.NewRouter()
	r.Use(appI18n.Middleware("en"))
	New(a, rs, model.DashboardConfig{PageSize: 10}).Routes(r)
	return &client{t: t, router: r}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.lang != "" {
		req.Header.Set("Accept-Language", c.lang)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sessionCookieName {
			if ck.MaxAge < 0 {
				c.cookie = nil
			} else {
				c.cookie = ck
			}
		}
	}
	return rec
}

func (c *client) login(username, password, role string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.do(http.MethodPost, "/login", map[string]string{
		"username": username, "password": password, "role": role,
	})
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Fields  []struct {
			Field string `json:"field"`
			Error string `json:"error"`
		} `json:"fields"`
	} `json:"error"`
}

func TestHomeAndSession(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodGet, "/", nil)
	expectStatus(t, rec, http.StatusOK)
	home := decode[map[string]any](t, rec)
	if home["title"] != "ExamManager" || home["authenticated"] != false {
		t.Errorf("unexpected home %v", home)
	}

	sess := decode[sessionResponse](t, c.do(http.MethodGet, "/session", nil))
	if sess.Authenticated || sess.State != "anonymous" || sess.Home != "/login" {
		t.Errorf("unexpected anonymous session %+v", sess)
	}

	expectStatus(t, c.login("jane", "Student@123", "student"), http.StatusOK)
	home = decode[map[string]any](t, c.do(http.MethodGet, "/", nil))
	if home["home"] != "/student" || home["welcome"] != "Welcome, Jane!" {
		t.Errorf("unexpected home %v", home)
	}
}

func TestStudentGating(t *testing.T) {
	c := newTestClient(t)

	expectStatus(t, c.do(http.MethodGet, "/student/", nil), http.StatusUnauthorized)

	rec := c.login("john", "Student@123", "student")
	expectStatus(t, rec, http.StatusOK)
	sess := decode[sessionResponse](t, rec)
	if sess.State != "authenticated" || sess.Home != "/student" || sess.User.ID != "student-1" {
		t.Fatalf("unexpected session %+v", sess)
	}
	if c.cookie == nil {
		t.Fatal("login should set the session cookie")
	}

	rec = c.do(http.MethodGet, "/student/", nil)
	expectStatus(t, rec, http.StatusOK)
	dash := decode[studentDashboard](t, rec)
	if len(dash.Results) != 1 || dash.Results[0].ObtainedMarks != 78 {
		t.Errorf("unexpected results %+v", dash.Results)
	}
	if len(dash.Exams) != 3 || dash.Exams[0].Subject != "Mathematics" {
		t.Errorf("unexpected exams %+v", dash.Exams)
	}
	if dash.Unread != 3 || dash.UnreadText != "You have 3 unread notifications." {
		t.Errorf("unexpected unread %d %q", dash.Unread, dash.UnreadText)
	}
	if dash.Notifications[0].ID != "n-2" {
		t.Errorf("expected newest notification first, got %s", dash.Notifications[0].ID)
	}

	expectStatus(t, c.do(http.MethodPost, "/student/notifications/n-2/read", nil), http.StatusNoContent)
	dash = decode[studentDashboard](t, c.do(http.MethodGet, "/student/", nil))
	if dash.Unread != 2 {
		t.Errorf("expected 2 unread after marking, got %d", dash.Unread)
	}
	expectStatus(t, c.do(http.MethodPost, "/student/notifications/nope/read", nil), http.StatusNotFound)

	// Students cannot reach the admin area.
	rec = c.do(http.MethodGet, "/admin/", nil)
	expectStatus(t, rec, http.StatusForbidden)
	if decode[errorResponse](t, rec).Error.Code != "forbidden" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	expectStatus(t, c.do(http.MethodPost, "/logout", nil), http.StatusOK)
	if c.cookie != nil {
		t.Error("logout should clear the cookie")
	}
	expectStatus(t, c.do(http.MethodGet, "/student/", nil), http.StatusUnauthorized)
	// Logging out twice is harmless.
	expectStatus(t, c.do(http.MethodPost, "/logout", nil), http.StatusOK)
}

func TestStaleCookieRejected(t *testing.T) {
	c := newTestClient(t)
	expectStatus(t, c.login("john", "Student@123", "student"), http.StatusOK)
	old := c.cookie

	// A new login replaces the single session.
	expectStatus(t, c.login("jane", "Student@123", "student"), http.StatusOK)
	c.cookie = old
	expectStatus(t, c.do(http.MethodGet, "/student/", nil), http.StatusUnauthorized)
}

func TestLoginErrors(t *testing.T) {
	c := newTestClient(t)

	tests := []struct {
		name    string
		body    any
		status  int
		code    string
		message string
	}{
		{"wrong password", map[string]string{"username": "john", "password": "x", "role": "student"},
			http.StatusUnauthorized, "invalid_credentials", "Invalid password."},
		{"wrong role", map[string]string{"username": "john", "password": "Student@123", "role": "admin"},
			http.StatusUnauthorized, "invalid_credentials", "Invalid username or role."},
		{"unknown role", map[string]string{"username": "john", "password": "Student@123", "role": "proctor"},
			http.StatusUnauthorized, "invalid_credentials", "Invalid username or role."},
		{"missing password", map[string]string{"username": "john", "role": "student"},
			http.StatusUnprocessableEntity, "validation_failed", "Please correct the highlighted fields."},
		{"malformed body", "{", http.StatusBadRequest, "bad_request", "The request could not be read."},
		{"unknown field", map[string]string{"username": "john", "password": "x", "role": "student", "extra": "1"},
			http.StatusBadRequest, "bad_request", "The request could not be read."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.do(http.MethodPost, "/login", tt.body)
			expectStatus(t, rec, tt.status)
			body := decode[errorResponse](t, rec)
			if body.Error.Code != tt.code || body.Error.Message != tt.message {
				t.Errorf("unexpected error %+v", body.Error)
			}
		})
	}
}

func TestLocalizedErrors(t *testing.T) {
	c := newTestClient(t)
	c.lang = "ru"
	rec := c.login("john", "bad", "student")
	expectStatus(t, rec, http.StatusUnauthorized)
	if msg := decode[errorResponse](t, rec).Error.Message; msg != "Неверный пароль." {
		t.Errorf("expected Russian message, got %q", msg)
	}
}

func TestRegister(t *testing.T) {
	c := newTestClient(t)
	form := map[string]string{
		"username":         "alice",
		"email":            "alice@student.com",
		"password":         "secret1",
		"confirm_password": "secret1",
		"first_name":       "Alice",
		"last_name":        "Liddell",
	}

	rec := c.do(http.MethodPost, "/register", form)
	expectStatus(t, rec, http.StatusCreated)
	sess := decode[sessionResponse](t, rec)
	if sess.User.Role != model.UserRoleStudent || sess.User.DisplayName != "Alice Liddell" {
		t.Errorf("unexpected user %+v", sess.User)
	}
	expectStatus(t, c.do(http.MethodGet, "/student/", nil), http.StatusOK)

	rec = c.do(http.MethodPost, "/register", form)
	expectStatus(t, rec, http.StatusConflict)
	if decode[errorResponse](t, rec).Error.Message != "Username already exists." {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	form["username"] = "bella"
	form["confirm_password"] = "other12"
	rec = c.do(http.MethodPost, "/register", form)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	body := decode[errorResponse](t, rec)
	if len(body.Error.Fields) != 1 || body.Error.Fields[0].Field != "confirm_password" {
		t.Errorf("unexpected fields %+v", body.Error.Fields)
	}
}

func TestAdminMustChangePassword(t *testing.T) {
	c := newTestClient(t)
	expectStatus(t, c.login("admin", "Admin@123", "admin"), http.StatusOK)

	expectStatus(t, c.do(http.MethodPost, "/admin/users/verify", map[string]string{
		"username": "superadmin", "password": "wrong",
	}), http.StatusUnauthorized)
	expectStatus(t, c.do(http.MethodPost, "/admin/users/verify", map[string]string{
		"username": "superadmin", "password": "Super@123",
	}), http.StatusOK)

	newAdmin := map[string]string{
		"superadmin_username": "superadmin",
		"superadmin_password": "nope",
		"username":            "bob2",
		"email":               "b@x.com",
		"password":            "Temp123",
	}
	expectStatus(t, c.do(http.MethodPost, "/admin/users", newAdmin), http.StatusUnauthorized)
	newAdmin["superadmin_password"] = "Super@123"
	expectStatus(t, c.do(http.MethodPost, "/admin/users", newAdmin), http.StatusCreated)
	expectStatus(t, c.do(http.MethodPost, "/admin/users", newAdmin), http.StatusConflict)

	// The creating admin is still logged in.
	sess := decode[sessionResponse](t, c.do(http.MethodGet, "/session", nil))
	if sess.User == nil || sess.User.Username != "admin" {
		t.Fatalf("session changed by admin creation: %+v", sess)
	}

	rec := c.do(http.MethodGet, "/admin/users/student-3", nil)
	expectStatus(t, rec, http.StatusOK)
	if u := decode[model.User](t, rec); u.Username != "bob" || u.DisplayName != "Bob Wilson" {
		t.Errorf("unexpected user %+v", u)
	}
	expectStatus(t, c.do(http.MethodGet, "/admin/users/nope", nil), http.StatusNotFound)

	users := decode[map[string]any](t, c.do(http.MethodGet, "/admin/users/?q=bob", nil))
	if users["total"] != float64(2) {
		t.Errorf("expected bob and bob2, got %v", users["total"])
	}

	c.do(http.MethodPost, "/logout", nil)
	rec = c.login("bob2", "Temp123", "admin")
	expectStatus(t, rec, http.StatusOK)
	if st := decode[sessionResponse](t, rec).State; st != "must_change_password" {
		t.Fatalf("expected must_change_password, got %s", st)
	}

	rec = c.do(http.MethodGet, "/admin/exams/", nil)
	expectStatus(t, rec, http.StatusForbidden)
	if decode[errorResponse](t, rec).Error.Code != "password_change_required" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	expectStatus(t, c.do(http.MethodPost, "/admin/password", map[string]string{
		"password": "NewPass1", "confirm_password": "NewPass2",
	}), http.StatusUnprocessableEntity)
	expectStatus(t, c.do(http.MethodPost, "/admin/password", map[string]string{
		"password": "abc", "confirm_password": "abc",
	}), http.StatusUnprocessableEntity)
	expectStatus(t, c.do(http.MethodPost, "/admin/password", map[string]string{
		"password": "NewPass1", "confirm_password": "NewPass1",
	}), http.StatusOK)

	expectStatus(t, c.do(http.MethodGet, "/admin/exams/", nil), http.StatusOK)

	c.do(http.MethodPost, "/logout", nil)
	expectStatus(t, c.login("bob2", "Temp123", "admin"), http.StatusUnauthorized)
	expectStatus(t, c.login("bob2", "NewPass1", "admin"), http.StatusOK)
}

func TestExamLifecycle(t *testing.T) {
	c := newTestClient(t)
	expectStatus(t, c.login("admin", "Admin@123", "admin"), http.StatusOK)

	rec := c.do(http.MethodPost, "/admin/exams/", map[string]any{
		"title": "  Chemistry Quiz ", "exam_type_id": "et-2", "subject_id": "sub-5", "period_id": "ep-2",
		"date": "2025-11-01", "time": "10:00", "duration": 45, "total_marks": 100, "passing_marks": 50,
	})
	expectStatus(t, rec, http.StatusCreated)
	exam := decode[model.Exam](t, rec)
	if exam.ID == "" || exam.Status != model.ExamScheduled || exam.Title != "Chemistry Quiz" {
		t.Fatalf("unexpected exam %+v", exam)
	}

	rec = c.do(http.MethodPost, "/admin/exams/", map[string]any{
		"title": "Bad", "exam_type_id": "et-2", "subject_id": "sub-5", "period_id": "ep-2",
		"date": "2025-11-01", "time": "10:00", "total_marks": 10, "passing_marks": 50,
	})
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	gen := "/admin/results/" + exam.ID + "/generate"
	expectStatus(t, c.do(http.MethodPost, gen, nil), http.StatusConflict)
	expectStatus(t, c.do(http.MethodPost, "/admin/exams/"+exam.ID+"/complete", nil), http.StatusOK)

	for range 2 {
		rec = c.do(http.MethodPost, gen, nil)
		expectStatus(t, rec, http.StatusOK)
		out := decode[struct {
			Message string         `json:"message"`
			Results []model.Result `json:"results"`
		}](t, rec)
		if len(out.Results) != 3 || out.Message != "3 results generated." {
			t.Fatalf("unexpected generation %+v", out)
		}
		if out.Results[0].Status != model.ResultPass || out.Results[0].Percentage != 60 {
			t.Errorf("unexpected result %+v", out.Results[0])
		}
	}

	rec = c.do(http.MethodGet, "/admin/results/"+exam.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	exp := decode[model.ResultsExport](t, rec)
	if exp.Status != model.ExamResultsPublished || exp.Summary.Count != 3 || exp.Subject != "Chemistry" {
		t.Errorf("unexpected export %+v", exp)
	}

	expectStatus(t, c.do(http.MethodPost, "/admin/results/nope/generate", nil), http.StatusNotFound)
	expectStatus(t, c.do(http.MethodGet, "/admin/results/nope", nil), http.StatusNotFound)

	exam.Title = "Chemistry Quiz II"
	exam.Status = ""
	rec = c.do(http.MethodPut, "/admin/exams/"+exam.ID, exam)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[model.Exam](t, rec); got.Status != model.ExamResultsPublished {
		t.Errorf("update without status should keep it, got %s", got.Status)
	}
	expectStatus(t, c.do(http.MethodPut, "/admin/exams/nope", exam), http.StatusNotFound)

	expectStatus(t, c.do(http.MethodDelete, "/admin/exams/"+exam.ID, nil), http.StatusNoContent)
	expectStatus(t, c.do(http.MethodDelete, "/admin/exams/"+exam.ID, nil), http.StatusNotFound)
}

func TestListQuery(t *testing.T) {
	c := newTestClient(t)
	expectStatus(t, c.login("admin", "Admin@123", "admin"), http.StatusOK)

	type subjectPage struct {
		Rows       []model.Subject `json:"rows"`
		Page       int             `json:"page"`
		PageSize   int             `json:"page_size"`
		Total      int             `json:"total"`
		TotalPages int             `json:"total_pages"`
		Sort       string          `json:"sort"`
		Dir        string          `json:"dir"`
		Summary    string          `json:"summary"`
		Columns    []columnInfo    `json:"columns"`
	}

	p := decode[subjectPage](t, c.do(http.MethodGet, "/admin/subjects/?q=PHY", nil))
	if p.Total != 1 || p.Rows[0].Code != "PHY101" {
		t.Errorf("unexpected search result %+v", p)
	}

	p = decode[subjectPage](t, c.do(http.MethodGet, "/admin/subjects/?sort=name&dir=desc&page_size=2", nil))
	if p.Total != 5 || p.TotalPages != 3 || len(p.Rows) != 2 {
		t.Fatalf("unexpected page %+v", p)
	}
	if p.Rows[0].Name != "Physics" || p.Dir != "desc" || p.Summary != "Showing 1-2 of 5" {
		t.Errorf("unexpected sorted page %+v", p)
	}
	if len(p.Columns) != 3 || !p.Columns[0].Sortable {
		t.Errorf("unexpected columns %+v", p.Columns)
	}

	p = decode[subjectPage](t, c.do(http.MethodGet, "/admin/subjects/?page=9", nil))
	if len(p.Rows) != 0 || p.Summary != "No data found." {
		t.Errorf("expected empty page, got %+v", p)
	}

	rec := c.do(http.MethodGet, "/admin/exam-types/?page=922337203685477581", nil)
	expectStatus(t, rec, http.StatusOK)
	if p := decode[subjectPage](t, rec); len(p.Rows) != 0 || p.Total != 3 {
		t.Errorf("expected an empty far page, got %+v", p)
	}
	rec = c.do(http.MethodGet, "/admin/subjects/?page_size=9223372036854775807", nil)
	expectStatus(t, rec, http.StatusOK)
	if p := decode[subjectPage](t, rec); len(p.Rows) != 5 || p.TotalPages != 1 {
		t.Errorf("expected one page holding everything, got %+v", p)
	}

	expectStatus(t, c.do(http.MethodGet, "/admin/subjects/?page=x", nil), http.StatusBadRequest)
	expectStatus(t, c.do(http.MethodGet, "/admin/subjects/?page_size=0", nil), http.StatusBadRequest)
}

func TestCatalogCRUD(t *testing.T) {
	c := newTestClient(t)
	expectStatus(t, c.login("admin", "Admin@123", "admin"), http.StatusOK)

	rec := c.do(http.MethodPost, "/admin/exam-types/", map[string]string{"name": " Oral ", "description": "Spoken"})
	expectStatus(t, rec, http.StatusCreated)
	et := decode[model.ExamType](t, rec)
	if et.Name != "Oral" || !strings.HasPrefix(et.ID, "et-") {
		t.Errorf("unexpected exam type %+v", et)
	}
	expectStatus(t, c.do(http.MethodPost, "/admin/exam-types/", map[string]string{"name": ""}), http.StatusUnprocessableEntity)

	expectStatus(t, c.do(http.MethodPost, "/admin/periods/", map[string]string{
		"name": "Summer 2026", "start_date": "2026-06-01", "end_date": "2026-08-31",
	}), http.StatusCreated)
	expectStatus(t, c.do(http.MethodPut, "/admin/subjects/sub-4", map[string]string{
		"name": "English Literature", "code": "ENG201",
	}), http.StatusOK)

	dash := decode[struct {
		Stats records.Stats `json:"stats"`
	}](t, c.do(http.MethodGet, "/admin/", nil))
	if dash.Stats.ExamTypes != 4 || dash.Stats.Students != 3 {
		t.Errorf("unexpected stats %+v", dash.Stats)
	}
}

func TestTargetedNotifications(t *testing.T) {
	c := newTestClient(t)
	expectStatus(t, c.login("admin", "Admin@123", "admin"), http.StatusOK)

	rec := c.do(http.MethodPost, "/admin/notifications/", map[string]any{
		"type": "general", "title": "Room change", "message": "Room 12", "target": []string{"student-2"},
	})
	expectStatus(t, rec, http.StatusCreated)
	n := decode[model.Notification](t, rec)
	if n.Target.All || len(n.Target.StudentIDs) != 1 {
		t.Fatalf("unexpected target %+v", n.Target)
	}
	expectStatus(t, c.do(http.MethodPost, "/admin/notifications/", map[string]any{
		"type": "urgent", "title": "x", "message": "y",
	}), http.StatusUnprocessableEntity)
	expectStatus(t, c.do(http.MethodPost, "/admin/notifications/", map[string]any{
		"title": "x", "message": "y", "target": "some",
	}), http.StatusBadRequest)

	c.do(http.MethodPost, "/logout", nil)
	expectStatus(t, c.login("john", "Student@123", "student"), http.StatusOK)
	dash := decode[studentDashboard](t, c.do(http.MethodGet, "/student/", nil))
	for _, got := range dash.Notifications {
		if got.ID == n.ID {
			t.Error("john should not see jane's notification")
		}
	}
	expectStatus(t, c.do(http.MethodPost, "/student/notifications/"+n.ID+"/read", nil), http.StatusNotFound)

	c.do(http.MethodPost, "/logout", nil)
	expectStatus(t, c.login("jane", "Student@123", "student"), http.StatusOK)
	dash = decode[studentDashboard](t, c.do(http.MethodGet, "/student/", nil))
	if len(dash.Notifications) != 4 || dash.Notifications[0].ID != n.ID {
		t.Errorf("jane should see the new notification first, got %+v", dash.Notifications)
	}

	c.do(http.MethodPost, "/logout", nil)
	expectStatus(t, c.login("admin", "Admin@123", "admin"), http.StatusOK)
	expectStatus(t, c.do(http.MethodDelete, "/admin/notifications/"+n.ID, nil), http.StatusNoContent)
	expectStatus(t, c.do(http.MethodDelete, "/admin/notifications/"+n.ID, nil), http.StatusNotFound)
}
