package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/pavelanni/examdash/internal/auth"
	appI18n "github.com/pavelanni/examdash/internal/i18n"
	"github.com/pavelanni/examdash/internal/model"
	"github.com/pavelanni/examdash/internal/validate"
)

const sessionCookieName = "session"

// requireAuth admits requests whose session cookie carries the token of the
// current session.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			writeError(w, r, http.StatusUnauthorized, "not_authenticated", "NotAuthenticated")
			return
		}
		sess := h.auth.Current()
		if !sess.IsAuthenticated || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(sess.Token)) != 1 {
			writeError(w, r, http.StatusUnauthorized, "not_authenticated", "NotAuthenticated")
			return
		}

		ctx := model.ContextWithUser(r.Context(), sess.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole returns middleware that checks the user has one of the allowed roles.
func requireRole(allowed ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				writeError(w, r, http.StatusUnauthorized, "not_authenticated", "NotAuthenticated")
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, r, http.StatusForbidden, "forbidden", "Forbidden")
		})
	}
}

// requirePasswordChanged blocks users that still hold a temporary password.
func requirePasswordChanged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := model.UserFromContext(r.Context()); user != nil && user.MustChangePassword {
			writeError(w, r, http.StatusForbidden, "password_change_required", "PasswordChangeRequired")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type sessionResponse struct {
	Authenticated bool        `json:"authenticated"`
	State         string      `json:"state"`
	User          *model.User `json:"user,omitempty"`
	Home          string      `json:"home"`
}

func newSessionResponse(sess model.Session) sessionResponse {
	resp := sessionResponse{
		Authenticated: sess.IsAuthenticated,
		State:         sess.State().String(),
		User:          sess.User,
		Home:          "/login",
	}
	if sess.User != nil {
		resp.Home = sess.User.Role.Home()
	}
	return resp
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newSessionResponse(h.auth.Current()))
}

type loginForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := decodeJSON(w, r, &form); err != nil {
		fail(w, r, err)
		return
	}
	if err := validate.Struct(form); err != nil {
		fail(w, r, err)
		return
	}
	role, err := model.ParseUserRole(form.Role)
	if err != nil {
		slog.Info("login rejected", "username", form.Username, "error", err)
		fail(w, r, auth.ErrUnknownAccount)
		return
	}

	sess, err := h.auth.Login(r.Context(), form.Username, form.Password, role)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.setSessionCookie(w, sess.Token)
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var form auth.Registration
	if err := decodeJSON(w, r, &form); err != nil {
		fail(w, r, err)
		return
	}
	sess, err := h.auth.Register(r.Context(), form)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.setSessionCookie(w, sess.Token)
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
	writeJSON(w, http.StatusOK, map[string]string{
		"message": appI18n.T(r.Context(), "LoggedOut"),
		"home":    "/",
	})
}

type passwordForm struct {
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var form passwordForm
	if err := decodeJSON(w, r, &form); err != nil {
		fail(w, r, err)
		return
	}
	if err := validate.Struct(form); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.auth.ForceChangePassword(form.Password); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": appI18n.T(r.Context(), "PasswordChanged"),
		"session": newSessionResponse(h.auth.Current()),
	})
}
