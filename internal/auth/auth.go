// Package auth owns the user directory, the credential directory and the
// single authenticated session of the running instance.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/examdash/internal/latency"
	"github.com/pavelanni/examdash/internal/model"
	"github.com/pavelanni/examdash/internal/store"
	"github.com/pavelanni/examdash/internal/validate"
)

// Storage keys of the three independently persisted slices.
const (
	KeySession     = "exam_auth"
	KeyUsers       = "exam_users"
	KeyCredentials = "exam_passwords"
)

// MinPasswordLength applies to registration and forced password changes.
const MinPasswordLength = 6

// DefaultLatency is the simulated delay of login, registration and admin creation.
const DefaultLatency = 500 * time.Millisecond

// Storage is the durable key-value mirror of the session state.
type Storage interface {
	SaveJSON(key string, v any) error
	LoadJSON(key string, v any) (bool, error)
	Delete(key string) error
}

// Options tunes the simulated backend.
type Options struct {
	Latency            time.Duration // delay of login, register and admin creation
	HashCost           int           // bcrypt cost, 0 means bcrypt.DefaultCost
	SuperAdminUsername string
	SuperAdminPassword string
}

// Service is the session store.
type Service struct {
	storage Storage
	opts    Options

	// op serializes the latency-simulating operations end to end.
	op sync.Mutex

	mu          sync.RWMutex
	session     model.Session
	users       []model.User
	credentials map[string]string // username -> bcrypt hash
}

// Registration is the student self-registration form.
type Registration struct {
	Username        string `json:"username" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	DisplayName     string `json:"display_name"`
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Nickname        string `json:"nickname"`
	Website         string `json:"website"`
	Bio             string `json:"bio"`
}

type adminForm struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

// New rehydrates the session store from storage, seeding fixtures for missing
// or undecodable slices.
func New(storage Storage, opts Options) (*Service, error) {
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	if opts.SuperAdminUsername == "" {
		opts.SuperAdminUsername = DefaultSuperAdminUsername
	}
	if opts.SuperAdminPassword == "" {
		opts.SuperAdminPassword = DefaultSuperAdminPassword
	}
	s := &Service{storage: storage, opts: opts}

	found, err := s.load(KeySession, &s.session)
	if err != nil {
		return nil, err
	}
	if !found {
		s.session = model.Session{}
	}
	s.session.IsAuthenticated = s.session.User != nil && s.session.Token != ""

	found, err = s.load(KeyUsers, &s.users)
	if err != nil {
		return nil, err
	}
	if !found {
		s.users = seedUsers()
	}

	found, err = s.load(KeyCredentials, &s.credentials)
	if err != nil {
		return nil, err
	}
	if !found || s.credentials == nil {
		s.credentials = make(map[string]string)
		for username, password := range seedPasswords() {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), opts.HashCost)
			if err != nil {
				return nil, fmt.Errorf("hash seed password for %s: %w", username, err)
			}
			s.credentials[username] = string(hash)
		}
		slog.Info("seeded user directory", "users", len(s.users))
	}

	s.persist(KeySession, s.session)
	s.persist(KeyUsers, s.users)
	s.persist(KeyCredentials, s.credentials)
	return s, nil
}

// load reports false for missing or corrupt slices. Only storage failures are errors.
func (s *Service) load(key string, v any) (bool, error) {
	found, err := s.storage.LoadJSON(key, v)
	if err != nil {
		if errors.Is(err, store.ErrCorrupt) {
			slog.Warn("discarding unreadable slice", "key", key, "error", err)
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	return found, nil
}

// persist mirrors a slice to storage. Failures are logged, never returned.
func (s *Service) persist(key string, v any) {
	if err := s.storage.SaveJSON(key, v); err != nil {
		slog.Warn("failed to persist slice", "key", key, "error", err)
	}
}

// Current returns a copy of the session.
func (s *Service) Current() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.session)
}

// Login authenticates username for role and replaces the session.
func (s *Service) Login(ctx context.Context, username, password string, role model.UserRole) (model.Session, error) {
	s.op.Lock()
	defer s.op.Unlock()
	if err := latency.Wait(ctx, s.opts.Latency); err != nil {
		return model.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.TrimSpace(username)
	u := s.findUser(username, role)
	if u == nil {
		slog.Info("login rejected", "username", username, "role", role, "reason", "unknown account")
		return model.Session{}, ErrUnknownAccount
	}
	if !s.checkPassword(username, password) {
		slog.Info("login rejected", "username", username, "role", role, "reason", "wrong password")
		return model.Session{}, ErrWrongPassword
	}
	if err := s.startSession(*u); err != nil {
		return model.Session{}, err
	}
	slog.Info("logged in", "id", u.ID, "username", u.Username, "role", u.Role)
	return copySession(s.session), nil
}

// Register creates a student account and logs it in.
func (s *Service) Register(ctx context.Context, r Registration) (model.Session, error) {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	if err := validate.Struct(r); err != nil {
		return model.Session{}, err
	}

	s.op.Lock()
	defer s.op.Unlock()
	if err := latency.Wait(ctx, s.opts.Latency); err != nil {
		return model.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usernameTaken(r.Username) {
		return model.Session{}, ErrUsernameTaken
	}
	hash, err := s.hash(r.Password)
	if err != nil {
		return model.Session{}, err
	}

	displayName := r.DisplayName
	if displayName == "" {
		displayName = r.FirstName + " " + r.LastName
	}
	u := model.User{
		ID:          "student-" + uuid.NewString(),
		Username:    r.Username,
		Email:       r.Email,
		DisplayName: displayName,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Nickname:    r.Nickname,
		Website:     r.Website,
		Bio:         r.Bio,
		Role:        model.UserRoleStudent,
	}
	s.users = append(s.users, u)
	s.credentials[u.Username] = hash
	s.persist(KeyUsers, s.users)
	s.persist(KeyCredentials, s.credentials)

	if err := s.startSession(u); err != nil {
		return model.Session{}, err
	}
	slog.Info("registered user", "id", u.ID, "username", u.Username)
	return copySession(s.session), nil
}

// Logout clears the session. Calling it while anonymous is harmless. A login
// still inside its delay finishes first.
func (s *Service) Logout() {
	s.op.Lock()
	defer s.op.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.User != nil {
		slog.Info("logged out", "username", s.session.User.Username)
	}
	s.session = model.Session{}
	if err := s.storage.Delete(KeySession); err != nil {
		slog.Warn("failed to clear session slice", "error", err)
	}
}

// VerifySuperAdmin checks the static super admin pair.
func (s *Service) VerifySuperAdmin(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.opts.SuperAdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.opts.SuperAdminPassword)) == 1
	return userOK && passOK
}

// CreateAdmin adds an admin that must change its temporary password on first
// login. The current session is left untouched.
func (s *Service) CreateAdmin(ctx context.Context, username, email, tempPassword string) (model.User, error) {
	form := adminForm{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: tempPassword,
	}
	if err := validate.Struct(form); err != nil {
		return model.User{}, err
	}

	s.op.Lock()
	defer s.op.Unlock()
	if err := latency.Wait(ctx, s.opts.Latency); err != nil {
		return model.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usernameTaken(form.Username) {
		return model.User{}, ErrUsernameTaken
	}
	hash, err := s.hash(form.Password)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		ID:                 "admin-" + uuid.NewString(),
		Username:           form.Username,
		Email:              form.Email,
		DisplayName:        form.Username,
		FirstName:          form.Username,
		LastName:           "Admin",
		Role:               model.UserRoleAdmin,
		MustChangePassword: true,
	}
	s.users = append(s.users, u)
	s.credentials[u.Username] = hash
	s.persist(KeyUsers, s.users)
	s.persist(KeyCredentials, s.credentials)
	slog.Info("created admin", "id", u.ID, "username", u.Username)
	return u, nil
}

// ForceChangePassword replaces the current user's secret and clears the
// must-change flag. Without a session it does nothing.
func (s *Service) ForceChangePassword(newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.User == nil {
		return nil
	}
	if err := validate.Var("password", newPassword, fmt.Sprintf("min=%d", MinPasswordLength)); err != nil {
		return err
	}
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	username := s.session.User.Username
	s.credentials[username] = hash
	s.session.User.MustChangePassword = false
	for i := range s.users {
		if s.users[i].ID == s.session.User.ID {
			s.users[i].MustChangePassword = false
		}
	}
	s.persist(KeyCredentials, s.credentials)
	s.persist(KeyUsers, s.users)
	s.persist(KeySession, s.session)
	slog.Info("password changed", "username", username)
	return nil
}

// AllUsers returns a copy of the user directory in creation order.
func (s *Service) AllUsers() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]model.User, len(s.users))
	copy(users, s.users)
	return users
}

// AddUser appends a directory entry without credentials.
func (s *Service) AddUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
	s.persist(KeyUsers, s.users)
}

// UserByID looks up a directory entry.
func (s *Service) UserByID(id string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

func (s *Service) findUser(username string, role model.UserRole) *model.User {
	for i := range s.users {
		if s.users[i].Username == username && s.users[i].Role == role {
			return &s.users[i]
		}
	}
	return nil
}

func (s *Service) usernameTaken(username string) bool {
	for _, u := range s.users {
		if u.Username == username {
			return true
		}
	}
	return false
}

func (s *Service) checkPassword(username, password string) bool {
	hash, ok := s.credentials[username]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.HashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// startSession must be called with mu held.
func (s *Service) startSession(u model.User) error {
	token, err := generateToken()
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	s.session = model.Session{User: &u, Token: token, IsAuthenticated: true}
	s.persist(KeySession, s.session)
	return nil
}

func copySession(sess model.Session) model.Session {
	if sess.User != nil {
		u := *sess.User
		sess.User = &u
	}
	return sess
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
