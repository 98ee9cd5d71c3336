// Package records holds the exam domain collections and the mock grading workflow.
package records

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pavelanni/examdash/internal/model"
	"github.com/pavelanni/examdash/internal/store"
)

// Storage keys, one per record kind.
const (
	KeyExamTypes     = "exam_types"
	KeyPeriods       = "exam_periods"
	KeySubjects      = "exam_subjects"
	KeyExams         = "exam_exams"
	KeyResults       = "exam_results"
	KeyNotifications = "exam_notifications"
)

// DefaultLatency is the simulated duration of GenerateResults.
const DefaultLatency = 2 * time.Second

var (
	// ErrExamNotCompleted is returned when results are requested for a scheduled exam.
	ErrExamNotCompleted = errors.New("exam is not completed")
	// ErrNotFound is returned by lookups that require an existing record.
	ErrNotFound = errors.New("record not found")
)

// Storage is the durable key-value mirror of the collections.
type Storage interface {
	SaveJSON(key string, v any) error
	LoadJSON(key string, v any) (bool, error)
}

// Options tunes the mock grading backend.
type Options struct {
	Latency time.Duration  // delay of GenerateResults
	Scores  ScoreGenerator // nil means RandomScores
	Roster  []Student      // nil means DefaultRoster
	Now     func() time.Time
}

// Store owns the six record collections.
type Store struct {
	storage Storage
	opts    Options
	mu      sync.RWMutex
	group   singleflight.Group

	ExamTypes     *Collection[model.ExamType]
	Periods       *Collection[model.ExamPeriod]
	Subjects      *Collection[model.Subject]
	Exams         *Collection[model.Exam]
	Results       *Collection[model.Result]
	Notifications *Collection[model.Notification]
}

// New rehydrates every collection from storage, seeding fixtures for the
// ones that are missing or unreadable, and writes the result back.
func New(storage Storage, opts Options) (*Store, error) {
	if opts.Scores == nil {
		opts.Scores = RandomScores{}
	}
	if opts.Roster == nil {
		opts.Roster = DefaultRoster
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Store{storage: storage, opts: opts}
	s.ExamTypes = newCollection(s, KeyExamTypes, "et-", func(v *model.ExamType, id string) { v.ID = id })
	s.Periods = newCollection(s, KeyPeriods, "ep-", func(v *model.ExamPeriod, id string) { v.ID = id })
	s.Subjects = newCollection(s, KeySubjects, "sub-", func(v *model.Subject, id string) { v.ID = id })
	s.Exams = newCollection(s, KeyExams, "exam-", func(v *model.Exam, id string) { v.ID = id })
	s.Results = newCollection(s, KeyResults, "r-", func(v *model.Result, id string) { v.ID = id })
	s.Notifications = newCollection(s, KeyNotifications, "n-", func(v *model.Notification, id string) { v.ID = id })

	loaders := []func() error{
		func() error { return s.ExamTypes.load(seedExamTypes()) },
		func() error { return s.Periods.load(seedPeriods()) },
		func() error { return s.Subjects.load(seedSubjects()) },
		func() error { return s.Exams.load(seedExams()) },
		func() error { return s.Results.load(seedResults()) },
		func() error { return s.Notifications.load(seedNotifications()) },
	}
	for _, load := range loaders {
		if err := load(); err != nil {
			return nil, err
		}
	}
	s.persistAll()
	return s, nil
}

func (s *Store) load(key string, v any) (bool, error) {
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
func (s *Store) persist(key string, v any) {
	if err := s.storage.SaveJSON(key, v); err != nil {
		slog.Warn("failed to persist slice", "key", key, "error", err)
	}
}

func (s *Store) persistAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.persist(KeyExamTypes, s.ExamTypes.items)
	s.persist(KeyPeriods, s.Periods.items)
	s.persist(KeySubjects, s.Subjects.items)
	s.persist(KeyExams, s.Exams.items)
	s.persist(KeyResults, s.Results.items)
	s.persist(KeyNotifications, s.Notifications.items)
}

// CompleteExam moves a scheduled exam to completed. Exams in any other state
// are left as they are. It reports whether the exam exists.
func (s *Store) CompleteExam(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.Exams.index(id)
	if i < 0 {
		return false
	}
	if s.Exams.items[i].Status == model.ExamScheduled {
		s.Exams.items[i].Status = model.ExamCompleted
		s.persist(KeyExams, s.Exams.items)
		slog.Info("exam completed", "id", id)
	}
	return true
}

// MarkNotificationRead flags a notification as read. Unknown ids are ignored.
func (s *Store) MarkNotificationRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.Notifications.index(id)
	if i < 0 {
		return false
	}
	s.Notifications.items[i].Read = true
	s.persist(KeyNotifications, s.Notifications.items)
	return true
}

// ExamTypeName resolves an exam type id, falling back to the id itself.
func (s *Store) ExamTypeName(id string) string {
	if v, ok := s.ExamTypes.Get(id); ok {
		return v.Name
	}
	return id
}

// SubjectName resolves a subject id, falling back to the id itself.
func (s *Store) SubjectName(id string) string {
	if v, ok := s.Subjects.Get(id); ok {
		return v.Name
	}
	return id
}

// PeriodName resolves a period id, falling back to the id itself.
func (s *Store) PeriodName(id string) string {
	if v, ok := s.Periods.Get(id); ok {
		return v.Name
	}
	return id
}

// ResultsForExam returns the results of one exam.
func (s *Store) ResultsForExam(examID string) []model.Result {
	return s.filterResults(func(r model.Result) bool { return r.ExamID == examID })
}

// ResultsForStudent returns every result recorded for the student.
func (s *Store) ResultsForStudent(studentID string) []model.Result {
	return s.filterResults(func(r model.Result) bool { return r.StudentID == studentID })
}

func (s *Store) filterResults(keep func(model.Result) bool) []model.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Result
	for _, r := range s.Results.items {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// NotificationsFor returns the notifications addressed to the student, newest first.
func (s *Store) NotificationsFor(studentID string) []model.Notification {
	s.mu.RLock()
	var out []model.Notification
	for _, n := range s.Notifications.items {
		if n.Target.Includes(studentID) {
			out = append(out, n)
		}
	}
	s.mu.RUnlock()
	slices.SortStableFunc(out, func(a, b model.Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// Stats counts the records shown on the admin dashboard.
type Stats struct {
	Exams     int `json:"exams"`
	ExamTypes int `json:"exam_types"`
	Subjects  int `json:"subjects"`
	Students  int `json:"students"`
}

// Stats returns record counts. Students are counted from users since they
// live in the session store.
func (s *Store) Stats(users []model.User) Stats {
	st := Stats{
		Exams:     s.Exams.Len(),
		ExamTypes: s.ExamTypes.Len(),
		Subjects:  s.Subjects.Len(),
	}
	for _, u := range users {
		if u.Role == model.UserRoleStudent {
			st.Students++
		}
	}
	return st
}
