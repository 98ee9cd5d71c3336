package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ExamStatus is the lifecycle position of an exam.
type ExamStatus string

const (
	ExamScheduled        ExamStatus = "scheduled"
	ExamCompleted        ExamStatus = "completed"
	ExamResultsPublished ExamStatus = "results_published"
)

// ResultStatus is the pass/fail outcome of a result.
type ResultStatus string

const (
	ResultPass ResultStatus = "pass"
	ResultFail ResultStatus = "fail"
)

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationExam    NotificationType = "exam"
	NotificationResult  NotificationType = "result"
	NotificationGeneral NotificationType = "general"
)

// ExamType is a kind of examination (theory, MCQ, ...).
type ExamType struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// ExamPeriod is a named date range exams are scheduled in.
type ExamPeriod struct {
	ID        string `json:"id"`
	Name      string `json:"name" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// Subject is a course exams are written for.
type Subject struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code" validate:"required"`
	Description string `json:"description"`
}

// Exam is a scheduled sitting of a subject.
type Exam struct {
	ID           string     `json:"id"`
	Title        string     `json:"title" validate:"required"`
	ExamTypeID   string     `json:"exam_type_id" validate:"required"`
	SubjectID    string     `json:"subject_id" validate:"required"`
	PeriodID     string     `json:"period_id" validate:"required"`
	Date         string     `json:"date" validate:"required"`
	Time         string     `json:"time" validate:"required"`
	Duration     int        `json:"duration" validate:"gte=0"` // minutes
	TotalMarks   int        `json:"total_marks" validate:"gt=0"`
	PassingMarks int        `json:"passing_marks" validate:"gte=0,ltefield=TotalMarks"`
	Instructions string     `json:"instructions"`
	Status       ExamStatus `json:"status" validate:"omitempty,oneof=scheduled completed results_published"`
}

// Result is one student's outcome for an exam.
type Result struct {
	ID            string       `json:"id"`
	ExamID        string       `json:"exam_id"`
	StudentID     string       `json:"student_id"`
	StudentName   string       `json:"student_name"`
	TotalMarks    int          `json:"total_marks"`
	ObtainedMarks int          `json:"obtained_marks"`
	Percentage    int          `json:"percentage"`
	Status        ResultStatus `json:"status"`
}

// Notification is a message published to all students or to a list of them.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type" validate:"required,oneof=exam result general"`
	Title     string           `json:"title" validate:"required"`
	Message   string           `json:"message" validate:"required"`
	Target    Target           `json:"target"`
	CreatedAt time.Time        `json:"created_at"`
	Read      bool             `json:"read,omitempty"`
}

// Key methods let the record store address every kind uniformly.

func (e ExamType) Key() string     { return e.ID }
func (e ExamPeriod) Key() string   { return e.ID }
func (s Subject) Key() string      { return s.ID }
func (e Exam) Key() string         { return e.ID }
func (r Result) Key() string       { return r.ID }
func (n Notification) Key() string { return n.ID }

const targetAll = "all"

// Target addresses a notification. It encodes as the string "all" or as a list of student ids.
type Target struct {
	All        bool
	StudentIDs []string
}

// TargetAll addresses every student.
func TargetAll() Target { return Target{All: true} }

// TargetStudents addresses the given students only.
func TargetStudents(ids ...string) Target { return Target{StudentIDs: ids} }

// Includes reports whether the student is addressed.
func (t Target) Includes(studentID string) bool {
	if t.All {
		return true
	}
	for _, id := range t.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

func (t Target) String() string {
	if t.All {
		return targetAll
	}
	return strings.Join(t.StudentIDs, ",")
}

func (t Target) MarshalJSON() ([]byte, error) {
	if t.All {
		return json.Marshal(targetAll)
	}
	ids := t.StudentIDs
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

func (t *Target) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != targetAll {
			return fmt.Errorf("invalid notification target %q", s)
		}
		*t = TargetAll()
		return nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("invalid notification target: %w", err)
	}
	*t = Target{StudentIDs: ids}
	return nil
}
