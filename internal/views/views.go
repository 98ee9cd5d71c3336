// Package views defines the table layout of every record list shown by the
// dashboard, shared by the HTTP surface and the CLI.
package views

import (
	"strconv"
	"strings"

	"github.com/pavelanni/examdash/internal/model"
	"github.com/pavelanni/examdash/internal/table"
)

// Names resolves foreign keys for display.
type Names interface {
	ExamTypeName(id string) string
	SubjectName(id string) string
}

func ExamTypes() table.Config[model.ExamType] {
	return table.Config[model.ExamType]{
		Columns: []table.Column[model.ExamType]{
			{Key: "name", Label: "Name"},
			{Key: "description", Label: "Description"},
		},
		SearchFields: []string{"name", "description"},
	}
}

func Periods() table.Config[model.ExamPeriod] {
	return table.Config[model.ExamPeriod]{
		Columns: []table.Column[model.ExamPeriod]{
			{Key: "name", Label: "Period Name"},
			{Key: "start_date", Label: "Start Date"},
			{Key: "end_date", Label: "End Date"},
		},
		SearchFields: []string{"name"},
	}
}

func Subjects() table.Config[model.Subject] {
	return table.Config[model.Subject]{
		Columns: []table.Column[model.Subject]{
			{Key: "name", Label: "Name"},
			{Key: "code", Label: "Code"},
			{Key: "description", Label: "Description"},
		},
		SearchFields: []string{"name", "code"},
	}
}

// Exams shows type and subject by name. Sorting still uses the stored ids.
func Exams(names Names) table.Config[model.Exam] {
	return table.Config[model.Exam]{
		Columns: []table.Column[model.Exam]{
			{Key: "title", Label: "Title"},
			{Key: "exam_type_id", Label: "Type", Render: func(e model.Exam) string { return names.ExamTypeName(e.ExamTypeID) }},
			{Key: "subject_id", Label: "Subject", Render: func(e model.Exam) string { return names.SubjectName(e.SubjectID) }},
			{Key: "date", Label: "Date"},
			{Key: "status", Label: "Status", Render: func(e model.Exam) string { return statusLabel(string(e.Status)) }},
		},
		SearchFields: []string{"title"},
	}
}

func Results() table.Config[model.Result] {
	return table.Config[model.Result]{
		Columns: []table.Column[model.Result]{
			{Key: "student_name", Label: "Student"},
			{Key: "exam_id", Label: "Exam"},
			{Key: "obtained_marks", Label: "Marks", Render: func(r model.Result) string {
				return strconv.Itoa(r.ObtainedMarks) + "/" + strconv.Itoa(r.TotalMarks)
			}},
			{Key: "percentage", Label: "Percentage", Render: func(r model.Result) string {
				return strconv.Itoa(r.Percentage) + "%"
			}},
			{Key: "status", Label: "Status", Render: func(r model.Result) string { return strings.ToUpper(string(r.Status)) }},
		},
		SearchFields: []string{"student_name", "exam_id"},
	}
}

func Notifications() table.Config[model.Notification] {
	return table.Config[model.Notification]{
		Columns: []table.Column[model.Notification]{
			{Key: "type", Label: "Type"},
			{Key: "title", Label: "Title"},
			{Key: "message", Label: "Message"},
			{Key: "created_at", Label: "Created", Render: func(n model.Notification) string {
				return n.CreatedAt.Format("2006-01-02")
			}},
		},
		SearchFields: []string{"title", "message"},
	}
}

func Users() table.Config[model.User] {
	return table.Config[model.User]{
		Columns: []table.Column[model.User]{
			{Key: "username", Label: "Username"},
			{Key: "display_name", Label: "Display Name"},
			{Key: "email", Label: "Email"},
			{Key: "role", Label: "Role"},
		},
		SearchFields: []string{"username", "display_name", "email"},
	}
}

// statusLabel turns "results_published" into "results published".
func statusLabel(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}
