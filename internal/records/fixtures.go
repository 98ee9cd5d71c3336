package records

import (
	"time"

	"github.com/pavelanni/examdash/internal/model"
)

// Student is a roster entry results are generated for.
type Student struct {
	ID   string
	Name string
}

// DefaultRoster is the fixed set of students graded by GenerateResults.
var DefaultRoster = []Student{
	{ID: "student-1", Name: "John Doe"},
	{ID: "student-2", Name: "Jane Smith"},
	{ID: "student-3", Name: "Bob Wilson"},
}

func seedExamTypes() []model.ExamType {
	return []model.ExamType{
		{ID: "et-1", Name: "Theory", Description: "Written theory examination"},
		{ID: "et-2", Name: "MCQ", Description: "Multiple choice questions"},
		{ID: "et-3", Name: "Open-book", Description: "Open-book examination with reference materials allowed"},
	}
}

func seedPeriods() []model.ExamPeriod {
	return []model.ExamPeriod{
		{ID: "ep-1", Name: "Semester I 2025", StartDate: "2025-01-15", EndDate: "2025-05-30"},
		{ID: "ep-2", Name: "Winter 2025", StartDate: "2025-10-01", EndDate: "2025-12-20"},
	}
}

func seedSubjects() []model.Subject {
	return []model.Subject{
		{ID: "sub-1", Name: "Mathematics", Code: "MATH101", Description: "Fundamentals of Mathematics"},
		{ID: "sub-2", Name: "Physics", Code: "PHY101", Description: "Introduction to Physics"},
		{ID: "sub-3", Name: "Computer Science", Code: "CS101", Description: "Intro to Computer Science"},
		{ID: "sub-4", Name: "English", Code: "ENG101", Description: "English Language & Literature"},
		{ID: "sub-5", Name: "Chemistry", Code: "CHEM101", Description: "Basic Chemistry"},
	}
}

func seedExams() []model.Exam {
	return []model.Exam{
		{
			ID:           "exam-1",
			Title:        "Mathematics Mid-Term",
			ExamTypeID:   "et-1",
			SubjectID:    "sub-1",
			PeriodID:     "ep-1",
			Date:         "2025-03-15",
			Time:         "09:00",
			Duration:     120,
			TotalMarks:   100,
			PassingMarks: 40,
			Instructions: "Answer all questions. Show all working.",
			Status:       model.ExamResultsPublished,
		},
		{
			ID:           "exam-2",
			Title:        "Physics MCQ Test",
			ExamTypeID:   "et-2",
			SubjectID:    "sub-2",
			PeriodID:     "ep-1",
			Date:         "2025-03-20",
			Time:         "14:00",
			Duration:     60,
			TotalMarks:   50,
			PassingMarks: 20,
			Instructions: "Select the correct answer for each question.",
			Status:       model.ExamCompleted,
		},
		{
			ID:           "exam-3",
			Title:        "CS Open-book Final",
			ExamTypeID:   "et-3",
			SubjectID:    "sub-3",
			PeriodID:     "ep-1",
			Date:         "2025-05-10",
			Time:         "10:00",
			Duration:     180,
			TotalMarks:   100,
			PassingMarks: 45,
			Instructions: "Reference materials allowed. No internet access.",
			Status:       model.ExamScheduled,
		},
	}
}

func seedResults() []model.Result {
	return []model.Result{
		{ID: "r-1", ExamID: "exam-1", StudentID: "student-1", StudentName: "John Doe", TotalMarks: 100, ObtainedMarks: 78, Percentage: 78, Status: model.ResultPass},
		{ID: "r-2", ExamID: "exam-1", StudentID: "student-2", StudentName: "Jane Smith", TotalMarks: 100, ObtainedMarks: 92, Percentage: 92, Status: model.ResultPass},
		{ID: "r-3", ExamID: "exam-1", StudentID: "student-3", StudentName: "Bob Wilson", TotalMarks: 100, ObtainedMarks: 35, Percentage: 35, Status: model.ResultFail},
	}
}

func seedNotifications() []model.Notification {
	return []model.Notification{
		{
			ID:        "n-1",
			Type:      model.NotificationExam,
			Title:     "Upcoming Exam",
			Message:   "Mathematics Mid-Term is scheduled for March 15, 2025.",
			Target:    model.TargetAll(),
			CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:        "n-2",
			Type:      model.NotificationResult,
			Title:     "Results Published",
			Message:   "Mathematics Mid-Term results have been published. Check your dashboard.",
			Target:    model.TargetAll(),
			CreatedAt: time.Date(2025, 3, 20, 14, 0, 0, 0, time.UTC),
		},
		{
			ID:        "n-3",
			Type:      model.NotificationGeneral,
			Title:     "Welcome",
			Message:   "Welcome to the Exam Management System!",
			Target:    model.TargetAll(),
			CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}
