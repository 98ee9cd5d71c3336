package records

import (
	"fmt"

	"github.com/pavelanni/examdash/internal/model"
)

// Export builds the results export for one exam.
func (s *Store) Export(examID string) (*model.ResultsExport, error) {
	exam, ok := s.Exams.Get(examID)
	if !ok {
		return nil, fmt.Errorf("export exam %s: %w", examID, ErrNotFound)
	}
	results := s.ResultsForExam(examID)
	if results == nil {
		results = []model.Result{}
	}
	return &model.ResultsExport{
		ExamID:       exam.ID,
		Title:        exam.Title,
		Subject:      s.SubjectName(exam.SubjectID),
		Period:       s.PeriodName(exam.PeriodID),
		Date:         exam.Date,
		Status:       exam.Status,
		TotalMarks:   exam.TotalMarks,
		PassingMarks: exam.PassingMarks,
		ExportedAt:   s.opts.Now().UTC(),
		Summary:      model.Summarize(results),
		Results:      results,
	}, nil
}
