package model

import "time"

// ResultsExport is the top-level JSON structure for exam result export.
type ResultsExport struct {
	ExamID       string     `json:"exam_id"`
	Title        string     `json:"title"`
	Subject      string     `json:"subject"`
	Period       string     `json:"period"`
	Date         string     `json:"date"`
	Status       ExamStatus `json:"status"`
	TotalMarks   int        `json:"total_marks"`
	PassingMarks int        `json:"passing_marks"`
	ExportedAt   time.Time  `json:"exported_at"`
	Summary      Summary    `json:"summary"`
	Results      []Result   `json:"results"`
}

// Summary aggregates the results of one exam.
type Summary struct {
	Count             int     `json:"count"`
	Passed            int     `json:"passed"`
	Failed            int     `json:"failed"`
	AveragePercentage float64 `json:"average_percentage"`
}

// Summarize computes pass/fail counts and the mean percentage of results.
func Summarize(results []Result) Summary {
	var s Summary
	total := 0
	for _, r := range results {
		s.Count++
		total += r.Percentage
		if r.Status == ResultPass {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	if s.Count > 0 {
		s.AveragePercentage = float64(total) / float64(s.Count)
	}
	return s
}
