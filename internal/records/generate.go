package records

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"

	"github.com/pavelanni/examdash/internal/latency"
	"github.com/pavelanni/examdash/internal/model"
)

// ScoreGenerator produces the obtained marks for one student.
type ScoreGenerator interface {
	Score(totalMarks int) int
}

// RandomScores draws uniformly from [30%, 90%) of the mark range.
type RandomScores struct{}

func (RandomScores) Score(totalMarks int) int {
	t := float64(totalMarks)
	return int(math.Floor(rand.Float64()*t*0.6)) + int(math.Floor(t*0.3))
}

// GenerateResults grades the roster for a completed exam, replacing any
// earlier results, publishes the exam and announces it to all students.
// Unknown exams are ignored. Concurrent calls for one exam share a run; a
// caller whose ctx ends stops waiting but the shared run still completes.
func (s *Store) GenerateResults(ctx context.Context, examID string) ([]model.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	run := context.WithoutCancel(ctx)
	ch := s.group.DoChan(examID, func() (any, error) {
		return s.generate(run, examID)
	})

	select {
	case <-ctx.Done():
		slog.Info("stopped waiting for result generation", "exam_id", examID, "error", ctx.Err())
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			slog.Debug("joined in-flight result generation", "exam_id", examID)
		}
		results, _ := res.Val.([]model.Result)
		return slices.Clone(results), nil
	}
}

func (s *Store) generate(ctx context.Context, examID string) ([]model.Result, error) {
	if err := latency.Wait(ctx, s.opts.Latency); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.Exams.index(examID)
	if i < 0 {
		slog.Info("result generation skipped", "exam_id", examID, "reason", "unknown exam")
		return nil, nil
	}
	exam := s.Exams.items[i]
	if exam.Status == model.ExamScheduled {
		return nil, fmt.Errorf("generate results for %s: %w", examID, ErrExamNotCompleted)
	}

	results := make([]model.Result, 0, len(s.opts.Roster))
	for _, st := range s.opts.Roster {
		obtained := min(max(s.opts.Scores.Score(exam.TotalMarks), 0), exam.TotalMarks)
		results = append(results, model.Result{
			ID:            "r-" + uuid.NewString(),
			ExamID:        examID,
			StudentID:     st.ID,
			StudentName:   st.Name,
			TotalMarks:    exam.TotalMarks,
			ObtainedMarks: obtained,
			Percentage:    percentage(obtained, exam.TotalMarks),
			Status:        status(obtained, exam.PassingMarks),
		})
	}

	s.Results.items = slices.DeleteFunc(s.Results.items, func(r model.Result) bool {
		return r.ExamID == examID
	})
	s.Results.items = append(s.Results.items, results...)
	s.Exams.items[i].Status = model.ExamResultsPublished
	s.Notifications.items = append(s.Notifications.items, model.Notification{
		ID:        "n-" + uuid.NewString(),
		Type:      model.NotificationResult,
		Title:     "Results Published",
		Message:   fmt.Sprintf("Results for \"%s\" have been published.", exam.Title),
		Target:    model.TargetAll(),
		CreatedAt: s.opts.Now(),
	})

	s.persist(KeyResults, s.Results.items)
	s.persist(KeyExams, s.Exams.items)
	s.persist(KeyNotifications, s.Notifications.items)
	slog.Info("results published", "exam_id", examID, "title", exam.Title, "count", len(results))
	return results, nil
}

func percentage(obtained, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(obtained) / float64(total) * 100))
}

func status(obtained, passing int) model.ResultStatus {
	if obtained >= passing {
		return model.ResultPass
	}
	return model.ResultFail
}
