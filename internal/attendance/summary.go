package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"college/internal/apperr"
	"college/internal/metrics"
	"college/internal/repository"
)

// StudentAbsence is one student's standing in a course.
type StudentAbsence struct {
	RollNo     string  `json:"roll_no"`
	Absences   int     `json:"absences"`
	Percentage float64 `json:"attendance_percentage"`
}

// Summary aggregates the absences recorded for a course.
type Summary struct {
	CourseCode   string           `json:"course_code"`
	Department   string           `json:"department"`
	TotalClasses int              `json:"total_classes"`
	Students     []StudentAbsence `json:"students"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// SummaryCache stores computed summaries between reconciliations.
type SummaryCache interface {
	Get(ctx context.Context, courseCode, department string) (Summary, bool, error)
	Set(ctx context.Context, summary Summary) error
	Invalidate(ctx context.Context, courseCode, department string) error
}

// Summary returns the attendance summary for a course, served from the cache
// when a fresh copy is available.
func (s *Service) Summary(ctx context.Context, courseCode, department string) (Summary, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, courseCode, department)
		switch {
		case err != nil:
			metrics.SummaryCache.WithLabelValues("error").Inc()
			log.Printf("summary cache get %s/%s failed: %v", department, courseCode, err)
		case ok:
			metrics.SummaryCache.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.SummaryCache.WithLabelValues("miss").Inc()
		}
	}
	return s.RefreshSummary(ctx, courseCode, department)
}

// RefreshSummary recomputes the summary from the store and caches it.
func (s *Service) RefreshSummary(ctx context.Context, courseCode, department string) (Summary, error) {
	var summary Summary
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		course, err := repos.Courses.Get(ctx, courseCode, department)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("course %q in department %q: %w", courseCode, department, apperr.ErrNotFound)
			}
			return err
		}
		counts, err := repos.Absences.CountByCourse(ctx, course.CourseCode)
		if err != nil {
			return err
		}
		summary = buildSummary(course.CourseCode, course.Department, course.TotalClasses, counts)
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	summary.GeneratedAt = s.clock().UTC()

	if s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			log.Printf("summary cache set %s/%s failed: %v", department, courseCode, err)
		}
	}
	return summary, nil
}

func buildSummary(courseCode, department string, totalClasses int, counts map[string]int) Summary {
	students := make([]StudentAbsence, 0, len(counts))
	for rollNo, absences := range counts {
		students = append(students, StudentAbsence{
			RollNo:     rollNo,
			Absences:   absences,
			Percentage: attendancePercentage(totalClasses, absences),
		})
	}
	sort.Slice(students, func(i, j int) bool { return students[i].RollNo < students[j].RollNo })

	return Summary{
		CourseCode:   courseCode,
		Department:   department,
		TotalClasses: totalClasses,
		Students:     students,
	}
}

func attendancePercentage(totalClasses, absences int) float64 {
	if totalClasses <= 0 {
		return 100
	}
	attended := totalClasses - absences
	if attended < 0 {
		attended = 0
	}
	return float64(attended) * 100 / float64(totalClasses)
}
