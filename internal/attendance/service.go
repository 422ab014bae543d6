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
	"college/internal/domain"
	"college/internal/metrics"
	"college/internal/repository"
)

// Submission is one attendance sheet sent by faculty for a class meeting.
type Submission struct {
	CourseCode string
	Department string
	Date       string
	TimeSlot   string
	Absentees  []string
}

// Result describes the stored state after a submission was applied.
type Result struct {
	CourseCode   string
	Date         string
	TimeSlot     string
	Absentees    []string
	Added        int
	Removed      int
	TotalClasses int
	NewSession   bool
}

// Service reconciles absence records and maintains per-course class counts.
type Service struct {
	txManager repository.TxManager
	cache     SummaryCache
	clock     func() time.Time
}

// NewService creates a service backed by a transactional store. cache may be nil.
func NewService(txManager repository.TxManager, cache SummaryCache) *Service {
	return &Service{txManager: txManager, cache: cache, clock: time.Now}
}

// Reconcile makes the stored absentees of the submission's class meeting
// equal to sub.Absentees. total_classes grows by one only the first time a
// meeting is recorded; resubmitting the same meeting never counts it again.
func (s *Service) Reconcile(ctx context.Context, sub Submission) (Result, error) {
	var result Result
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		course, err := repos.Courses.GetForUpdate(ctx, sub.CourseCode, sub.Department)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("course %q in department %q: %w", sub.CourseCode, sub.Department, apperr.ErrNotFound)
			}
			return err
		}

		date, err := ParseDate(sub.Date)
		if err != nil {
			return err
		}
		if err := checkTimeSlot(sub.TimeSlot); err != nil {
			return err
		}

		key := domain.SessionKey{CourseCode: course.CourseCode, Date: date, TimeSlot: sub.TimeSlot}
		wanted := normalizeAbsentees(sub.Absentees)

		stored, err := repos.Absences.ListBySession(ctx, key)
		if err != nil {
			return err
		}
		existing := make(map[string]struct{}, len(stored))
		for _, absence := range stored {
			existing[absence.RollNo] = struct{}{}
		}

		firstSeen, err := repos.Sessions.MarkSeen(ctx, key)
		if err != nil {
			return err
		}

		result = Result{
			CourseCode:   course.CourseCode,
			Date:         key.DateString(),
			TimeSlot:     key.TimeSlot,
			Absentees:    wanted,
			TotalClasses: course.TotalClasses,
		}

		// rows recorded before session markers existed already count as held
		if firstSeen && len(existing) == 0 {
			total, err := repos.Courses.IncrementTotalClasses(ctx, course.CourseCode)
			if err != nil {
				return err
			}
			result.TotalClasses = total
			result.NewSession = true
		}

		toAdd, toRemove := diff(wanted, existing)
		for _, rollNo := range toAdd {
			if err := repos.Absences.Insert(ctx, domain.Absence{
				CourseCode: key.CourseCode,
				Date:       key.Date,
				TimeSlot:   key.TimeSlot,
				RollNo:     rollNo,
			}); err != nil {
				return err
			}
		}
		for _, rollNo := range toRemove {
			if err := repos.Absences.Delete(ctx, key, rollNo); err != nil {
				return err
			}
		}
		result.Added = len(toAdd)
		result.Removed = len(toRemove)
		return nil
	})

	metrics.Reconciliations.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		return Result{}, err
	}

	if result.NewSession {
		metrics.SessionsOpened.Inc()
	}
	metrics.AbsenceChanges.WithLabelValues("insert").Add(float64(result.Added))
	metrics.AbsenceChanges.WithLabelValues("delete").Add(float64(result.Removed))

	if s.cache != nil && (result.NewSession || result.Added > 0 || result.Removed > 0) {
		if err := s.cache.Invalidate(ctx, sub.CourseCode, sub.Department); err != nil {
			log.Printf("summary cache invalidate %s/%s failed: %v", sub.Department, sub.CourseCode, err)
		}
	}

	return result, nil
}

// Absentees lists the roll numbers recorded absent for one class meeting.
func (s *Service) Absentees(ctx context.Context, courseCode, date, timeSlot string) ([]string, error) {
	parsed, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	if err := checkTimeSlot(timeSlot); err != nil {
		return nil, err
	}

	key := domain.SessionKey{CourseCode: courseCode, Date: parsed, TimeSlot: timeSlot}
	rollNos := []string{}
	err = s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		absences, err := repos.Absences.ListBySession(ctx, key)
		if err != nil {
			return err
		}
		for _, absence := range absences {
			rollNos = append(rollNos, absence.RollNo)
		}
		return nil
	})
	return rollNos, err
}

// diff returns the ids of wanted missing from existing, and the ids of
// existing missing from wanted, both sorted.
func diff(wanted []string, existing map[string]struct{}) (toAdd, toRemove []string) {
	keep := make(map[string]struct{}, len(wanted))
	for _, id := range wanted {
		keep[id] = struct{}{}
		if _, ok := existing[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	for id := range existing {
		if _, ok := keep[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	sort.Strings(toRemove)
	return toAdd, toRemove
}
