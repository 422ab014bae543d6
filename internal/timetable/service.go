// Package timetable creates weekly timetable rows, one per semester,
// department and day.
package timetable

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"college/internal/apperr"
	"college/internal/domain"
	"college/internal/metrics"
	"college/internal/repository"
)

type Service struct {
	txManager   repository.TxManager
	departments map[string]struct{}
}

// NewService accepts department codes case-insensitively.
func NewService(txManager repository.TxManager, departments []string) *Service {
	set := make(map[string]struct{}, len(departments))
	for _, d := range departments {
		if d = strings.ToUpper(strings.TrimSpace(d)); d != "" {
			set[d] = struct{}{}
		}
	}
	return &Service{txManager: txManager, departments: set}
}

// ValidateAndCreate stores entry unless it is invalid or its
// (semester, department, day) is already taken. Existing rows are never
// overwritten.
func (s *Service) ValidateAndCreate(ctx context.Context, entry domain.TimetableEntry) (domain.TimetableEntry, error) {
	created, err := s.create(ctx, entry)
	metrics.TimetableCreations.WithLabelValues(metrics.Outcome(err)).Inc()
	return created, err
}

func (s *Service) create(ctx context.Context, entry domain.TimetableEntry) (domain.TimetableEntry, error) {
	entry, err := s.validate(entry)
	if err != nil {
		return domain.TimetableEntry{}, err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		inserted, err := repos.Timetables.InsertIfAbsent(ctx, entry)
		if err != nil {
			return err
		}
		if !inserted {
			return fmt.Errorf("timetable for semester %d %s %s: %w", entry.Semester, entry.Department, entry.Day, apperr.ErrConflict)
		}
		return nil
	})
	if err != nil {
		return domain.TimetableEntry{}, err
	}
	return entry, nil
}

// List returns the week for one semester and department, Monday first.
func (s *Service) List(ctx context.Context, semester int, department string) ([]domain.TimetableEntry, error) {
	if err := checkSemester(semester); err != nil {
		return nil, err
	}
	code, err := s.canonicalDepartment(department)
	if err != nil {
		return nil, err
	}

	var entries []domain.TimetableEntry
	err = s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		entries, err = repos.Timetables.ListBySemesterDepartment(ctx, semester, code)
		return err
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return weekdayOrder[entries[i].Day] < weekdayOrder[entries[j].Day]
	})
	return entries, nil
}
