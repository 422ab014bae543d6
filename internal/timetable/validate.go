package timetable

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"college/internal/apperr"
	"college/internal/domain"
)

const (
	minSemester = 1
	maxSemester = 8
	maxSlotLen  = 5
)

var weekdayOrder = map[string]int{
	"monday":    1,
	"tuesday":   2,
	"wednesday": 3,
	"thursday":  4,
	"friday":    5,
	"saturday":  6,
	"sunday":    7,
}

func invalidField(field, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", field, fmt.Sprintf(format, args...), apperr.ErrInvalidField)
}

func checkSemester(semester int) error {
	if semester == 0 {
		return invalidField("semester", "is required")
	}
	if semester < minSemester || semester > maxSemester {
		return invalidField("semester", "must be between %d and %d, got %d", minSemester, maxSemester, semester)
	}
	return nil
}

func (s *Service) canonicalDepartment(department string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(department))
	if code == "" {
		return "", invalidField("department", "is required")
	}
	if _, ok := s.departments[code]; !ok {
		return "", invalidField("department", "%q is not a recognised department", department)
	}
	return code, nil
}

func canonicalDay(day string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(day))
	if name == "" {
		return "", invalidField("day", "is required")
	}
	if _, ok := weekdayOrder[name]; !ok {
		return "", invalidField("day", "%q is not a weekday", day)
	}
	return name, nil
}

// validate checks entry field by field and returns it in canonical form:
// department upper-case, day lower-case, slots untouched.
func (s *Service) validate(entry domain.TimetableEntry) (domain.TimetableEntry, error) {
	if err := checkSemester(entry.Semester); err != nil {
		return domain.TimetableEntry{}, err
	}
	department, err := s.canonicalDepartment(entry.Department)
	if err != nil {
		return domain.TimetableEntry{}, err
	}
	day, err := canonicalDay(entry.Day)
	if err != nil {
		return domain.TimetableEntry{}, err
	}
	for i, slot := range entry.Slots {
		if slot != nil && utf8.RuneCountInString(*slot) > maxSlotLen {
			return domain.TimetableEntry{}, invalidField(fmt.Sprintf("slot_%d", i+1), "longer than %d characters", maxSlotLen)
		}
	}

	entry.Department = department
	entry.Day = day
	return entry, nil
}
