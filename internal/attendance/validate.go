package attendance

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"college/internal/apperr"
)

const dateLayout = "2006-01-02"

var timeSlotPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d-([01]\d|2[0-3]):[0-5]\d$`)

// ParseDate parses an ISO calendar date (YYYY-MM-DD) as midnight UTC.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", value, apperr.ErrInvalidFormat)
	}
	return parsed, nil
}

// ValidTimeSlot reports whether value looks like "HH:MM-HH:MM" on a 24h clock.
func ValidTimeSlot(value string) bool {
	return timeSlotPattern.MatchString(value)
}

func checkTimeSlot(value string) error {
	if !ValidTimeSlot(value) {
		return fmt.Errorf("time slot %q: %w", value, apperr.ErrInvalidFormat)
	}
	return nil
}

// normalizeAbsentees trims ids, drops blanks and duplicates, and sorts the rest.
func normalizeAbsentees(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
