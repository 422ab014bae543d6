package repository

import (
	"context"

	"college/internal/domain"
)

// SessionRepository persists which class meetings have been recorded at least once.
type SessionRepository interface {
	// MarkSeen records key and reports whether it was not recorded before.
	MarkSeen(ctx context.Context, key domain.SessionKey) (bool, error)
}

type SessionPostgresRepository struct {
	execer Execer
}

func NewSessionPostgresRepository(execer Execer) *SessionPostgresRepository {
	return &SessionPostgresRepository{execer: execer}
}

func (r *SessionPostgresRepository) MarkSeen(ctx context.Context, key domain.SessionKey) (bool, error) {
	const query = `
INSERT INTO attendance_sessions (course_code, date, time_slot, first_seen_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (course_code, date, time_slot) DO NOTHING
`

	result, err := r.execer.ExecContext(ctx, query, key.CourseCode, key.Date, key.TimeSlot)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
