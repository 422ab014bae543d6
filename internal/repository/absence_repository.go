package repository

import (
	"context"

	"github.com/google/uuid"

	"college/internal/domain"
)

type AbsenceRepository interface {
	ListBySession(ctx context.Context, key domain.SessionKey) ([]domain.Absence, error)
	Insert(ctx context.Context, absence domain.Absence) error
	Delete(ctx context.Context, key domain.SessionKey, rollNo string) error
	// CountByCourse returns the number of recorded absences per roll number.
	CountByCourse(ctx context.Context, courseCode string) (map[string]int, error)
}

type AbsencePostgresRepository struct {
	execer Execer
}

func NewAbsencePostgresRepository(execer Execer) *AbsencePostgresRepository {
	return &AbsencePostgresRepository{execer: execer}
}

func (r *AbsencePostgresRepository) ListBySession(ctx context.Context, key domain.SessionKey) ([]domain.Absence, error) {
	const query = `
SELECT id, course_code, date, time_slot, roll_no
FROM absentees
WHERE course_code = $1 AND date = $2 AND time_slot = $3
ORDER BY roll_no ASC
`

	rows, err := r.execer.QueryContext(ctx, query, key.CourseCode, key.Date, key.TimeSlot)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var absences []domain.Absence
	for rows.Next() {
		var absence domain.Absence
		if err := rows.Scan(
			&absence.ID,
			&absence.CourseCode,
			&absence.Date,
			&absence.TimeSlot,
			&absence.RollNo,
		); err != nil {
			return nil, err
		}
		absences = append(absences, absence)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return absences, nil
}

func (r *AbsencePostgresRepository) Insert(ctx context.Context, absence domain.Absence) error {
	if absence.ID == "" {
		absence.ID = uuid.NewString()
	}

	const query = `
INSERT INTO absentees (id, course_code, date, time_slot, roll_no, created_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (course_code, date, time_slot, roll_no) DO NOTHING
`

	_, err := r.execer.ExecContext(
		ctx,
		query,
		absence.ID,
		absence.CourseCode,
		absence.Date,
		absence.TimeSlot,
		absence.RollNo,
	)
	return err
}

func (r *AbsencePostgresRepository) Delete(ctx context.Context, key domain.SessionKey, rollNo string) error {
	const query = `
DELETE FROM absentees
WHERE course_code = $1 AND date = $2 AND time_slot = $3 AND roll_no = $4
`

	_, err := r.execer.ExecContext(ctx, query, key.CourseCode, key.Date, key.TimeSlot, rollNo)
	return err
}

func (r *AbsencePostgresRepository) CountByCourse(ctx context.Context, courseCode string) (map[string]int, error) {
	const query = `
SELECT roll_no, count(*)
FROM absentees
WHERE course_code = $1
GROUP BY roll_no
`

	rows, err := r.execer.QueryContext(ctx, query, courseCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var rollNo string
		var count int
		if err := rows.Scan(&rollNo, &count); err != nil {
			return nil, err
		}
		counts[rollNo] = count
	}
	return counts, rows.Err()
}
