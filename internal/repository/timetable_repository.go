package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"college/internal/domain"
)

type TimetableRepository interface {
	// InsertIfAbsent stores entry unless (semester, department, day) is taken.
	InsertIfAbsent(ctx context.Context, entry domain.TimetableEntry) (bool, error)
	ListBySemesterDepartment(ctx context.Context, semester int, department string) ([]domain.TimetableEntry, error)
}

type TimetablePostgresRepository struct {
	execer Execer
}

func NewTimetablePostgresRepository(execer Execer) *TimetablePostgresRepository {
	return &TimetablePostgresRepository{execer: execer}
}

func (r *TimetablePostgresRepository) InsertIfAbsent(ctx context.Context, entry domain.TimetableEntry) (bool, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	const query = `
INSERT INTO timetables (
	id,
	semester,
	department,
	day,
	slot_1,
	slot_2,
	slot_3,
	slot_4,
	slot_5,
	slot_6,
	slot_7,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
ON CONFLICT (semester, department, day) DO NOTHING
`

	args := []any{entry.ID, entry.Semester, entry.Department, entry.Day}
	for _, slot := range entry.Slots {
		args = append(args, nullableString(slot))
	}

	result, err := r.execer.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *TimetablePostgresRepository) ListBySemesterDepartment(ctx context.Context, semester int, department string) ([]domain.TimetableEntry, error) {
	const query = `
SELECT id, semester, department, day, slot_1, slot_2, slot_3, slot_4, slot_5, slot_6, slot_7
FROM timetables
WHERE semester = $1 AND department = $2
`

	rows, err := r.execer.QueryContext(ctx, query, semester, department)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.TimetableEntry
	for rows.Next() {
		var entry domain.TimetableEntry
		var slots [domain.SlotCount]sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.Semester,
			&entry.Department,
			&entry.Day,
			&slots[0],
			&slots[1],
			&slots[2],
			&slots[3],
			&slots[4],
			&slots[5],
			&slots[6],
		); err != nil {
			return nil, err
		}
		for i, slot := range slots {
			if slot.Valid {
				value := slot.String
				entry.Slots[i] = &value
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
