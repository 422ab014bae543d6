package repository

import (
	"context"
	"database/sql"
)

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxRepositories are bound to one transaction; they must not escape fn.
type TxRepositories struct {
	Courses    CourseRepository
	Absences   AbsenceRepository
	Sessions   SessionRepository
	Timetables TimetableRepository
	Accounts   AccountRepository
}

type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}

type PostgresTxManager struct {
	db *sql.DB
}

func NewPostgresTxManager(db *sql.DB) *PostgresTxManager {
	return &PostgresTxManager{db: db}
}

func (m *PostgresTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}

	repos := TxRepositories{
		Courses:    NewCoursePostgresRepository(tx),
		Absences:   NewAbsencePostgresRepository(tx),
		Sessions:   NewSessionPostgresRepository(tx),
		Timetables: NewTimetablePostgresRepository(tx),
		Accounts:   NewAccountPostgresRepository(tx),
	}

	if err := fn(ctx, repos); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return rollbackErr
		}
		return err
	}

	return tx.Commit()
}
