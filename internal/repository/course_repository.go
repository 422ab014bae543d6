package repository

import (
	"context"
	"fmt"

	"college/internal/apperr"
	"college/internal/domain"
)

type CourseRepository interface {
	Get(ctx context.Context, courseCode, department string) (domain.Course, error)
	// GetForUpdate locks the course row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, courseCode, department string) (domain.Course, error)
	IncrementTotalClasses(ctx context.Context, courseCode string) (int, error)
	Create(ctx context.Context, course domain.Course) error
}

type CoursePostgresRepository struct {
	execer Execer
}

func NewCoursePostgresRepository(execer Execer) *CoursePostgresRepository {
	return &CoursePostgresRepository{execer: execer}
}

const selectCourse = `
SELECT course_code, total_classes, faculty_name, semester, department
FROM current_courses
WHERE course_code = $1 AND department = $2
`

func (r *CoursePostgresRepository) Get(ctx context.Context, courseCode, department string) (domain.Course, error) {
	return r.get(ctx, selectCourse, courseCode, department)
}

func (r *CoursePostgresRepository) GetForUpdate(ctx context.Context, courseCode, department string) (domain.Course, error) {
	return r.get(ctx, selectCourse+"FOR UPDATE", courseCode, department)
}

func (r *CoursePostgresRepository) get(ctx context.Context, query, courseCode, department string) (domain.Course, error) {
	var course domain.Course
	if err := r.execer.QueryRowContext(ctx, query, courseCode, department).Scan(
		&course.CourseCode,
		&course.TotalClasses,
		&course.FacultyName,
		&course.Semester,
		&course.Department,
	); err != nil {
		return domain.Course{}, err
	}
	return course, nil
}

func (r *CoursePostgresRepository) IncrementTotalClasses(ctx context.Context, courseCode string) (int, error) {
	const query = `
UPDATE current_courses
SET total_classes = total_classes + 1
WHERE course_code = $1
RETURNING total_classes
`

	var total int
	if err := r.execer.QueryRowContext(ctx, query, courseCode).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *CoursePostgresRepository) Create(ctx context.Context, course domain.Course) error {
	const query = `
INSERT INTO current_courses (course_code, total_classes, faculty_name, semester, department)
VALUES ($1, $2, $3, $4, $5)
`

	_, err := r.execer.ExecContext(
		ctx,
		query,
		course.CourseCode,
		course.TotalClasses,
		course.FacultyName,
		course.Semester,
		course.Department,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("course %s: %w", course.CourseCode, apperr.ErrConflict)
	}
	return err
}
