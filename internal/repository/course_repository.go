package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-timetable-api/internal/models"
)

// CourseRepository reads the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListForTermAndDepartment returns the department's courses for a season ordered by code.
func (r *CourseRepository) ListForTermAndDepartment(ctx context.Context, departmentID string, season models.Season) ([]models.Course, error) {
	const query = `SELECT c.code, c.title, c.credits, c.department_id, c.term, c.mandatory, c.teacher_id, t.full_name AS teacher_name
FROM courses c
LEFT JOIN teachers t ON t.id = c.teacher_id
WHERE c.department_id = $1 AND c.term = $2
ORDER BY c.code ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, departmentID, season); err != nil {
		return nil, fmt.Errorf("list courses for department term: %w", err)
	}
	return courses, nil
}
