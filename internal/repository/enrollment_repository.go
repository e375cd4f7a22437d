package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-timetable-api/internal/models"
)

// EnrollmentRepository indexes course registrations.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// StudentsEnrolled lists students currently enrolled (no final grade yet) in the course for the term.
// A non-empty homeDepartmentID keeps only students belonging to that department.
func (r *EnrollmentRepository) StudentsEnrolled(ctx context.Context, courseCode string, term models.Term, homeDepartmentID string) ([]string, error) {
	query := `SELECT e.student_id FROM enrollments e
JOIN students s ON s.id = e.student_id
WHERE e.course_code = $1 AND e.year = $2 AND e.term = $3 AND e.grade IS NULL`
	args := []interface{}{courseCode, term.Year, term.Season}
	if homeDepartmentID != "" {
		query += ` AND s.department_id = $4`
		args = append(args, homeDepartmentID)
	}
	query += ` ORDER BY e.student_id ASC`

	var students []string
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list enrolled students: %w", err)
	}
	return students, nil
}
