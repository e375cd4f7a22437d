package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/course-timetable-api/internal/models"
)

const uniqueViolation = "23505"

const assignmentViewColumns = `a.id, a.course_code, a.room_id, a.day_of_week, a.slot, a.created_at,
c.title AS course_title, c.credits, c.department_id,
r.building, r.floor, r.capacity,
c.teacher_id, t.full_name AS teacher_name`

const assignmentViewJoins = `FROM schedule_assignments a
JOIN courses c ON c.code = a.course_code
JOIN rooms r ON r.id = a.room_id
LEFT JOIN teachers t ON t.id = c.teacher_id`

// ScheduleRepository stores committed timetable assignments.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ClearForDepartment deletes the assignments of the department's courses and nothing else.
func (r *ScheduleRepository) ClearForDepartment(ctx context.Context, exec sqlx.ExtContext, departmentID string) (int64, error) {
	const query = `DELETE FROM schedule_assignments WHERE course_code IN (SELECT code FROM courses WHERE department_id = $1)`
	res, err := r.exec(exec).ExecContext(ctx, query, departmentID)
	if err != nil {
		return 0, fmt.Errorf("clear department schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear department schedule rows: %w", err)
	}
	return affected, nil
}

// Insert stores a single assignment. A taken (room, day, slot) yields models.ErrAssignmentConflict.
func (r *ScheduleRepository) Insert(ctx context.Context, exec sqlx.ExtContext, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO schedule_assignments (id, course_code, room_id, day_of_week, slot, created_at) VALUES (:id, :course_code, :room_id, :day_of_week, :slot, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, assignment); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("insert schedule assignment %s: %w", assignment.CourseCode, models.ErrAssignmentConflict)
		}
		return fmt.Errorf("insert schedule assignment %s: %w", assignment.CourseCode, err)
	}
	return nil
}

// ListOccupied returns the committed assignments of every department except excludeDepartmentID,
// each with its course teacher and the students currently enrolled in it for the term. A non-empty
// homeDepartmentID keeps only students belonging to that department.
func (r *ScheduleRepository) ListOccupied(ctx context.Context, exec sqlx.ExtContext, excludeDepartmentID string, term models.Term, homeDepartmentID string) ([]models.Occupancy, error) {
	const occupiedQuery = `SELECT a.course_code, a.room_id, a.day_of_week, a.slot, c.teacher_id
FROM schedule_assignments a
JOIN courses c ON c.code = a.course_code
WHERE c.department_id <> $1
ORDER BY a.day_of_week ASC, a.slot ASC, a.room_id ASC`
	var occupied []models.Occupancy
	if err := sqlx.SelectContext(ctx, r.exec(exec), &occupied, occupiedQuery, excludeDepartmentID); err != nil {
		return nil, fmt.Errorf("list occupied slots: %w", err)
	}
	if len(occupied) == 0 {
		return occupied, nil
	}

	studentsQuery := `SELECT e.course_code, e.student_id FROM enrollments e
JOIN students s ON s.id = e.student_id
JOIN courses c ON c.code = e.course_code
WHERE c.department_id <> $1 AND e.year = $2 AND e.term = $3 AND e.grade IS NULL
AND e.course_code IN (SELECT course_code FROM schedule_assignments)`
	args := []interface{}{excludeDepartmentID, term.Year, term.Season}
	if homeDepartmentID != "" {
		studentsQuery += ` AND s.department_id = $4`
		args = append(args, homeDepartmentID)
	}
	studentsQuery += ` ORDER BY e.course_code ASC, e.student_id ASC`

	var rows []struct {
		CourseCode string `db:"course_code"`
		StudentID  string `db:"student_id"`
	}
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rows, studentsQuery, args...); err != nil {
		return nil, fmt.Errorf("list occupied students: %w", err)
	}
	students := make(map[string][]string)
	for _, row := range rows {
		students[row.CourseCode] = append(students[row.CourseCode], row.StudentID)
	}
	for i := range occupied {
		occupied[i].Slot = strings.TrimSpace(occupied[i].Slot)
		occupied[i].Students = students[occupied[i].CourseCode]
	}
	return occupied, nil
}

// ListForDepartment returns the department timetable ordered by day then slot.
func (r *ScheduleRepository) ListForDepartment(ctx context.Context, departmentID string) ([]models.AssignmentView, error) {
	query := `SELECT ` + assignmentViewColumns + `, 0 AS enrolled_count
` + assignmentViewJoins + `
WHERE c.department_id = $1
ORDER BY a.day_of_week ASC, a.slot ASC, a.room_id ASC`
	var views []models.AssignmentView
	if err := r.db.SelectContext(ctx, &views, query, departmentID); err != nil {
		return nil, fmt.Errorf("list department schedule: %w", err)
	}
	return views, nil
}

// ListForTeacher returns the sessions taught by a teacher this term with their head counts.
func (r *ScheduleRepository) ListForTeacher(ctx context.Context, teacherID string, term models.Term) ([]models.AssignmentView, error) {
	query := `SELECT ` + assignmentViewColumns + `,
(SELECT COUNT(*) FROM enrollments e WHERE e.course_code = a.course_code AND e.year = $2 AND e.term = $3) AS enrolled_count
` + assignmentViewJoins + `
WHERE c.teacher_id = $1 AND c.term = $3
ORDER BY a.day_of_week ASC, a.slot ASC, a.room_id ASC`
	var views []models.AssignmentView
	if err := r.db.SelectContext(ctx, &views, query, teacherID, term.Year, term.Season); err != nil {
		return nil, fmt.Errorf("list teacher schedule: %w", err)
	}
	return views, nil
}

// ListForStudent returns the sessions of courses a student is currently enrolled in.
func (r *ScheduleRepository) ListForStudent(ctx context.Context, studentID string, term models.Term) ([]models.AssignmentView, error) {
	query := `SELECT ` + assignmentViewColumns + `, 0 AS enrolled_count
` + assignmentViewJoins + `
JOIN enrollments e ON e.course_code = a.course_code
WHERE e.student_id = $1 AND e.year = $2 AND e.term = $3 AND e.grade IS NULL AND c.term = $3
ORDER BY a.day_of_week ASC, a.slot ASC, a.room_id ASC`
	var views []models.AssignmentView
	if err := r.db.SelectContext(ctx, &views, query, studentID, term.Year, term.Season); err != nil {
		return nil, fmt.Errorf("list student schedule: %w", err)
	}
	return views, nil
}
