package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/course-timetable-api/internal/models"
	"github.com/noah-isme/course-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/course-timetable-api/pkg/errors"
)

type departmentReader interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type courseCatalog interface {
	ListForTermAndDepartment(ctx context.Context, departmentID string, season models.Season) ([]models.Course, error)
}

type roomCatalog interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

type enrollmentIndex interface {
	StudentsEnrolled(ctx context.Context, courseCode string, term models.Term, homeDepartmentID string) ([]string, error)
}

type scheduleWriter interface {
	ClearForDepartment(ctx context.Context, exec sqlx.ExtContext, departmentID string) (int64, error)
	Insert(ctx context.Context, exec sqlx.ExtContext, assignment *models.Assignment) error
	ListOccupied(ctx context.Context, exec sqlx.ExtContext, excludeDepartmentID string, term models.Term, homeDepartmentID string) ([]models.Occupancy, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TimetableGeneratorConfig governs generator behaviour.
type TimetableGeneratorConfig struct {
	Slots        []string
	RunTimeout   time.Duration
	StudentScope string
	// Clock defaults to time.Now and decides the term being scheduled.
	Clock func() time.Time
}

type generateTimetableRequest struct {
	DepartmentID string `validate:"required,max=64"`
}

// TimetableGeneratorService rebuilds a department's weekly timetable in one greedy pass.
type TimetableGeneratorService struct {
	departments departmentReader
	courses     courseCatalog
	rooms       roomCatalog
	enrollments enrollmentIndex
	store       scheduleWriter
	tx          txProvider
	cache       *CacheService
	metrics     *MetricsService
	reports     *reportStore
	locks       *departmentLocks
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         TimetableGeneratorConfig
}

// NewTimetableGeneratorService wires generator dependencies.
func NewTimetableGeneratorService(
	departments departmentReader,
	courses courseCatalog,
	rooms roomCatalog,
	enrollments enrollmentIndex,
	store scheduleWriter,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableGeneratorConfig,
) *TimetableGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Slots) == 0 {
		cfg.Slots = config.DefaultSlots
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 30 * time.Second
	}
	if cfg.StudentScope == "" {
		cfg.StudentScope = config.StudentScopeDepartment
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &TimetableGeneratorService{
		departments: departments,
		courses:     courses,
		rooms:       rooms,
		enrollments: enrollments,
		store:       store,
		tx:          tx,
		cache:       cache,
		metrics:     metrics,
		reports:     newReportStore(timetableReportTTL),
		locks:       newDepartmentLocks(),
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// Slots returns the teaching grid used for placement.
func (s *TimetableGeneratorService) Slots() []string {
	return append([]string(nil), s.cfg.Slots...)
}

// LastOutcome returns the in-memory copy of the latest run for a department.
func (s *TimetableGeneratorService) LastOutcome(departmentID string) (models.GenerationOutcome, bool) {
	return s.reports.Get(departmentID)
}

// Generate clears the department's timetable for the current term and places every
// course it offers. Courses with no admissible (day, slot, room) are reported as
// unplaced; every other failure aborts the run without changing stored assignments.
func (s *TimetableGeneratorService) Generate(ctx context.Context, departmentID string) (*models.GenerationReport, error) {
	departmentID = strings.TrimSpace(departmentID)
	if err := s.validator.Struct(generateTimetableRequest{DepartmentID: departmentID}); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "department id is required")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	begun := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	report, err := s.generateLocked(runCtx, departmentID, s.cfg.Clock())
	elapsed := time.Since(begun)
	if err != nil {
		appErr := s.classify(runCtx, err)
		s.metrics.RecordGenerationFailure(appErr.Code, elapsed)
		s.logger.Error("timetable generation aborted",
			zap.String("department_id", departmentID),
			zap.String("code", appErr.Code),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		if appErr.Code != appErrors.ErrInput.Code && appErr.Code != appErrors.ErrValidation.Code {
			s.remember(ctx, models.GenerationOutcome{
				DepartmentID: departmentID,
				ErrorCode:    appErr.Code,
				ErrorMessage: appErr.Message,
				RecordedAt:   time.Now().UTC(),
			})
		}
		return nil, appErr
	}

	report.Duration = elapsed
	s.metrics.ObserveGeneration(departmentID, report.PlacedCount, len(report.Unplaced), elapsed)
	_ = s.cache.Invalidate(context.WithoutCancel(ctx), timetableViewPattern)
	s.remember(ctx, models.GenerationOutcome{
		DepartmentID: departmentID,
		Report:       report,
		RecordedAt:   time.Now().UTC(),
	})

	s.logger.Info("timetable generated",
		zap.String("department_id", departmentID),
		zap.String("term", report.Term.String()),
		zap.Int("placed", report.PlacedCount),
		zap.Int("unplaced", len(report.Unplaced)),
		zap.Int64("cleared", report.Cleared),
		zap.Int("reserved", report.Reserved),
		zap.Duration("elapsed", elapsed),
	)
	return report, nil
}

func (s *TimetableGeneratorService) generateLocked(ctx context.Context, departmentID string, started time.Time) (*models.GenerationReport, error) {
	release, err := s.locks.Acquire(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("wait for department lock: %w", err)
	}
	defer release()

	term := models.TermAt(started)
	s.logger.Info("timetable generation started",
		zap.String("department_id", departmentID),
		zap.String("term", term.String()),
	)

	courses, rooms, enrolled, err := s.loadInputs(ctx, departmentID, term)
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cleared, err := s.store.ClearForDepartment(ctx, tx, departmentID)
	if err != nil {
		return nil, err
	}

	occupied, err := s.store.ListOccupied(ctx, tx, departmentID, term, s.homeDepartment(departmentID))
	if err != nil {
		return nil, err
	}
	oracle := newConflictOracle(enrolled)
	for _, booked := range occupied {
		oracle.Reserve(booked)
	}

	load := make(map[models.Day]int, len(models.Weekdays))
	report := &models.GenerationReport{
		DepartmentID: departmentID,
		Term:         term,
		Placed:       make([]models.Assignment, 0, len(courses)),
		Unplaced:     []string{},
		Cleared:      cleared,
		Reserved:     len(occupied),
		StartedAt:    started.UTC(),
	}

	for _, course := range courses {
		assignment, err := s.placeCourse(ctx, tx, oracle, load, rooms, course)
		if err != nil {
			return nil, err
		}
		if assignment == nil {
			report.Unplaced = append(report.Unplaced, course.Code)
			s.logger.Warn("course left unplaced",
				zap.String("department_id", departmentID),
				zap.String("course_code", course.Code),
				zap.String("teacher_id", course.Teacher()),
				zap.Int("students", len(enrolled[course.Code])),
			)
			continue
		}
		report.Placed = append(report.Placed, *assignment)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit timetable: %w", err)
	}
	committed = true

	report.PlacedCount = len(report.Placed)
	return report, nil
}

func (s *TimetableGeneratorService) loadInputs(ctx context.Context, departmentID string, term models.Term) ([]models.Course, []models.Room, map[string][]string, error) {
	exists, err := s.departments.Exists(ctx, departmentID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load department: %w", err)
	}
	if !exists {
		return nil, nil, nil, appErrors.Clone(appErrors.ErrInput, fmt.Sprintf("department %s does not exist", departmentID))
	}

	courses, err := s.courses.ListForTermAndDepartment(ctx, departmentID, term.Season)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load courses: %w", err)
	}
	if len(courses) == 0 {
		return nil, nil, nil, appErrors.Clone(appErrors.ErrInput, fmt.Sprintf("department %s offers no courses in %s", departmentID, term))
	}

	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load rooms: %w", err)
	}

	homeDepartment := s.homeDepartment(departmentID)
	enrolled := make(map[string][]string, len(courses))
	for _, course := range courses {
		students, err := s.enrollments.StudentsEnrolled(ctx, course.Code, term, homeDepartment)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load enrollments for %s: %w", course.Code, err)
		}
		enrolled[course.Code] = lo.Uniq(students)
	}
	return courses, rooms, enrolled, nil
}

// homeDepartment is the student filter for the configured scope; "" means every student.
func (s *TimetableGeneratorService) homeDepartment(departmentID string) string {
	if s.cfg.StudentScope == config.StudentScopeDepartment {
		return departmentID
	}
	return ""
}

// placeCourse takes the first admissible candidate in day-by-load, slot, room order.
// A nil assignment with a nil error means the course could not be placed.
func (s *TimetableGeneratorService) placeCourse(ctx context.Context, tx *sqlx.Tx, oracle *conflictOracle, load map[models.Day]int, rooms []models.Room, course models.Course) (*models.Assignment, error) {
	for _, day := range daysByLoad(load) {
		for _, slot := range s.cfg.Slots {
			for _, room := range rooms {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				if !oracle.IsFree(room.ID, day, slot, course) {
					continue
				}
				assignment := models.Assignment{
					CourseCode: course.Code,
					RoomID:     room.ID,
					Day:        day,
					Slot:       slot,
				}
				if err := s.store.Insert(ctx, tx, &assignment); err != nil {
					return nil, err
				}
				oracle.Commit(assignment, course)
				load[day]++
				return &assignment, nil
			}
		}
	}
	return nil, nil
}

// daysByLoad orders the teaching week by current load. Ties keep Monday..Friday order.
func daysByLoad(load map[models.Day]int) []models.Day {
	days := append([]models.Day(nil), models.Weekdays...)
	sort.SliceStable(days, func(i, j int) bool {
		return load[days[i]] < load[days[j]]
	})
	return days
}

func (s *TimetableGeneratorService) classify(ctx context.Context, err error) *appErrors.Error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return appErrors.WrapAs(err, appErrors.ErrTimeout, fmt.Sprintf("timetable generation exceeded %s", s.cfg.RunTimeout))
	case errors.Is(err, models.ErrAssignmentConflict):
		return appErrors.WrapAs(err, appErrors.ErrConflict, "room booked twice during generation")
	default:
		return appErrors.WrapAs(err, appErrors.ErrPersistence, "failed to persist timetable")
	}
}

func (s *TimetableGeneratorService) remember(ctx context.Context, outcome models.GenerationOutcome) {
	s.reports.Save(outcome)
	_ = s.cache.Set(context.WithoutCancel(ctx), reportKey(outcome.DepartmentID), outcome, timetableReportTTL)
}
