package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/course-timetable-api/internal/models"
	appErrors "github.com/noah-isme/course-timetable-api/pkg/errors"
	"github.com/noah-isme/course-timetable-api/pkg/export"
)

type timetableReader interface {
	ListForDepartment(ctx context.Context, departmentID string) ([]models.AssignmentView, error)
	ListForTeacher(ctx context.Context, teacherID string, term models.Term) ([]models.AssignmentView, error)
	ListForStudent(ctx context.Context, studentID string, term models.Term) ([]models.AssignmentView, error)
}

type outcomeSource interface {
	LastOutcome(departmentID string) (models.GenerationOutcome, bool)
	Slots() []string
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type gridRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// Export formats supported by ExportDepartment.
const (
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
	ExportFormatXLSX = "xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportFile is a rendered timetable ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// TimetableServiceConfig tunes the read side.
type TimetableServiceConfig struct {
	CacheTTL time.Duration
	Clock    func() time.Time
}

// TimetableService serves committed timetables. Reads never take the generation lock.
type TimetableService struct {
	schedules   timetableReader
	departments departmentReader
	outcomes    outcomeSource
	cache       *CacheService
	csv         csvRenderer
	pdf         gridRenderer
	xlsx        gridRenderer
	logger      *zap.Logger
	cfg         TimetableServiceConfig
}

// NewTimetableService constructs the read service.
func NewTimetableService(
	schedules timetableReader,
	departments departmentReader,
	outcomes outcomeSource,
	cache *CacheService,
	csv csvRenderer,
	pdf gridRenderer,
	xlsx gridRenderer,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter(true)
	}
	if xlsx == nil {
		xlsx = export.NewXLSXExporter()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &TimetableService{
		schedules:   schedules,
		departments: departments,
		outcomes:    outcomes,
		cache:       cache,
		csv:         csv,
		pdf:         pdf,
		xlsx:        xlsx,
		logger:      logger,
		cfg:         cfg,
	}
}

// DepartmentTimetable lists every session of the department's courses ordered by day and slot.
func (s *TimetableService) DepartmentTimetable(ctx context.Context, departmentID string) ([]models.AssignmentView, error) {
	departmentID = strings.TrimSpace(departmentID)
	if departmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department id is required")
	}
	key := departmentViewKey(departmentID)
	var cached []models.AssignmentView
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	exists, err := s.departments.Exists(ctx, departmentID)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load department")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
	}

	views, err := s.schedules.ListForDepartment(ctx, departmentID)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load department timetable")
	}
	views = nonNilViews(views)
	_ = s.cache.Set(ctx, key, views, s.cfg.CacheTTL)
	return views, nil
}

// TeacherTimetable lists the current term's sessions taught by the teacher with head counts.
func (s *TimetableService) TeacherTimetable(ctx context.Context, teacherID string) ([]models.AssignmentView, error) {
	teacherID = strings.TrimSpace(teacherID)
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	term := models.TermAt(s.cfg.Clock())
	key := teacherViewKey(teacherID, term)
	var cached []models.AssignmentView
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	views, err := s.schedules.ListForTeacher(ctx, teacherID, term)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load teacher timetable")
	}
	views = nonNilViews(views)
	_ = s.cache.Set(ctx, key, views, s.cfg.CacheTTL)
	return views, nil
}

// StudentTimetable lists the sessions of the courses the student is currently enrolled in.
func (s *TimetableService) StudentTimetable(ctx context.Context, studentID string) ([]models.AssignmentView, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	term := models.TermAt(s.cfg.Clock())
	key := studentViewKey(studentID, term)
	var cached []models.AssignmentView
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	views, err := s.schedules.ListForStudent(ctx, studentID, term)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load student timetable")
	}
	views = nonNilViews(views)
	_ = s.cache.Set(ctx, key, views, s.cfg.CacheTTL)
	return views, nil
}

// LastReport returns the latest generation outcome for a department.
func (s *TimetableService) LastReport(ctx context.Context, departmentID string) (*models.GenerationOutcome, error) {
	departmentID = strings.TrimSpace(departmentID)
	if departmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department id is required")
	}
	var outcome models.GenerationOutcome
	if hit, _ := s.cache.Get(ctx, reportKey(departmentID), &outcome); hit {
		return &outcome, nil
	}
	if s.outcomes != nil {
		if local, ok := s.outcomes.LastOutcome(departmentID); ok {
			return &local, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "no generation recorded for department")
}

// Grid returns the teaching days and slot start times used by the generator.
func (s *TimetableService) Grid() models.SlotGrid {
	grid := models.SlotGrid{Days: models.Weekdays}
	if s.outcomes != nil {
		grid.Slots = s.outcomes.Slots()
	}
	return grid
}

// ExportDepartment renders the department timetable as a CSV listing, or as a weekly grid
// in a PDF or XLSX file.
func (s *TimetableService) ExportDepartment(ctx context.Context, departmentID, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF && format != ExportFormatXLSX {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	views, err := s.DepartmentTimetable(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	departmentID = strings.TrimSpace(departmentID)
	stamp := s.cfg.Clock().UTC().Format("20060102")

	title := fmt.Sprintf("%s timetable %s", departmentID, models.TermAt(s.cfg.Clock()))

	switch format {
	case ExportFormatXLSX:
		data, err := s.xlsx.Render(weeklyGridDataset(views, s.Grid().Slots), title)
		if err != nil {
			return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to render timetable workbook")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("timetable-%s-%s.xlsx", departmentID, stamp),
			ContentType: xlsxContentType,
			Data:        data,
		}, nil
	case ExportFormatPDF:
		data, err := s.pdf.Render(weeklyGridDataset(views, s.Grid().Slots), title)
		if err != nil {
			return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to render timetable pdf")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("timetable-%s-%s.pdf", departmentID, stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		data, err := s.csv.Render(listingDataset(views))
		if err != nil {
			return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to render timetable csv")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("timetable-%s-%s.csv", departmentID, stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	}
}

var listingHeaders = []string{"Day", "Slot", "Course", "Title", "Credits", "Room", "Building", "Floor", "Teacher"}

func listingDataset(views []models.AssignmentView) export.Dataset {
	rows := lo.Map(views, func(v models.AssignmentView, _ int) map[string]string {
		return map[string]string{
			"Day":      v.Day.String(),
			"Slot":     v.Slot,
			"Course":   v.CourseCode,
			"Title":    v.CourseTitle,
			"Credits":  fmt.Sprintf("%d", v.Credits),
			"Room":     v.RoomID,
			"Building": v.Building,
			"Floor":    fmt.Sprintf("%d", v.Floor),
			"Teacher":  lo.FromPtrOr(v.TeacherName, ""),
		}
	})
	return export.Dataset{Headers: listingHeaders, Rows: rows}
}

// weeklyGridDataset lays sessions out with one row per slot and one column per day.
func weeklyGridDataset(views []models.AssignmentView, slots []string) export.Dataset {
	headers := append([]string{"Slot"}, lo.Map(models.Weekdays, func(d models.Day, _ int) string { return d.String() })...)
	cells := lo.GroupBy(views, func(v models.AssignmentView) string {
		return v.Day.String() + "|" + v.Slot
	})
	rows := make([]map[string]string, 0, len(slots))
	for _, slot := range slots {
		row := map[string]string{"Slot": slot}
		for _, day := range models.Weekdays {
			sessions := cells[day.String()+"|"+slot]
			row[day.String()] = strings.Join(lo.Map(sessions, func(v models.AssignmentView, _ int) string {
				return fmt.Sprintf("%s %s", v.CourseCode, v.RoomID)
			}), "\n")
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func nonNilViews(views []models.AssignmentView) []models.AssignmentView {
	if views == nil {
		return []models.AssignmentView{}
	}
	return views
}
