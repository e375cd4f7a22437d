package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-timetable-api/internal/dto"
	"github.com/noah-isme/course-timetable-api/internal/models"
	"github.com/noah-isme/course-timetable-api/internal/service"
	appErrors "github.com/noah-isme/course-timetable-api/pkg/errors"
	"github.com/noah-isme/course-timetable-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, departmentID string) (*models.GenerationReport, error)
}

type timetableQuery interface {
	DepartmentTimetable(ctx context.Context, departmentID string) ([]models.AssignmentView, error)
	TeacherTimetable(ctx context.Context, teacherID string) ([]models.AssignmentView, error)
	StudentTimetable(ctx context.Context, studentID string) ([]models.AssignmentView, error)
	LastReport(ctx context.Context, departmentID string) (*models.GenerationOutcome, error)
	ExportDepartment(ctx context.Context, departmentID, format string) (*service.ExportFile, error)
	Grid() models.SlotGrid
}

type timetableBatch interface {
	Enqueue(ctx context.Context, req dto.BatchGenerateRequest) ([]models.BatchJob, error)
	Job(id string) (*models.BatchJob, error)
}

// TimetableHandler exposes timetable generation and read endpoints.
type TimetableHandler struct {
	generator timetableGenerator
	query     timetableQuery
	batch     timetableBatch
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(generator *service.TimetableGeneratorService, query *service.TimetableService, batch *service.TimetableBatchService) *TimetableHandler {
	return &TimetableHandler{generator: generator, query: query, batch: batch}
}

// Generate godoc
// @Summary Regenerate a department timetable
// @Description Clears the department's assignments for the current term and places every course in one greedy pass. Courses that cannot be placed are listed in unplacedCourseCodes.
// @Tags Timetable
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 504 {object} response.Envelope
// @Router /departments/{id}/timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	report, err := h.generator.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewGenerateTimetableResponse(report))
}

// Department godoc
// @Summary Department timetable
// @Tags Timetable
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /departments/{id}/timetable [get]
func (h *TimetableHandler) Department(c *gin.Context) {
	views, err := h.query.DepartmentTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, views, map[string]interface{}{"count": len(views)})
}

// Teacher godoc
// @Summary Teacher timetable for the current term
// @Tags Timetable
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/timetable [get]
func (h *TimetableHandler) Teacher(c *gin.Context) {
	views, err := h.query.TeacherTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, views, map[string]interface{}{"count": len(views)})
}

// Student godoc
// @Summary Student timetable for the current term
// @Tags Timetable
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/timetable [get]
func (h *TimetableHandler) Student(c *gin.Context) {
	views, err := h.query.StudentTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, views, map[string]interface{}{"count": len(views)})
}

// Export godoc
// @Summary Download a department timetable
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Department ID"
// @Param format query string false "csv, pdf or xlsx" default(csv)
// @Success 200 {file} file
// @Router /departments/{id}/timetable/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	file, err := h.query.ExportDepartment(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// Report godoc
// @Summary Last generation outcome for a department
// @Tags Timetable
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /departments/{id}/timetable/report [get]
func (h *TimetableHandler) Report(c *gin.Context) {
	outcome, err := h.query.LastReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, outcome)
}

// Slots godoc
// @Summary Teaching days and slot start times
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetables/slots [get]
func (h *TimetableHandler) Slots(c *gin.Context) {
	response.OK(c, h.query.Grid())
}

// BatchGenerate godoc
// @Summary Regenerate several departments in the background
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.BatchGenerateRequest true "Departments to regenerate"
// @Success 202 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) BatchGenerate(c *gin.Context) {
	var req dto.BatchGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}
	created, err := h.batch.Enqueue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.BatchGenerateResponse{Jobs: created})
}

// BatchJob godoc
// @Summary Status of a background regeneration job
// @Tags Timetable
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/jobs/{jobId} [get]
func (h *TimetableHandler) BatchJob(c *gin.Context) {
	job, err := h.batch.Job(c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, job)
}
