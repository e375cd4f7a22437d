package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-timetable-api/internal/dto"
	internalmiddleware "github.com/noah-isme/course-timetable-api/internal/middleware"
	"github.com/noah-isme/course-timetable-api/internal/models"
	"github.com/noah-isme/course-timetable-api/internal/service"
	appErrors "github.com/noah-isme/course-timetable-api/pkg/errors"
)

type generatorMock struct {
	report *models.GenerationReport
	err    error
	called []string
}

func (m *generatorMock) Generate(ctx context.Context, departmentID string) (*models.GenerationReport, error) {
	m.called = append(m.called, departmentID)
	return m.report, m.err
}

type queryMock struct {
	views  []models.AssignmentView
	err    error
	export *service.ExportFile
	format string
}

func (m *queryMock) DepartmentTimetable(ctx context.Context, departmentID string) ([]models.AssignmentView, error) {
	return m.views, m.err
}

func (m *queryMock) TeacherTimetable(ctx context.Context, teacherID string) ([]models.AssignmentView, error) {
	return m.views, m.err
}

func (m *queryMock) StudentTimetable(ctx context.Context, studentID string) ([]models.AssignmentView, error) {
	return m.views, m.err
}

func (m *queryMock) LastReport(ctx context.Context, departmentID string) (*models.GenerationOutcome, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.GenerationOutcome{DepartmentID: departmentID, ErrorCode: appErrors.ErrTimeout.Code}, nil
}

func (m *queryMock) ExportDepartment(ctx context.Context, departmentID, format string) (*service.ExportFile, error) {
	m.format = format
	return m.export, m.err
}

func (m *queryMock) Grid() models.SlotGrid {
	return models.SlotGrid{Days: models.Weekdays, Slots: []string{"09:00", "10:00"}}
}

type batchMock struct {
	req dto.BatchGenerateRequest
}

func (m *batchMock) Enqueue(ctx context.Context, req dto.BatchGenerateRequest) ([]models.BatchJob, error) {
	m.req = req
	jobs := make([]models.BatchJob, 0, len(req.DepartmentIDs))
	for i, id := range req.DepartmentIDs {
		jobs = append(jobs, models.BatchJob{ID: "job-" + string(rune('a'+i)), DepartmentID: id, Status: models.BatchJobQueued})
	}
	return jobs, nil
}

func (m *batchMock) Job(id string) (*models.BatchJob, error) {
	if id != "job-a" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	return &models.BatchJob{ID: id, DepartmentID: "dept-cs", Status: models.BatchJobSucceeded}, nil
}

type fixedValidator struct {
	claims *models.JWTClaims
}

func (v fixedValidator) ValidateToken(string) (*models.JWTClaims, error) {
	return v.claims, nil
}

func newTimetableRouter(h *TimetableHandler, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterTimetableRoutes(router.Group("/api/v1"), h, internalmiddleware.JWT(fixedValidator{claims: claims}))
	return router
}

func do(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer token")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

var adminClaims = &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}

func TestTimetableHandlerGenerate(t *testing.T) {
	gen := &generatorMock{report: &models.GenerationReport{
		DepartmentID: "dept-cs",
		Term:         models.Term{Season: models.SeasonFall, Year: 2026},
		PlacedCount:  1,
		Placed:       []models.Assignment{{CourseCode: "CS101", RoomID: "R1", Day: models.Monday, Slot: "09:00"}},
		Unplaced:     []string{"CS499"},
	}}
	router := newTimetableRouter(&TimetableHandler{generator: gen}, adminClaims)

	w := do(router, http.MethodPost, "/api/v1/departments/dept-cs/timetable/generate", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"dept-cs"}, gen.called)
	var body struct {
		Data dto.GenerateTimetableResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "FALL-2026", body.Data.Term)
	assert.Equal(t, []string{"CS499"}, body.Data.Unplaced)
	assert.Equal(t, models.Monday, body.Data.Placed[0].Day)
}

func TestTimetableHandlerGenerateErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"input", appErrors.Clone(appErrors.ErrInput, "department has no courses"), http.StatusUnprocessableEntity, appErrors.ErrInput.Code},
		{"malformed id", appErrors.Clone(appErrors.ErrValidation, "department id is required"), http.StatusBadRequest, appErrors.ErrValidation.Code},
		{"conflict", appErrors.Clone(appErrors.ErrConflict, ""), http.StatusConflict, appErrors.ErrConflict.Code},
		{"timeout", appErrors.Clone(appErrors.ErrTimeout, ""), http.StatusGatewayTimeout, appErrors.ErrTimeout.Code},
		{"persistence", appErrors.Clone(appErrors.ErrPersistence, ""), http.StatusInternalServerError, appErrors.ErrPersistence.Code},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, appErrors.ErrInternal.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTimetableRouter(&TimetableHandler{generator: &generatorMock{err: tc.err}}, adminClaims)
			w := do(router, http.MethodPost, "/api/v1/departments/dept-cs/timetable/generate", nil)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decodeError(t, w))
		})
	}
}

func TestTimetableHandlerGenerateRequiresAdmin(t *testing.T) {
	gen := &generatorMock{}
	router := newTimetableRouter(&TimetableHandler{generator: gen}, &models.JWTClaims{UserID: "t-1", Role: models.RoleTeacher})

	w := do(router, http.MethodPost, "/api/v1/departments/dept-cs/timetable/generate", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, gen.called)

	matchingID := newTimetableRouter(&TimetableHandler{generator: gen}, &models.JWTClaims{UserID: "dept-cs", Role: models.RoleTeacher})
	w = do(matchingID, http.MethodPost, "/api/v1/departments/dept-cs/timetable/generate", nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "generation has no owner access")
	assert.Empty(t, gen.called)
}

func TestTimetableHandlerRequiresToken(t *testing.T) {
	router := newTimetableRouter(&TimetableHandler{query: &queryMock{}}, adminClaims)
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/departments/dept-cs/timetable", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTimetableHandlerDepartmentListing(t *testing.T) {
	views := []models.AssignmentView{{Assignment: models.Assignment{CourseCode: "CS101", Day: models.Monday, Slot: "09:00"}}}
	router := newTimetableRouter(&TimetableHandler{query: &queryMock{views: views}}, &models.JWTClaims{UserID: "s-1", Role: models.RoleStudent})

	w := do(router, http.MethodGet, "/api/v1/departments/dept-cs/timetable", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []models.AssignmentView `json:"data"`
		Meta map[string]interface{}  `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body.Meta["count"])
	assert.Equal(t, "CS101", body.Data[0].CourseCode)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestTimetableHandlerDepartmentNotFound(t *testing.T) {
	router := newTimetableRouter(&TimetableHandler{query: &queryMock{err: appErrors.Clone(appErrors.ErrNotFound, "department not found")}}, adminClaims)
	w := do(router, http.MethodGet, "/api/v1/departments/nope/timetable", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerPersonalTimetablesSelfOnly(t *testing.T) {
	h := &TimetableHandler{query: &queryMock{views: []models.AssignmentView{}}}
	teacher := newTimetableRouter(h, &models.JWTClaims{UserID: "t-1", Role: models.RoleTeacher})

	assert.Equal(t, http.StatusOK, do(teacher, http.MethodGet, "/api/v1/teachers/t-1/timetable", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(teacher, http.MethodGet, "/api/v1/teachers/t-2/timetable", nil).Code)

	student := newTimetableRouter(h, &models.JWTClaims{UserID: "s-1", Role: models.RoleStudent})
	assert.Equal(t, http.StatusOK, do(student, http.MethodGet, "/api/v1/students/s-1/timetable", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(student, http.MethodGet, "/api/v1/students/s-2/timetable", nil).Code)

	admin := newTimetableRouter(h, adminClaims)
	assert.Equal(t, http.StatusOK, do(admin, http.MethodGet, "/api/v1/students/s-2/timetable", nil).Code)
}

func TestTimetableHandlerExport(t *testing.T) {
	query := &queryMock{export: &service.ExportFile{Filename: "timetable-dept-cs-20261005.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")}}
	router := newTimetableRouter(&TimetableHandler{query: query}, adminClaims)

	w := do(router, http.MethodGet, "/api/v1/departments/dept-cs/timetable/export?format=pdf", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pdf", query.format)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="timetable-dept-cs-20261005.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3", w.Body.String())
}

func TestTimetableHandlerExportDefaultsToCSV(t *testing.T) {
	query := &queryMock{export: &service.ExportFile{Filename: "t.csv", ContentType: "text/csv"}}
	router := newTimetableRouter(&TimetableHandler{query: query}, adminClaims)
	do(router, http.MethodGet, "/api/v1/departments/dept-cs/timetable/export", nil)
	assert.Equal(t, service.ExportFormatCSV, query.format)
}

func TestTimetableHandlerReportAndSlots(t *testing.T) {
	router := newTimetableRouter(&TimetableHandler{query: &queryMock{}}, adminClaims)

	w := do(router, http.MethodGet, "/api/v1/departments/dept-cs/timetable/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"error_code":"TIMEOUT"`)

	w = do(router, http.MethodGet, "/api/v1/timetables/slots", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"days":["MONDAY","TUESDAY","WEDNESDAY","THURSDAY","FRIDAY"],"slots":["09:00","10:00"]}}`, w.Body.String())
}

func TestTimetableHandlerBatch(t *testing.T) {
	batch := &batchMock{}
	router := newTimetableRouter(&TimetableHandler{batch: batch}, adminClaims)

	w := do(router, http.MethodPost, "/api/v1/timetables/generate", []byte(`{"departmentIds":["dept-cs","dept-math"]}`))
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"dept-cs", "dept-math"}, batch.req.DepartmentIDs)

	var body struct {
		Data dto.BatchGenerateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Jobs, 2)
	assert.Equal(t, models.BatchJobQueued, body.Data.Jobs[0].Status)

	w = do(router, http.MethodGet, "/api/v1/timetables/jobs/job-a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(router, http.MethodGet, "/api/v1/timetables/jobs/job-z", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerBatchMalformedBody(t *testing.T) {
	router := newTimetableRouter(&TimetableHandler{batch: &batchMock{}}, adminClaims)
	w := do(router, http.MethodPost, "/api/v1/timetables/generate", []byte(`{"departmentIds":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeError(t, w))
}

type pingerStub struct{ err error }

func (p pingerStub) PingContext(context.Context) error { return p.err }

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ready", NewMetricsHandler(nil, pingerStub{err: errors.New("down")}).Ready)
	router.GET("/ok", NewMetricsHandler(nil, pingerStub{}).Ready)
	router.GET("/metrics", NewMetricsHandler(nil, nil).Prometheus)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
