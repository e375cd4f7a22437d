package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-timetable-api/internal/models"
	"github.com/noah-isme/course-timetable-api/internal/service"
	appErrors "github.com/noah-isme/course-timetable-api/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
}

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

func newProtectedRouter(claims *models.JWTClaims, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/teachers/:id/timetable", JWT(validatorStub{claims: claims}), RBAC(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func serve(r *gin.Engine, path, auth string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r.ServeHTTP(w, req)
	return w.Code
}

func TestJWTRequiresBearerToken(t *testing.T) {
	r := newProtectedRouter(&models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, string(models.RoleAdmin))

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/teachers/t-1/timetable", ""))
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/teachers/t-1/timetable", "Basic abc"))
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/teachers/t-1/timetable", "Bearer bad"))
	assert.Equal(t, http.StatusOK, serve(r, "/teachers/t-1/timetable", "Bearer good"))
}

func TestRBACSelfAccess(t *testing.T) {
	r := newProtectedRouter(&models.JWTClaims{UserID: "t-1", Role: models.RoleTeacher}, string(models.RoleAdmin), Self)

	assert.Equal(t, http.StatusOK, serve(r, "/teachers/t-1/timetable", "Bearer good"))
	assert.Equal(t, http.StatusForbidden, serve(r, "/teachers/t-2/timetable", "Bearer good"))
}

func TestRBACWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/x", ""))
}

func TestMetricsLabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/departments/:id/timetable", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, "/departments/dept-cs/timetable", "")
	serve(r, "/departments/dept-math/timetable", "")
	serve(r, "/nowhere", "")

	expected := `
# HELP http_requests_total Total number of HTTP requests
# TYPE http_requests_total counter
http_requests_total{method="GET",path="/departments/:id/timetable",status="200"} 2
http_requests_total{method="GET",path="unmatched",status="404"} 1
`
	require.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "http_requests_total"))
}
