package handler

import (
	"github.com/gin-gonic/gin"

	internalmiddleware "github.com/noah-isme/course-timetable-api/internal/middleware"
	"github.com/noah-isme/course-timetable-api/internal/models"
)

// RegisterTimetableRoutes mounts the timetable API under rg. Every route requires a
// valid access token; generation is restricted to administrators and personal
// timetables to administrators or their owner.
func RegisterTimetableRoutes(rg *gin.RouterGroup, h *TimetableHandler, auth gin.HandlerFunc) {
	adminOnly := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)
	adminOrSelf := internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin), internalmiddleware.Self)

	secured := rg.Group("")
	secured.Use(auth)

	departments := secured.Group("/departments/:id/timetable")
	departments.GET("", h.Department)
	departments.GET("/report", h.Report)
	departments.GET("/export", h.Export)
	departments.POST("/generate", adminOnly, h.Generate)

	secured.GET("/teachers/:id/timetable", adminOrSelf, h.Teacher)
	secured.GET("/students/:id/timetable", adminOrSelf, h.Student)

	timetables := secured.Group("/timetables")
	timetables.GET("/slots", h.Slots)
	timetables.POST("/generate", adminOnly, h.BatchGenerate)
	timetables.GET("/jobs/:jobId", adminOnly, h.BatchJob)
}
