package dto

import "github.com/noah-isme/course-timetable-api/internal/models"

// BatchGenerateRequest asks for several departments to be regenerated in the background.
type BatchGenerateRequest struct {
	DepartmentIDs []string `json:"departmentIds" validate:"required,min=1,max=50,dive,required,max=64"`
}

// BatchGenerateResponse lists the jobs created for a batch request.
type BatchGenerateResponse struct {
	Jobs []models.BatchJob `json:"jobs"`
}

// GenerateTimetableResponse is the synchronous generation summary.
type GenerateTimetableResponse struct {
	DepartmentID string              `json:"departmentId"`
	Term         string              `json:"term"`
	PlacedCount  int                 `json:"placedCount"`
	Unplaced     []string            `json:"unplacedCourseCodes"`
	Cleared      int64               `json:"cleared"`
	Reserved     int                 `json:"reservedByOtherDepartments"`
	DurationMs   int64               `json:"durationMs"`
	Placed       []models.Assignment `json:"placed"`
}

// NewGenerateTimetableResponse flattens a generation report for the API.
func NewGenerateTimetableResponse(report *models.GenerationReport) GenerateTimetableResponse {
	return GenerateTimetableResponse{
		DepartmentID: report.DepartmentID,
		Term:         report.Term.String(),
		PlacedCount:  report.PlacedCount,
		Unplaced:     report.Unplaced,
		Cleared:      report.Cleared,
		Reserved:     report.Reserved,
		DurationMs:   report.Duration.Milliseconds(),
		Placed:       report.Placed,
	}
}
