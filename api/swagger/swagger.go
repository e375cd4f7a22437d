package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Course Timetable API",
        "description": "Generates and serves weekly department timetables.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Timetable", "description": "Timetable generation and views"}
    ],
    "paths": {
        "/departments/{id}/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Department timetable",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AssignmentListEnvelope"}},
                    "404": {"description": "Department not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/departments/{id}/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Regenerate a department timetable",
                "description": "Clears the department's assignments and places every course for the current term in one greedy pass. Requires ADMIN or SUPERADMIN.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GenerateTimetableEnvelope"}},
                    "409": {"description": "Room booking conflict in the store", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Department missing or has no courses", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Persistence failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "504": {"description": "Run exceeded its time budget", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/departments/{id}/timetable/report": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Last generation outcome",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No run recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/departments/{id}/timetable/export": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download a department timetable",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Teacher timetable for the current term",
                "description": "Requires ADMIN, SUPERADMIN or the teacher themself.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AssignmentListEnvelope"}}
                }
            }
        },
        "/students/{id}/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Student timetable for the current term",
                "description": "Requires ADMIN, SUPERADMIN or the student themself.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AssignmentListEnvelope"}}
                }
            }
        },
        "/timetables/slots": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Teaching days and slot start times",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Regenerate several departments in the background",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchGenerateRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/jobs/{jobId}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Background job status",
                "parameters": [
                    {"name": "jobId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Assignment": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "course_code": {"type": "string"},
                "room_id": {"type": "string"},
                "day": {"type": "string", "enum": ["MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY"]},
                "slot": {"type": "string", "example": "09:00"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "AssignmentView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "course_code": {"type": "string"},
                "room_id": {"type": "string"},
                "day": {"type": "string"},
                "slot": {"type": "string"},
                "course_title": {"type": "string"},
                "credits": {"type": "integer"},
                "department_id": {"type": "string"},
                "building": {"type": "string"},
                "floor": {"type": "integer"},
                "capacity": {"type": "integer"},
                "teacher_id": {"type": "string"},
                "teacher_name": {"type": "string"},
                "enrolled_count": {"type": "integer"}
            }
        },
        "GenerateTimetableResponse": {
            "type": "object",
            "properties": {
                "departmentId": {"type": "string"},
                "term": {"type": "string", "example": "FALL-2026"},
                "placedCount": {"type": "integer"},
                "unplacedCourseCodes": {"type": "array", "items": {"type": "string"}},
                "cleared": {"type": "integer"},
                "reservedByOtherDepartments": {"type": "integer"},
                "durationMs": {"type": "integer"},
                "placed": {"type": "array", "items": {"$ref": "#/definitions/Assignment"}}
            }
        },
        "BatchGenerateRequest": {
            "type": "object",
            "required": ["departmentIds"],
            "properties": {
                "departmentIds": {"type": "array", "items": {"type": "string"}, "maxItems": 50}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        },
        "AssignmentListEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/AssignmentView"}},
                "meta": {"type": "object", "properties": {"count": {"type": "integer"}}}
            }
        },
        "GenerateTimetableEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/GenerateTimetableResponse"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
