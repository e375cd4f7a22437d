package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-timetable-api/internal/models"
)

func view(course, room string, day models.Day, slot string, teacher *string) models.AssignmentView {
	return models.AssignmentView{
		Assignment: models.Assignment{CourseCode: course, RoomID: room, Day: day, Slot: slot},
		TeacherID:  teacher,
	}
}

func TestFindClashes(t *testing.T) {
	ada := "t-ada"
	views := []models.AssignmentView{
		view("CS101", "R1", models.Monday, "09:00", &ada),
		view("MA101", "R1", models.Monday, "09:00", nil),
		view("CS102", "R2", models.Tuesday, "09:00", &ada),
		view("CS103", "R3", models.Tuesday, "09:00", &ada),
		view("CS104", "R1", models.Tuesday, "10:00", nil),
		view("CS105", "R2", models.Tuesday, "10:00", nil),
	}

	clashes := findClashes(views)

	require.Len(t, clashes, 2)
	assert.Equal(t, clash{Kind: "ROOM", Day: models.Monday, Slot: "09:00", Subject: "R1", Courses: []string{"CS101", "MA101"}}, clashes[0])
	assert.Equal(t, clash{Kind: "TEACHER", Day: models.Tuesday, Slot: "09:00", Subject: "t-ada", Courses: []string{"CS102", "CS103"}}, clashes[1])
}

func TestRunAcrossDepartments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/v1/departments/dept-cs/timetable":
			_, _ = w.Write([]byte(`{"data":[{"course_code":"CS101","room_id":"R1","day":"MONDAY","slot":"09:00"}]}`))
		case "/api/v1/departments/dept-math/timetable":
			_, _ = w.Write([]byte(`{"data":[{"course_code":"MA101","room_id":"R1","day":"MONDAY","slot":"09:00"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	res := run(srv.Client(), srv.URL+"/api/v1", "secret", []string{"dept-cs", "dept-math"})
	require.NoError(t, res.Error)
	assert.Equal(t, 2, res.Assignments)
	require.Len(t, res.Clashes, 1)
	assert.Equal(t, "ROOM", res.Clashes[0].Kind)

	res = run(srv.Client(), srv.URL+"/api/v1", "secret", []string{"dept-x"})
	assert.Error(t, res.Error)
}
