package service

import (
	"github.com/samber/lo"

	"github.com/noah-isme/course-timetable-api/internal/models"
)

// Names of the placement checks reported by conflictOracle.Violations.
const (
	violationRoom    = "ROOM"
	violationTeacher = "TEACHER"
	violationStudent = "STUDENT"
)

type roomKey struct {
	room string
	day  models.Day
	slot string
}

type teacherKey struct {
	teacher string
	day     models.Day
	slot    string
}

type slotKey struct {
	day  models.Day
	slot string
}

// conflictOracle answers admissibility questions for a single generator run. It knows
// the assignments accepted during that run plus whatever was reserved before it started.
type conflictOracle struct {
	rooms    map[roomKey]struct{}
	teachers map[teacherKey]struct{}
	// students at a (day, slot) mapped to the course codes that claimed them.
	students map[slotKey]map[string][]string
	enrolled map[string][]string
}

func newConflictOracle(enrolled map[string][]string) *conflictOracle {
	if enrolled == nil {
		enrolled = map[string][]string{}
	}
	return &conflictOracle{
		rooms:    make(map[roomKey]struct{}),
		teachers: make(map[teacherKey]struct{}),
		students: make(map[slotKey]map[string][]string),
		enrolled: enrolled,
	}
}

// IsFree reports whether the course may take the room at the given day and slot.
func (o *conflictOracle) IsFree(roomID string, day models.Day, slot string, course models.Course) bool {
	return len(o.Violations(roomID, day, slot, course)) == 0
}

// Violations lists the checks the candidate fails, in ROOM, TEACHER, STUDENT order.
func (o *conflictOracle) Violations(roomID string, day models.Day, slot string, course models.Course) []string {
	var failed []string
	if _, taken := o.rooms[roomKey{room: roomID, day: day, slot: slot}]; taken {
		failed = append(failed, violationRoom)
	}
	if teacher := course.Teacher(); teacher != "" {
		if _, busy := o.teachers[teacherKey{teacher: teacher, day: day, slot: slot}]; busy {
			failed = append(failed, violationTeacher)
		}
	}
	if o.studentClash(day, slot, course.Code) {
		failed = append(failed, violationStudent)
	}
	return failed
}

func (o *conflictOracle) studentClash(day models.Day, slot, courseCode string) bool {
	claimed, ok := o.students[slotKey{day: day, slot: slot}]
	if !ok {
		return false
	}
	return lo.SomeBy(o.enrolled[courseCode], func(student string) bool {
		return lo.ContainsBy(claimed[student], func(owner string) bool {
			return owner != courseCode
		})
	})
}

// Reserve marks a committed assignment of another department as taken.
func (o *conflictOracle) Reserve(occupied models.Occupancy) {
	teacher := ""
	if occupied.TeacherID != nil {
		teacher = *occupied.TeacherID
	}
	o.occupy(occupied.RoomID, occupied.Day, occupied.Slot, teacher, occupied.CourseCode, occupied.Students)
}

// Commit records an accepted assignment in every index.
func (o *conflictOracle) Commit(assignment models.Assignment, course models.Course) {
	o.occupy(assignment.RoomID, assignment.Day, assignment.Slot, course.Teacher(), course.Code, o.enrolled[course.Code])
}

func (o *conflictOracle) occupy(roomID string, day models.Day, slot, teacher, courseCode string, students []string) {
	o.rooms[roomKey{room: roomID, day: day, slot: slot}] = struct{}{}
	if teacher != "" {
		o.teachers[teacherKey{teacher: teacher, day: day, slot: slot}] = struct{}{}
	}

	key := slotKey{day: day, slot: slot}
	claimed, ok := o.students[key]
	if !ok {
		claimed = make(map[string][]string)
		o.students[key] = claimed
	}
	for _, student := range students {
		if !lo.Contains(claimed[student], courseCode) {
			claimed[student] = append(claimed[student], courseCode)
		}
	}
}
