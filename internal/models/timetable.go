package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Day is a teaching weekday. The numeric value doubles as its sort key.
type Day int

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
)

// Weekdays is the fixed, ordered teaching week.
var Weekdays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}

var dayNames = map[Day]string{
	Monday:    "MONDAY",
	Tuesday:   "TUESDAY",
	Wednesday: "WEDNESDAY",
	Thursday:  "THURSDAY",
	Friday:    "FRIDAY",
}

// String returns the upper-case day name.
func (d Day) String() string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DAY(%d)", int(d))
}

// Valid reports whether d is one of the teaching weekdays.
func (d Day) Valid() bool {
	_, ok := dayNames[d]
	return ok
}

// ParseDay accepts a day name in any case.
func ParseDay(raw string) (Day, error) {
	needle := strings.ToUpper(strings.TrimSpace(raw))
	for day, name := range dayNames {
		if name == needle {
			return day, nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", raw)
}

// MarshalJSON encodes the day by name.
func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a day name.
func (d *Day) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDay(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ErrAssignmentConflict is returned by the store when a (room, day, slot) is already taken.
var ErrAssignmentConflict = errors.New("room already booked for this day and slot")

// Assignment places one course session into a (room, day, slot).
type Assignment struct {
	ID         string    `db:"id" json:"id"`
	CourseCode string    `db:"course_code" json:"course_code"`
	RoomID     string    `db:"room_id" json:"room_id"`
	Day        Day       `db:"day_of_week" json:"day"`
	Slot       string    `db:"slot" json:"slot"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Occupancy is a committed assignment of another department that a generator run has
// to work around: its room, its teacher and its enrolled students are taken.
type Occupancy struct {
	CourseCode string   `db:"course_code" json:"course_code"`
	RoomID     string   `db:"room_id" json:"room_id"`
	Day        Day      `db:"day_of_week" json:"day"`
	Slot       string   `db:"slot" json:"slot"`
	TeacherID  *string  `db:"teacher_id" json:"teacher_id,omitempty"`
	Students   []string `db:"-" json:"students,omitempty"`
}

// AssignmentView is an assignment joined with its course, room and teacher for display.
type AssignmentView struct {
	Assignment
	CourseTitle   string  `db:"course_title" json:"course_title"`
	Credits       int     `db:"credits" json:"credits"`
	DepartmentID  string  `db:"department_id" json:"department_id"`
	Building      string  `db:"building" json:"building"`
	Floor         int     `db:"floor" json:"floor"`
	Capacity      int     `db:"capacity" json:"capacity"`
	TeacherID     *string `db:"teacher_id" json:"teacher_id,omitempty"`
	TeacherName   *string `db:"teacher_name" json:"teacher_name,omitempty"`
	EnrolledCount int     `db:"enrolled_count" json:"enrolled_count,omitempty"`
}

// GenerationReport summarises one generator run. Unplaced lists courses that need manual scheduling.
type GenerationReport struct {
	DepartmentID string        `json:"department_id"`
	Term         Term          `json:"term"`
	Placed       []Assignment  `json:"placed"`
	PlacedCount  int           `json:"placed_count"`
	Unplaced     []string      `json:"unplaced"`
	Cleared      int64         `json:"cleared"`
	Reserved     int           `json:"reserved"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration_ns"`
}

// SlotGrid is the teaching week: days crossed with slot start times.
type SlotGrid struct {
	Days  []Day    `json:"days"`
	Slots []string `json:"slots"`
}

// GenerationOutcome is the last known result of a run for a department: either a
// report or the error code that aborted it.
type GenerationOutcome struct {
	DepartmentID string            `json:"department_id"`
	Report       *GenerationReport `json:"report,omitempty"`
	ErrorCode    string            `json:"error_code,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	RecordedAt   time.Time         `json:"recorded_at"`
}

// Succeeded reports whether the outcome carries a committed report.
func (o GenerationOutcome) Succeeded() bool {
	return o.Report != nil && o.ErrorCode == ""
}
