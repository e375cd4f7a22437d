package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-timetable-api/internal/models"
)

func TestConflictOracleChecks(t *testing.T) {
	teacher := "t-1"
	algebra := models.Course{Code: "MATH101", TeacherID: &teacher}
	physics := models.Course{Code: "PHYS101", TeacherID: &teacher}
	poetry := models.Course{Code: "LIT101"}
	history := models.Course{Code: "HIST101"}

	oracle := newConflictOracle(map[string][]string{
		"MATH101": {"s-1", "s-2"},
		"PHYS101": {"s-3"},
		"LIT101":  {"s-2"},
		"HIST101": {"s-9"},
	})
	require.True(t, oracle.IsFree("R1", models.Monday, "09:00", algebra))
	oracle.Commit(models.Assignment{CourseCode: "MATH101", RoomID: "R1", Day: models.Monday, Slot: "09:00"}, algebra)

	assert.Equal(t, []string{violationRoom}, oracle.Violations("R1", models.Monday, "09:00", history))
	assert.Equal(t, []string{violationTeacher}, oracle.Violations("R2", models.Monday, "09:00", physics))
	assert.Equal(t, []string{violationStudent}, oracle.Violations("R2", models.Monday, "09:00", poetry))
	assert.Equal(t, []string{violationRoom, violationStudent}, oracle.Violations("R1", models.Monday, "09:00", poetry))

	assert.True(t, oracle.IsFree("R2", models.Monday, "09:00", history))
	assert.True(t, oracle.IsFree("R2", models.Monday, "10:00", physics))
	assert.True(t, oracle.IsFree("R1", models.Tuesday, "09:00", poetry))
}

func TestConflictOracleIgnoresSameCourse(t *testing.T) {
	course := models.Course{Code: "CS101"}
	oracle := newConflictOracle(map[string][]string{"CS101": {"s-1"}})
	oracle.Commit(models.Assignment{CourseCode: "CS101", RoomID: "R1", Day: models.Friday, Slot: "16:00"}, course)

	assert.Empty(t, oracle.Violations("R2", models.Friday, "16:00", course))
}

func TestConflictOracleUnstaffedCoursesNeverClashOnTeacher(t *testing.T) {
	first := models.Course{Code: "A"}
	second := models.Course{Code: "B"}
	oracle := newConflictOracle(nil)
	oracle.Commit(models.Assignment{CourseCode: "A", RoomID: "R1", Day: models.Monday, Slot: "09:00"}, first)

	assert.True(t, oracle.IsFree("R2", models.Monday, "09:00", second))
}

func TestConflictOracleReservedBookings(t *testing.T) {
	teacher := "t-1"
	shared := models.Course{Code: "CS101", TeacherID: &teacher}
	other := models.Course{Code: "CS102"}
	oracle := newConflictOracle(map[string][]string{"CS102": {"s-4"}})
	oracle.Reserve(models.Occupancy{CourseCode: "MATH101", RoomID: "R1", Day: models.Monday, Slot: "09:00", TeacherID: &teacher, Students: []string{"s-4"}})

	assert.Equal(t, []string{violationRoom, violationTeacher}, oracle.Violations("R1", models.Monday, "09:00", shared))
	assert.Equal(t, []string{violationTeacher}, oracle.Violations("R2", models.Monday, "09:00", shared))
	assert.Equal(t, []string{violationStudent}, oracle.Violations("R2", models.Monday, "09:00", other))
	assert.True(t, oracle.IsFree("R1", models.Monday, "10:00", shared))
}

func TestDaysByLoadKeepsWeekOrderOnTies(t *testing.T) {
	assert.Equal(t, models.Weekdays, daysByLoad(map[models.Day]int{}))
	assert.Equal(t,
		[]models.Day{models.Wednesday, models.Friday, models.Monday, models.Tuesday, models.Thursday},
		daysByLoad(map[models.Day]int{models.Monday: 1, models.Tuesday: 1, models.Thursday: 1}),
	)
	assert.Equal(t,
		[]models.Day{models.Tuesday, models.Wednesday, models.Thursday, models.Friday, models.Monday},
		daysByLoad(map[models.Day]int{models.Monday: 2, models.Tuesday: 1, models.Wednesday: 1, models.Thursday: 1, models.Friday: 1}),
	)
}

func TestDepartmentLocksSerialiseSameKey(t *testing.T) {
	locks := newDepartmentLocks()

	release, err := locks.Acquire(context.Background(), "dept-cs")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.Acquire(ctx, "dept-cs")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := locks.Acquire(context.Background(), "dept-math")
	require.NoError(t, err)
	other()

	release()
	release()
	assert.Zero(t, locks.size())
}

func TestDepartmentLocksHandOver(t *testing.T) {
	locks := newDepartmentLocks()
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.Acquire(context.Background(), "dept-cs")
			if err != nil {
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, locks.size())
}
