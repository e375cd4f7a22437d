package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/noah-isme/course-timetable-api/internal/models"
)

type clash struct {
	Kind    string
	Day     models.Day
	Slot    string
	Subject string
	Courses []string
}

type audit struct {
	Departments []string
	Assignments int
	Clashes     []clash
	Error       error
	Duration    time.Duration
}

func main() {
	var (
		baseURL     string
		token       string
		departments string
		timeout     time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080/api/v1", "Timetable API base URL")
	flag.StringVar(&token, "token", os.Getenv("TIMETABLE_TOKEN"), "Bearer token")
	flag.StringVar(&departments, "departments", "", "Comma separated department ids")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	ids := lo.Compact(lo.Map(strings.Split(departments, ","), func(id string, _ int) string {
		return strings.TrimSpace(id)
	}))
	if len(ids) == 0 {
		log.Fatal("at least one department is required")
	}

	client := &http.Client{Timeout: timeout}
	result := run(client, baseURL, token, ids)
	printReport(result)
	if result.Error != nil || len(result.Clashes) > 0 {
		os.Exit(1)
	}
}

// run fetches every department timetable and checks the union, since rooms and
// teachers are shared across departments.
func run(client *http.Client, baseURL, token string, departments []string) audit {
	start := time.Now()
	res := audit{Departments: departments}
	var all []models.AssignmentView
	for _, id := range departments {
		views, err := fetchDepartment(client, baseURL, token, id)
		if err != nil {
			res.Error = fmt.Errorf("department %s: %w", id, err)
			res.Duration = time.Since(start)
			return res
		}
		all = append(all, views...)
	}
	res.Assignments = len(all)
	res.Clashes = findClashes(all)
	res.Duration = time.Since(start)
	return res
}

func fetchDepartment(client *http.Client, baseURL, token, departmentID string) ([]models.AssignmentView, error) {
	if client == nil {
		return nil, errors.New("nil client")
	}
	url := fmt.Sprintf("%s/departments/%s/timetable", strings.TrimRight(baseURL, "/"), departmentID)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope struct {
		Data []models.AssignmentView `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return envelope.Data, nil
}

// findClashes reports every room or teacher booked twice in the same day and slot.
func findClashes(views []models.AssignmentView) []clash {
	var clashes []clash
	collect := func(kind string, subject func(models.AssignmentView) string) {
		groups := lo.GroupBy(lo.Filter(views, func(v models.AssignmentView, _ int) bool {
			return subject(v) != ""
		}), func(v models.AssignmentView) string {
			return fmt.Sprintf("%d|%s|%s", v.Day, v.Slot, subject(v))
		})
		for _, group := range groups {
			if len(group) < 2 {
				continue
			}
			courses := lo.Map(group, func(v models.AssignmentView, _ int) string { return v.CourseCode })
			sort.Strings(courses)
			clashes = append(clashes, clash{Kind: kind, Day: group[0].Day, Slot: group[0].Slot, Subject: subject(group[0]), Courses: courses})
		}
	}
	collect("ROOM", func(v models.AssignmentView) string { return v.RoomID })
	collect("TEACHER", func(v models.AssignmentView) string { return lo.FromPtr(v.TeacherID) })

	sort.Slice(clashes, func(i, j int) bool {
		a, b := clashes[i], clashes[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Slot != b.Slot {
			return a.Slot < b.Slot
		}
		return a.Subject < b.Subject
	})
	return clashes
}

func printReport(res audit) {
	fmt.Println("Timetable Audit Report")
	fmt.Println("======================")
	fmt.Printf("Departments: %s\n", strings.Join(res.Departments, ", "))
	if res.Error != nil {
		fmt.Printf("[ERROR] %v\n", res.Error)
		return
	}
	fmt.Printf("Assignments checked: %d (%s)\n", res.Assignments, res.Duration)
	for _, c := range res.Clashes {
		fmt.Printf("[%s] %s %s %s: %s\n", c.Kind, c.Day, c.Slot, c.Subject, strings.Join(c.Courses, ", "))
	}
	fmt.Printf("Clashes: %d\n", len(res.Clashes))
}
