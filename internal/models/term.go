package models

import (
	"fmt"
	"time"
)

// Season is the term tag carried by courses and enrollments.
type Season string

const (
	SeasonFall   Season = "FALL"
	SeasonSpring Season = "SPRING"
	SeasonSummer Season = "SUMMER"
)

// Term identifies an academic period. It is never stored; it is derived from the calendar.
type Term struct {
	Season Season `json:"season"`
	// Year is the calendar year the term started in.
	Year int `json:"year"`
}

// String renders the term as e.g. "FALL-2026".
func (t Term) String() string {
	return fmt.Sprintf("%s-%d", t.Season, t.Year)
}

// TermAt maps a date onto its academic term: September through January is FALL,
// February through June is SPRING, July and August are SUMMER.
func TermAt(now time.Time) Term {
	year := now.Year()
	switch month := now.Month(); {
	case month >= time.September:
		return Term{Season: SeasonFall, Year: year}
	case month == time.January:
		return Term{Season: SeasonFall, Year: year - 1}
	case month <= time.June:
		return Term{Season: SeasonSpring, Year: year}
	default:
		return Term{Season: SeasonSummer, Year: year}
	}
}
