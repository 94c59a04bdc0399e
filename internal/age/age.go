// Package age derives a child's age from their birth date. All functions are
// pure; callers inject "today" so results stay reproducible in tests.
package age

import "time"

// Age holds the three derived measures used across the application.
type Age struct {
	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
}

// Compute derives the age at the given date. A birth date after today yields
// negative values rather than an error.
func Compute(birth, today time.Time) Age {
	return Age{
		Years:  Years(birth, today),
		Months: Months(birth, today),
		Days:   Days(birth, today),
	}
}

// Years returns whole years elapsed, counting a year only once the birthday
// has occurred in it.
func Years(birth, today time.Time) int {
	years := today.Year() - birth.Year()
	if beforeBirthday(birth, today) {
		years--
	}
	return years
}

// Months returns (year delta)*12 + (month delta) with no day adjustment:
// a child born on Jan 31 turns "2 months" on Mar 1. That truncation is the
// documented behaviour, not an oversight.
func Months(birth, today time.Time) int {
	return (today.Year()-birth.Year())*12 + int(today.Month()) - int(birth.Month())
}

// Days returns the exact calendar day difference, ignoring time of day.
func Days(birth, today time.Time) int {
	b := midnightUTC(birth)
	t := midnightUTC(today)
	return int(t.Sub(b).Hours() / 24)
}

func beforeBirthday(birth, today time.Time) bool {
	if today.Month() != birth.Month() {
		return today.Month() < birth.Month()
	}
	return today.Day() < birth.Day()
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
