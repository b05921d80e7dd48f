package domain

import "time"

// calendarDayLayout matches the ISO date part of a timestamp.
const calendarDayLayout = "2006-01-02"

// CalendarDay returns the ISO calendar day of t in loc.
// A nil location means UTC.
func CalendarDay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(calendarDayLayout)
}

// LeaderboardEntry is a ranked profile.
type LeaderboardEntry struct {
	Rank int `json:"rank"`
	UserProfile
}
