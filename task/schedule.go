package task

import (
	"fmt"
	"time"
)

// Schedule places the daily and weekly reset boundaries in local time.
type Schedule struct {
	Location *time.Location
	Hour     int
	Weekday  time.Weekday
}

func (s Schedule) loc() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

// LastDaily returns the most recent daily boundary at or before now.
func (s Schedule) LastDaily(now time.Time) time.Time {
	local := now.In(s.loc())
	b := time.Date(local.Year(), local.Month(), local.Day(), s.Hour, 0, 0, 0, s.loc())
	if b.After(local) {
		b = b.AddDate(0, 0, -1)
	}
	return b
}

// LastWeekly returns the most recent daily boundary that falls on Weekday.
func (s Schedule) LastWeekly(now time.Time) time.Time {
	b := s.LastDaily(now)
	for b.Weekday() != s.Weekday {
		b = b.AddDate(0, 0, -1)
	}
	return b
}

// NextDaily returns the first daily boundary strictly after now.
func (s Schedule) NextDaily(now time.Time) time.Time {
	return s.LastDaily(now).AddDate(0, 0, 1)
}

// CronSpec is the robfig/cron expression firing at every daily boundary.
func (s Schedule) CronSpec() string {
	return fmt.Sprintf("CRON_TZ=%s 0 %d * * *", s.loc().String(), s.Hour)
}
