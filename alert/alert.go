// Package alert decides when the hourly event alert fires and what it says.
package alert

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	eventLine   = "⏰ 정각 이벤트가 %s 시작됩니다."
	bossLine    = "👹 필드 보스가 %s 출현합니다!"
	expiredLine = "⌛ %s 알림이 만료되었습니다."
)

// Config holds the alert schedule in local time.
type Config struct {
	Minutes   []int
	BossHours []int
	Window    time.Duration
	Location  *time.Location
}

// Alert is one planned announcement for the event starting at Target.
type Alert struct {
	Target time.Time
	Boss   bool
}

func (c Config) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// Plan reports whether an alert fires during the minute containing now. The
// boss line is included only when the upcoming hour is a boss hour.
func Plan(now time.Time, cfg Config) (Alert, bool) {
	local := now.In(cfg.loc())
	if !slices.Contains(cfg.Minutes, local.Minute()) {
		return Alert{}, false
	}
	target := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, cfg.loc()).Add(time.Hour)
	return Alert{
		Target: target,
		Boss:   slices.Contains(cfg.BossHours, target.Hour()),
	}, true
}

// Next returns the first alert strictly after now, scanning at most one day.
func Next(now time.Time, cfg Config) (Alert, bool) {
	if len(cfg.Minutes) == 0 {
		return Alert{}, false
	}
	t := now.In(cfg.loc()).Truncate(time.Minute).Add(time.Minute)
	for i := 0; i < 24*60; i++ {
		if a, ok := Plan(t, cfg); ok {
			return a, true
		}
		t = t.Add(time.Minute)
	}
	return Alert{}, false
}

// NextBoss returns the next planned alert carrying the boss line.
func NextBoss(now time.Time, cfg Config) (Alert, bool) {
	if len(cfg.Minutes) == 0 || len(cfg.BossHours) == 0 {
		return Alert{}, false
	}
	t := now.In(cfg.loc()).Truncate(time.Minute).Add(time.Minute)
	for i := 0; i < 24*60; i++ {
		if a, ok := Plan(t, cfg); ok && a.Boss {
			return a, true
		}
		t = t.Add(time.Minute)
	}
	return Alert{}, false
}

// Timestamp renders t as a Discord relative timestamp, which clients keep
// counting down on their own.
func Timestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

// Text is the live alert content.
func (a Alert) Text() string {
	ts := Timestamp(a.Target)
	lines := []string{fmt.Sprintf(eventLine, ts)}
	if a.Boss {
		lines = append(lines, fmt.Sprintf(bossLine, ts))
	}
	return strings.Join(lines, "\n")
}

// ExpiredText replaces the alert once its window closes.
func (a Alert) ExpiredText() string {
	return fmt.Sprintf(expiredLine, a.Target.Format("15:04"))
}
