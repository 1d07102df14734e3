package alert

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

var testConfig = Config{
	Minutes:   []int{55},
	BossHours: []int{12, 20},
	Window:    8 * time.Minute,
	Location:  time.UTC,
}

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 3, day, hour, minute, 0, 0, time.UTC)
}

func TestPlanFiresOnlyAtConfiguredMinutes(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		fires  bool
		target time.Time
		boss   bool
	}{
		{"boss hour", at(4, 11, 55).Add(30 * time.Second), true, at(4, 12, 0), true},
		{"plain hour", at(4, 12, 55), true, at(4, 13, 0), false},
		{"evening boss", at(4, 19, 55), true, at(4, 20, 0), true},
		{"day rollover", at(4, 23, 55), true, at(5, 0, 0), false},
		{"wrong minute", at(4, 11, 54), false, time.Time{}, false},
		{"on the hour", at(4, 12, 0), false, time.Time{}, false},
	}
	for _, tt := range tests {
		a, ok := Plan(tt.now, testConfig)
		if ok != tt.fires {
			t.Fatalf("%s: Plan fired=%v, want %v", tt.name, ok, tt.fires)
		}
		if !ok {
			continue
		}
		if !a.Target.Equal(tt.target) || a.Boss != tt.boss {
			t.Fatalf("%s: Plan=(%v, boss %v), want (%v, boss %v)", tt.name, a.Target, a.Boss, tt.target, tt.boss)
		}
	}
}

func TestPlanUsesLocation(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	cfg := testConfig
	cfg.Location = kst

	// 02:55 UTC is 11:55 KST.
	a, ok := Plan(at(4, 2, 55), cfg)
	if !ok {
		t.Fatalf("alert did not fire at 11:55 KST")
	}
	if a.Target.In(kst).Hour() != 12 || !a.Boss {
		t.Fatalf("Plan=(%v, boss %v), want 12:00 KST boss alert", a.Target, a.Boss)
	}
}

func TestNextAndNextBoss(t *testing.T) {
	a, ok := Next(at(4, 11, 56), testConfig)
	if !ok || !a.Target.Equal(at(4, 13, 0)) {
		t.Fatalf("Next=(%v, %v), want 13:00", a.Target, ok)
	}

	// Strictly after now.
	a, ok = Next(at(4, 11, 55), testConfig)
	if !ok || !a.Target.Equal(at(4, 13, 0)) {
		t.Fatalf("Next at an alert minute=(%v, %v), want 13:00", a.Target, ok)
	}

	b, ok := NextBoss(at(4, 12, 0), testConfig)
	if !ok || !b.Target.Equal(at(4, 20, 0)) || !b.Boss {
		t.Fatalf("NextBoss=(%v, %v), want 20:00", b.Target, ok)
	}

	b, ok = NextBoss(at(4, 21, 0), testConfig)
	if !ok || !b.Target.Equal(at(5, 12, 0)) {
		t.Fatalf("NextBoss overnight=(%v, %v), want next day 12:00", b.Target, ok)
	}

	if _, ok := NextBoss(at(4, 12, 0), Config{Minutes: []int{55}, Location: time.UTC}); ok {
		t.Fatalf("NextBoss without boss hours should find nothing")
	}
	if _, ok := Next(at(4, 12, 0), Config{Location: time.UTC}); ok {
		t.Fatalf("Next without minutes should find nothing")
	}
}

func TestAlertText(t *testing.T) {
	target := at(4, 12, 0)
	ts := fmt.Sprintf("<t:%d:R>", target.Unix())

	plain := Alert{Target: target}.Text()
	if !strings.Contains(plain, ts) {
		t.Fatalf("Text()=%q, missing countdown %s", plain, ts)
	}
	if strings.Contains(plain, "👹") {
		t.Fatalf("non-boss alert carries the boss line: %q", plain)
	}

	boss := Alert{Target: target, Boss: true}.Text()
	lines := strings.Split(boss, "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "👹") || !strings.Contains(lines[1], ts) {
		t.Fatalf("boss Text()=%q", boss)
	}

	if got := (Alert{Target: target}).ExpiredText(); !strings.Contains(got, "12:00") {
		t.Fatalf("ExpiredText()=%q, want the target time", got)
	}
}
