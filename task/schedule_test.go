package task

import (
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

func TestScheduleBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		now        time.Time
		lastDaily  time.Time
		lastWeekly time.Time
	}{
		{
			name:       "before reset hour",
			now:        time.Date(2026, 3, 4, 5, 0, 0, 0, time.UTC),
			lastDaily:  time.Date(2026, 3, 3, 6, 0, 0, 0, time.UTC),
			lastWeekly: time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC),
		},
		{
			name:       "exactly at reset hour",
			now:        time.Date(2026, 3, 4, 6, 0, 0, 0, time.UTC),
			lastDaily:  time.Date(2026, 3, 4, 6, 0, 0, 0, time.UTC),
			lastWeekly: time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC),
		},
		{
			name:       "monday before reset",
			now:        time.Date(2026, 3, 9, 5, 0, 0, 0, time.UTC),
			lastDaily:  time.Date(2026, 3, 8, 6, 0, 0, 0, time.UTC),
			lastWeekly: time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC),
		},
		{
			name:       "monday after reset",
			now:        time.Date(2026, 3, 9, 6, 1, 0, 0, time.UTC),
			lastDaily:  time.Date(2026, 3, 9, 6, 0, 0, 0, time.UTC),
			lastWeekly: time.Date(2026, 3, 9, 6, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		if got := testSchedule.LastDaily(tt.now); !got.Equal(tt.lastDaily) {
			t.Fatalf("%s: LastDaily=%v, want %v", tt.name, got, tt.lastDaily)
		}
		if got := testSchedule.LastWeekly(tt.now); !got.Equal(tt.lastWeekly) {
			t.Fatalf("%s: LastWeekly=%v, want %v", tt.name, got, tt.lastWeekly)
		}
		if got := testSchedule.NextDaily(tt.now); !got.Equal(tt.lastDaily.AddDate(0, 0, 1)) {
			t.Fatalf("%s: NextDaily=%v", tt.name, got)
		}
	}
}

func TestScheduleUsesLocalTime(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	s := Schedule{Location: kst, Hour: 6, Weekday: time.Monday}

	// 05:30 KST on Thursday.
	now := time.Date(2026, 3, 4, 20, 30, 0, 0, time.UTC)
	want := time.Date(2026, 3, 4, 6, 0, 0, 0, kst)
	if got := s.LastDaily(now); !got.Equal(want) {
		t.Fatalf("LastDaily=%v, want %v", got, want)
	}
}

func TestCronSpecParses(t *testing.T) {
	spec := testSchedule.CronSpec()
	if spec != "CRON_TZ=UTC 0 6 * * *" {
		t.Fatalf("CronSpec=%q", spec)
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		t.Fatalf("parse %q: %v", spec, err)
	}
	from := time.Date(2026, 3, 4, 7, 0, 0, 0, time.UTC)
	if next := sched.Next(from); !next.Equal(testSchedule.NextDaily(from)) {
		t.Fatalf("cron next=%v, want %v", next, testSchedule.NextDaily(from))
	}
}
