package task

import (
	"errors"
	"testing"
	"time"
)

// Wednesday.
var testNow = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

var testSchedule = Schedule{Location: time.UTC, Hour: 6, Weekday: time.Monday}

func TestShopTaskPropagatesAcrossUserCharacters(t *testing.T) {
	c := DefaultCatalog()
	rec := NewRecord(1, c, []string{"A", "B", "C"}, testNow)
	other := NewRecord(2, c, []string{"X"}, testNow)

	if _, err := rec.Use(1, "shop_daily", c); err != nil {
		t.Fatalf("use shop_daily: %v", err)
	}
	shop, _ := c.Lookup("shop_daily")
	for _, ch := range rec.Characters {
		if !ch.Progress.IsDone(shop) {
			t.Fatalf("character %s did not receive shop_daily", ch.Name)
		}
	}
	if other.Characters[0].Progress.IsDone(shop) {
		t.Fatalf("shop_daily leaked into another user's record")
	}

	if _, err := rec.Use(2, "shop_weekly", c); err != nil {
		t.Fatalf("use shop_weekly: %v", err)
	}
	weekly, _ := c.Lookup("shop_weekly")
	for _, ch := range rec.Characters {
		if got := ch.Progress.Remaining(weekly); got != weekly.Max-1 {
			t.Fatalf("character %s shop_weekly=%d, want %d", ch.Name, got, weekly.Max-1)
		}
	}
}

func TestCharacterTaskStaysOnOneCharacter(t *testing.T) {
	c := DefaultCatalog()
	rec := NewRecord(1, c, []string{"A", "B"}, testNow)

	if _, err := rec.Use(0, "daily_quest", c); err != nil {
		t.Fatalf("use: %v", err)
	}
	d, _ := c.Lookup("daily_quest")
	if !rec.Characters[0].Progress.IsDone(d) || rec.Characters[1].Progress.IsDone(d) {
		t.Fatalf("daily_quest should only change the first character")
	}
}

func TestUseCharacterFollowsNameAfterRemoval(t *testing.T) {
	c := DefaultCatalog()
	rec := NewRecord(1, c, []string{"A", "B", "C"}, testNow)
	if err := rec.RemoveCharacter("A"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	page, _, err := rec.UseCharacter("B", "daily_quest", c)
	if err != nil {
		t.Fatalf("use: %v", err)
	}
	if page != 0 {
		t.Fatalf("B is now on page %d, want 0", page)
	}
	d, _ := c.Lookup("daily_quest")
	if !rec.Characters[0].Progress.IsDone(d) {
		t.Fatalf("click for B did not reach B")
	}
	if rec.Characters[1].Progress.IsDone(d) {
		t.Fatalf("click for B landed on C")
	}

	if _, _, err := rec.UseCharacter("A", "daily_quest", c); !errors.Is(err, ErrCharacterNotFound) {
		t.Fatalf("click for removed character err=%v, want ErrCharacterNotFound", err)
	}
	if _, _, err := NewRecord(2, c, nil, testNow).UseCharacter("A", "raid", c); !errors.Is(err, ErrNoCharacters) {
		t.Fatalf("empty record err=%v, want ErrNoCharacters", err)
	}
}

func TestAddCharacterTwiceIsRejected(t *testing.T) {
	c := DefaultCatalog()
	rec := NewRecord(1, c, nil, testNow)
	if err := rec.AddCharacter("Main", c); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := rec.Use(0, "daily_quest", c); err != nil {
		t.Fatalf("use: %v", err)
	}

	for _, name := range []string{"Main", "  Main "} {
		if err := rec.AddCharacter(name, c); !errors.Is(err, ErrCharacterExists) {
			t.Fatalf("AddCharacter(%q) err=%v, want ErrCharacterExists", name, err)
		}
	}
	if len(rec.Characters) != 1 {
		t.Fatalf("characters=%d, want 1", len(rec.Characters))
	}
	d, _ := c.Lookup("daily_quest")
	if !rec.Characters[0].Progress.IsDone(d) {
		t.Fatalf("rejected add must not touch existing progress")
	}
}

func TestAddCharacterValidatesName(t *testing.T) {
	c := DefaultCatalog()
	rec := NewRecord(1, c, nil, testNow)
	for _, name := range []string{"", "   ", "123456789012345678901234567890123"} {
		if err := rec.AddCharacter(name, c); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("AddCharacter(%q) err=%v, want ErrInvalidName", name, err)
		}
	}
}

func TestNewCharacterInheritsAccountTasks(t *testing.T) {
	c := DefaultCatalog()
	rec := NewRecord(1, c, []string{"A"}, testNow)
	if _, err := rec.Use(0, "shop_daily", c); err != nil {
		t.Fatalf("use: %v", err)
	}
	if err := rec.AddCharacter("B", c); err != nil {
		t.Fatalf("add: %v", err)
	}

	shop, _ := c.Lookup("shop_daily")
	quest, _ := c.Lookup("daily_quest")
	b := rec.Characters[1].Progress
	if !b.IsDone(shop) {
		t.Fatalf("new character should share the account shop state")
	}
	if b.IsDone(quest) {
		t.Fatalf("new character should start with fresh character tasks")
	}
}

func TestRemoveCharacter(t *testing.T) {
	c := DefaultCatalog()
	rec := NewRecord(1, c, []string{"A", "B"}, testNow)

	if err := rec.RemoveCharacter("Z"); !errors.Is(err, ErrCharacterNotFound) {
		t.Fatalf("remove missing err=%v, want ErrCharacterNotFound", err)
	}
	if err := rec.RemoveCharacter("A"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if names := rec.Names(); len(names) != 1 || names[0] != "B" {
		t.Fatalf("names=%v, want [B]", names)
	}
}

func TestUseErrors(t *testing.T) {
	c := DefaultCatalog()
	empty := NewRecord(1, c, nil, testNow)
	if _, err := empty.Use(0, "daily_quest", c); !errors.Is(err, ErrNoCharacters) {
		t.Fatalf("err=%v, want ErrNoCharacters", err)
	}

	rec := NewRecord(1, c, []string{"A"}, testNow)
	if _, err := rec.Use(3, "daily_quest", c); !errors.Is(err, ErrCharacterNotFound) {
		t.Fatalf("err=%v, want ErrCharacterNotFound", err)
	}
	if _, err := rec.Use(0, "nope", c); !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("err=%v, want ErrUnknownTask", err)
	}
}

func completeAll(t *testing.T, rec *Record, c *Catalog) {
	t.Helper()
	for page := range rec.Characters {
		for _, d := range c.Defs() {
			for !rec.Characters[page].Progress.IsDone(d) {
				if _, err := rec.Use(page, d.Key, c); err != nil {
					t.Fatalf("use %s: %v", d.Key, err)
				}
			}
		}
	}
}

func TestNormalizeDailyKeepsWeeklyTasks(t *testing.T) {
	c := DefaultCatalog()
	tuesday := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	rec := NewRecord(1, c, []string{"A"}, tuesday)
	completeAll(t, rec, c)

	if changed, _ := rec.Normalize(time.Date(2026, 3, 4, 5, 59, 0, 0, time.UTC), testSchedule, c); changed {
		t.Fatalf("no boundary passed before 06:00")
	}

	wednesday := time.Date(2026, 3, 4, 7, 0, 0, 0, time.UTC)
	changed, period := rec.Normalize(wednesday, testSchedule, c)
	if !changed || period != Daily {
		t.Fatalf("Normalize=(%v, %v), want (true, daily)", changed, period)
	}

	p := rec.Characters[0].Progress
	for _, d := range c.Defs() {
		if d.Period == Daily && p.IsDone(d) {
			t.Fatalf("daily task %s survived the daily reset", d.Key)
		}
		if d.Period == Weekly && !p.IsDone(d) {
			t.Fatalf("weekly task %s was cleared by the daily reset", d.Key)
		}
	}
	if !rec.ResetAt.Equal(wednesday) {
		t.Fatalf("ResetAt=%v, want %v", rec.ResetAt, wednesday)
	}
}

func TestNormalizeWeeklyClearsEverything(t *testing.T) {
	c := DefaultCatalog()
	rec := NewRecord(1, c, []string{"A", "B"}, testNow)
	completeAll(t, rec, c)

	monday := time.Date(2026, 3, 9, 6, 30, 0, 0, time.UTC)
	changed, period := rec.Normalize(monday, testSchedule, c)
	if !changed || period != Weekly {
		t.Fatalf("Normalize=(%v, %v), want (true, weekly)", changed, period)
	}
	for _, ch := range rec.Characters {
		if open := ch.Progress.Unfinished(c); len(open) != len(c.Defs()) {
			t.Fatalf("%s has %d open tasks after weekly reset, want %d", ch.Name, len(open), len(c.Defs()))
		}
	}

	if changed, _ := rec.Normalize(monday.Add(time.Hour), testSchedule, c); changed {
		t.Fatalf("second Normalize in the same period should be a no-op")
	}
}

func TestNudgeDue(t *testing.T) {
	rec := &Record{}
	if rec.NudgeDue(testNow) {
		t.Fatalf("no nudge set")
	}
	at := testNow.Add(time.Minute)
	rec.NudgeAt = &at
	if rec.NudgeDue(testNow) {
		t.Fatalf("nudge fired early")
	}
	if !rec.NudgeDue(at) {
		t.Fatalf("nudge should be due at its time")
	}
}
