package task

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/disgoorg/snowflake/v2"
)

var (
	ErrCharacterExists   = errors.New("character already exists")
	ErrCharacterNotFound = errors.New("character not found")
	ErrInvalidName       = errors.New("invalid character name")
	ErrUnknownTask       = errors.New("unknown task")
	ErrNoCharacters      = errors.New("no characters registered")
	ErrNoRecord          = errors.New("no homework record")
)

// MaxNameLength bounds character names so they fit in button labels and custom IDs.
const MaxNameLength = 32

type Character struct {
	Name     string   `json:"name"`
	Progress Progress `json:"progress"`
}

// Record is everything stored for one Discord user.
type Record struct {
	UserID     snowflake.ID `json:"user_id"`
	Characters []Character  `json:"characters"`
	Alerts     bool         `json:"alerts"`
	NudgeAt    *time.Time   `json:"nudge_at,omitempty"`
	ResetAt    time.Time    `json:"reset_at"`
}

// NewRecord seeds a record with the default characters, all with fresh progress.
func NewRecord(userID snowflake.ID, c *Catalog, defaults []string, now time.Time) *Record {
	r := &Record{UserID: userID, ResetAt: now}
	for _, name := range defaults {
		_ = r.AddCharacter(name, c)
	}
	return r
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

// Index returns the position of the named character or -1.
func (r *Record) Index(name string) int {
	name = strings.TrimSpace(name)
	for i, ch := range r.Characters {
		if ch.Name == name {
			return i
		}
	}
	return -1
}

// AddCharacter appends a character with fresh progress. Account-scoped tasks
// are copied from an existing character so the shared value stays shared.
func (r *Record) AddCharacter(name string, c *Catalog) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	if r.Index(name) >= 0 {
		return ErrCharacterExists
	}

	ch := Character{Name: name, Progress: NewProgress(c)}
	if len(r.Characters) > 0 {
		for _, d := range c.Defs() {
			if d.Scope == Account {
				ch.Progress.copyTask(d, r.Characters[0].Progress)
			}
		}
	}
	r.Characters = append(r.Characters, ch)
	return nil
}

func (r *Record) RemoveCharacter(name string) error {
	i := r.Index(name)
	if i < 0 {
		return ErrCharacterNotFound
	}
	r.Characters = append(r.Characters[:i], r.Characters[i+1:]...)
	return nil
}

func (r *Record) Names() []string {
	names := make([]string, len(r.Characters))
	for i, ch := range r.Characters {
		names[i] = ch.Name
	}
	return names
}

// Use clicks task key on the character at page. Account-scoped tasks then
// carry the new value to every other character of this user.
func (r *Record) Use(page int, key string, c *Catalog) (Def, error) {
	if len(r.Characters) == 0 {
		return Def{}, ErrNoCharacters
	}
	if page < 0 || page >= len(r.Characters) {
		return Def{}, ErrCharacterNotFound
	}
	d, ok := c.Lookup(key)
	if !ok {
		return Def{}, ErrUnknownTask
	}

	src := &r.Characters[page].Progress
	src.apply(d)

	if d.Scope == Account {
		for i := range r.Characters {
			if i != page {
				r.Characters[i].Progress.copyTask(d, *src)
			}
		}
	}
	return d, nil
}

// UseCharacter clicks task key on the named character and returns its page.
func (r *Record) UseCharacter(name, key string, c *Catalog) (int, Def, error) {
	if len(r.Characters) == 0 {
		return 0, Def{}, ErrNoCharacters
	}
	page := r.Index(name)
	if page < 0 {
		return 0, Def{}, ErrCharacterNotFound
	}
	d, err := r.Use(page, key, c)
	return page, d, err
}

// ResetTasks restores daily tasks, and weekly ones too when weekly is set.
func (r *Record) ResetTasks(c *Catalog, weekly bool) {
	for i := range r.Characters {
		for _, d := range c.Defs() {
			if d.Period == Daily || weekly {
				r.Characters[i].Progress.reset(d)
			}
		}
	}
}

// Normalize applies any reset whose boundary passed since ResetAt. It reports
// whether something changed and which period was reset.
func (r *Record) Normalize(now time.Time, s Schedule, c *Catalog) (bool, Period) {
	switch {
	case r.ResetAt.Before(s.LastWeekly(now)):
		r.ResetTasks(c, true)
		r.ResetAt = now
		return true, Weekly
	case r.ResetAt.Before(s.LastDaily(now)):
		r.ResetTasks(c, false)
		r.ResetAt = now
		return true, Daily
	}
	return false, Daily
}

// NudgeDue reports whether a pending nudge should fire at now.
func (r *Record) NudgeDue(now time.Time) bool {
	return r.NudgeAt != nil && !r.NudgeAt.After(now)
}
