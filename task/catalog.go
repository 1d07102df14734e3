// Package task models per-character homework checklists and their resets.
package task

import (
	"errors"
	"fmt"
)

// Kind selects how a task records progress.
type Kind int

const (
	// Binary tasks are a done/not-done checkbox.
	Binary Kind = iota
	// Count tasks hold a counter that decrements per use and wraps to Max.
	Count
)

// Scope selects which characters share a task's state.
type Scope int

const (
	PerCharacter Scope = iota
	// Account tasks (shop purchases) share one value across a user's characters.
	Account
)

// Period selects which reset clears a task.
type Period int

const (
	Daily Period = iota
	Weekly
)

func (p Period) String() string {
	if p == Weekly {
		return "weekly"
	}
	return "daily"
}

// Def describes one checklist item.
type Def struct {
	Key    string
	Label  string
	Kind   Kind
	Max    int
	Scope  Scope
	Period Period
}

// Catalog is the ordered set of tasks every character tracks.
type Catalog struct {
	defs  []Def
	byKey map[string]int
}

func NewCatalog(defs ...Def) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, errors.New("catalog is empty")
	}
	c := &Catalog{byKey: make(map[string]int, len(defs))}
	for i, d := range defs {
		if d.Key == "" {
			return nil, fmt.Errorf("task %d has no key", i)
		}
		if _, dup := c.byKey[d.Key]; dup {
			return nil, fmt.Errorf("duplicate task key %q", d.Key)
		}
		if d.Kind == Count && d.Max < 1 {
			return nil, fmt.Errorf("count task %q needs a max of at least 1", d.Key)
		}
		if d.Label == "" {
			d.Label = d.Key
		}
		c.byKey[d.Key] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	return c, nil
}

// DefaultCatalog is the checklist shipped with the bot.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		Def{Key: "daily_quest", Label: "일일 퀘스트", Kind: Binary},
		Def{Key: "dungeon", Label: "요일 던전", Kind: Binary},
		Def{Key: "field_boss", Label: "필드 보스", Kind: Count, Max: 2},
		Def{Key: "abyss", Label: "심연 던전", Kind: Count, Max: 3},
		Def{Key: "shop_daily", Label: "일일 상점", Kind: Binary, Scope: Account},
		Def{Key: "raid", Label: "주간 레이드", Kind: Binary, Period: Weekly},
		Def{Key: "weekly_quest", Label: "주간 퀘스트", Kind: Count, Max: 5, Period: Weekly},
		Def{Key: "shop_weekly", Label: "주간 상점", Kind: Count, Max: 3, Scope: Account, Period: Weekly},
	)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Defs() []Def {
	return c.defs
}

func (c *Catalog) Lookup(key string) (Def, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Def{}, false
	}
	return c.defs[i], true
}
