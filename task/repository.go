package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/homework/store"
	"github.com/leeineian/homework/sys"
)

// Repository loads and saves records through a store.Store, applying any
// pending reset on every load.
type Repository struct {
	store    store.Store
	catalog  *Catalog
	schedule Schedule
	defaults []string
	now      func() time.Time

	mu sync.Mutex

	countMu sync.RWMutex
	counts  map[snowflake.ID]int
}

func NewRepository(s store.Store, c *Catalog, sched Schedule, defaults []string) *Repository {
	return &Repository{
		store:    s,
		catalog:  c,
		schedule: sched,
		defaults: defaults,
		now:      time.Now,
		counts:   make(map[snowflake.ID]int),
	}
}

func (r *Repository) Catalog() *Catalog  { return r.catalog }
func (r *Repository) Schedule() Schedule { return r.schedule }
func (r *Repository) Now() time.Time     { return r.now() }

// CharacterCount returns how many characters the records seen so far track.
// It covers every stored record once Sweep or All has run, and it does not
// wait on the repository lock.
func (r *Repository) CharacterCount() int {
	r.countMu.RLock()
	defer r.countMu.RUnlock()
	n := 0
	for _, c := range r.counts {
		n += c
	}
	return n
}

// SetClock replaces the time source used for resets and new records.
func (r *Repository) SetClock(now func() time.Time) { r.now = now }

// Get returns the user's record, or ErrNoRecord when none exists. A reset
// applied during the load is persisted before returning.
func (r *Repository) Get(ctx context.Context, userID snowflake.ID) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, changed, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := r.save(ctx, rec); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// Update runs fn on the user's record under the repository lock and saves
// the result when fn returns nil. With create set, a missing record is seeded
// from the default characters instead of failing with ErrNoRecord.
func (r *Repository) Update(ctx context.Context, userID snowflake.ID, create bool, fn func(*Record) error) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, _, err := r.load(ctx, userID)
	if errors.Is(err, ErrNoRecord) && create {
		rec = NewRecord(userID, r.catalog, r.defaults, r.now())
	} else if err != nil {
		return nil, err
	}

	if err := fn(rec); err != nil {
		return nil, err
	}
	if err := r.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete drops the user's record.
func (r *Repository) Delete(ctx context.Context, userID snowflake.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Delete(ctx, userID.String()); err != nil {
		return err
	}
	r.setCount(userID, 0)
	return nil
}

// All loads every record in key order. Keys that are not user IDs or blobs
// that fail to decode are logged and skipped.
func (r *Repository) All(ctx context.Context) ([]*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, err := r.store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	records := make([]*Record, 0, len(keys))
	for _, key := range keys {
		id, err := snowflake.Parse(key)
		if err != nil {
			sys.LogDatabase(sys.MsgRecordSkipped, key, err)
			continue
		}
		rec, _, err := r.load(ctx, id)
		if err != nil {
			sys.LogDatabase(sys.MsgRecordSkipped, key, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Sweep applies pending resets to every stored record and returns how many
// records changed.
func (r *Repository) Sweep(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, err := r.store.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list records: %w", err)
	}

	n := 0
	for _, key := range keys {
		id, err := snowflake.Parse(key)
		if err != nil {
			continue
		}
		rec, changed, err := r.load(ctx, id)
		if err != nil {
			sys.LogReset(sys.MsgRecordSkipped, key, err)
			continue
		}
		if !changed {
			continue
		}
		if err := r.save(ctx, rec); err != nil {
			sys.LogReset(sys.MsgResetSaveFail, key, err)
			continue
		}
		n++
	}
	return n, nil
}

func (r *Repository) load(ctx context.Context, userID snowflake.ID) (*Record, bool, error) {
	data, err := r.store.Get(ctx, userID.String())
	if errors.Is(err, store.ErrNotFound) {
		r.setCount(userID, 0)
		return nil, false, ErrNoRecord
	}
	if err != nil {
		return nil, false, fmt.Errorf("load record %s: %w", userID, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("decode record %s: %w", userID, err)
	}
	rec.UserID = userID
	changed, _ := rec.Normalize(r.now(), r.schedule, r.catalog)
	r.setCount(userID, len(rec.Characters))
	return &rec, changed, nil
}

func (r *Repository) save(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.UserID, err)
	}
	if err := r.store.Put(ctx, rec.UserID.String(), data); err != nil {
		return fmt.Errorf("save record %s: %w", rec.UserID, err)
	}
	r.setCount(rec.UserID, len(rec.Characters))
	return nil
}

func (r *Repository) setCount(userID snowflake.ID, n int) {
	r.countMu.Lock()
	defer r.countMu.Unlock()
	if n == 0 {
		delete(r.counts, userID)
		return
	}
	r.counts[userID] = n
}
