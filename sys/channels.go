package sys

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// Channel routing keys.
const (
	ChannelAlert    = "alert"
	ChannelHomework = "homework"
)

var ChannelKinds = []string{ChannelAlert, ChannelHomework}

// Channels routes alert and homework posts. The mapping lives in a flat JSON
// object on disk that is rewritten wholesale on every change.
type Channels struct {
	path     string
	fallback snowflake.ID

	mu     sync.RWMutex
	routes map[string]snowflake.ID
}

// OpenChannels loads the routing file at path. A missing file is an empty mapping.
func OpenChannels(path string, fallback snowflake.ID) (*Channels, error) {
	c := &Channels{
		path:     path,
		fallback: fallback,
		routes:   make(map[string]snowflake.ID),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read channel routes: %w", err)
	}
	if len(data) == 0 {
		return c, nil
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode channel routes: %w", err)
	}
	for kind, idStr := range raw {
		id, err := snowflake.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("channel route %q: %w", kind, err)
		}
		c.routes[kind] = id
	}
	return c, nil
}

// Get returns the channel for kind, falling back to the default channel.
// The zero ID means nothing is configured.
func (c *Channels) Get(kind string) snowflake.ID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if id, ok := c.routes[kind]; ok && id != 0 {
		return id
	}
	return c.fallback
}

// Set updates one route and persists the whole mapping.
func (c *Channels) Set(kind string, id snowflake.ID) error {
	if !slices.Contains(ChannelKinds, kind) {
		return fmt.Errorf("unknown channel kind %q", kind)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev, had := c.routes[kind]
	c.routes[kind] = id
	if err := c.flush(); err != nil {
		if had {
			c.routes[kind] = prev
		} else {
			delete(c.routes, kind)
		}
		return err
	}
	return nil
}

func (c *Channels) flush() error {
	raw := make(map[string]string, len(c.routes))
	for k, id := range c.routes {
		raw[k] = id.String()
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(c.path, data)
}

// WriteFileAtomic replaces path with data through a temp file and rename.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
