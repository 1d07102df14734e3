package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/leeineian/homework/sys"
)

// JSONFile keeps every blob in one JSON object on disk, rewritten on each Put.
// Blobs are held in compact form, so Get returns the compacted Put bytes both
// before and after a reopen.
type JSONFile struct {
	path string

	mu    sync.RWMutex
	blobs map[string]json.RawMessage
}

func OpenJSONFile(path string) (*JSONFile, error) {
	f := &JSONFile{path: path, blobs: make(map[string]json.RawMessage)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &f.blobs); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	for k, v := range f.blobs {
		compacted, err := compactJSON(v)
		if err != nil {
			return nil, fmt.Errorf("decode %s: key %s: %w", path, k, err)
		}
		f.blobs[k] = compacted
	}
	return f, nil
}

func (f *JSONFile) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (f *JSONFile) Put(_ context.Context, key string, data []byte) error {
	compacted, err := compactJSON(data)
	if err != nil {
		return fmt.Errorf("blob for %s is not valid JSON: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.blobs[key]
	f.blobs[key] = compacted
	if err := f.flush(); err != nil {
		if had {
			f.blobs[key] = prev
		} else {
			delete(f.blobs, key)
		}
		return err
	}
	return nil
}

func (f *JSONFile) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.blobs[key]
	if !had {
		return nil
	}
	delete(f.blobs, key)
	if err := f.flush(); err != nil {
		f.blobs[key] = prev
		return err
	}
	return nil
}

func (f *JSONFile) Keys(_ context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	keys := make([]string, 0, len(f.blobs))
	for k := range f.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *JSONFile) Close() error { return nil }

// flush writes the map without indentation or HTML escaping so stored blobs
// keep their bytes.
func (f *JSONFile) flush() error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(f.blobs); err != nil {
		return err
	}
	return sys.WriteFileAtomic(f.path, buf.Bytes())
}

func compactJSON(data []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}
