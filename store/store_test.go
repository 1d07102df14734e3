package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openers() map[string]func(t *testing.T, dir string) Store {
	return map[string]func(t *testing.T, dir string) Store{
		"sqlite": func(t *testing.T, dir string) Store {
			s, err := OpenSQLite(context.Background(), filepath.Join(dir, "test.db"))
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return s
		},
		"bolt": func(t *testing.T, dir string) Store {
			s, err := OpenBolt(filepath.Join(dir, "test.bolt"))
			if err != nil {
				t.Fatalf("open bolt: %v", err)
			}
			return s
		},
		"json": func(t *testing.T, dir string) Store {
			s, err := OpenJSONFile(filepath.Join(dir, "test.json"))
			if err != nil {
				t.Fatalf("open json: %v", err)
			}
			return s
		},
	}
}

func TestStoreBackends(t *testing.T) {
	for name, open := range openers() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t, t.TempDir())
			defer s.Close()

			if _, err := s.Get(ctx, "1"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get missing err=%v, want ErrNotFound", err)
			}

			if err := s.Put(ctx, "2", []byte(`{"v":2}`)); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := s.Put(ctx, "1", []byte(`{"v":1}`)); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := s.Put(ctx, "1", []byte(`{"v":3}`)); err != nil {
				t.Fatalf("overwrite: %v", err)
			}

			data, err := s.Get(ctx, "1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if string(data) != `{"v":3}` {
				t.Fatalf("Get=%s, want overwritten blob", data)
			}

			keys, err := s.Keys(ctx)
			if err != nil {
				t.Fatalf("keys: %v", err)
			}
			if len(keys) != 2 || keys[0] != "1" || keys[1] != "2" {
				t.Fatalf("Keys=%v, want [1 2]", keys)
			}

			if err := s.Delete(ctx, "1"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := s.Delete(ctx, "1"); err != nil {
				t.Fatalf("delete missing: %v", err)
			}
			if _, err := s.Get(ctx, "1"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get deleted err=%v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	for name, open := range openers() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()

			s := open(t, dir)
			if err := s.Put(ctx, "10", []byte(`{"name":"Main"}`)); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := s.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}

			s = open(t, dir)
			defer s.Close()
			data, err := s.Get(ctx, "10")
			if err != nil {
				t.Fatalf("get after reopen: %v", err)
			}
			if string(data) != `{"name":"Main"}` {
				t.Fatalf("Get=%s", data)
			}
		})
	}
}

func TestJSONFileRejectsInvalidBlob(t *testing.T) {
	s, err := OpenJSONFile(filepath.Join(t.TempDir(), "data.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Put(context.Background(), "1", []byte("not json")); err == nil {
		t.Fatalf("invalid blob was accepted")
	}
	keys, _ := s.Keys(context.Background())
	if len(keys) != 0 {
		t.Fatalf("Keys=%v after rejected put", keys)
	}
}

func TestJSONFileKeepsBlobBytesAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	s, err := OpenJSONFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	blobs := map[string]string{
		"1": `{"name":"Main","progress":{"done":{"raid":true}}}`,
		"2": `{"name":"<R&D>"}`,
	}
	for k, v := range blobs {
		if err := s.Put(ctx, k, []byte(v)); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	if err := s.Put(ctx, "3", []byte("{\n  \"name\": \"Alt\"\n}")); err != nil {
		t.Fatalf("put indented: %v", err)
	}
	blobs["3"] = `{"name":"Alt"}`

	check := func(s *JSONFile, when string) {
		t.Helper()
		for k, want := range blobs {
			got, err := s.Get(ctx, k)
			if err != nil {
				t.Fatalf("%s: get %s: %v", when, k, err)
			}
			if string(got) != want {
				t.Fatalf("%s: Get(%s)=%s, want %s", when, k, got, want)
			}
		}
	}
	check(s, "before reopen")

	reopened, err := OpenJSONFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	check(reopened, "after reopen")
}
