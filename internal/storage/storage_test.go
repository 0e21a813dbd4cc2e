package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMemory_RoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing = %v, want ErrNotFound", err)
	}

	if err := m.Set(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	b, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if string(b) != `{"a":1}` {
		t.Fatalf("Get = %q", b)
	}

	// Returned slice is a copy; mutating it must not corrupt the store.
	b[0] = 'X'
	again, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if string(again) != `{"a":1}` {
		t.Fatalf("stored value mutated: %q", again)
	}
}

func TestFile_RoundTripAndOverwrite(t *testing.T) {
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile error: %v", err)
	}
	ctx := context.Background()

	if _, err := f.Get(ctx, "agenda/snapshot/v1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing = %v, want ErrNotFound", err)
	}

	if err := f.Set(ctx, "agenda/snapshot/v1", []byte(`{"clients":[]}`)); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	b, err := f.Get(ctx, "agenda/snapshot/v1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if string(b) != `{"clients":[]}` {
		t.Fatalf("Get = %q", b)
	}

	if err := f.Set(ctx, "agenda/snapshot/v1", []byte(`{"clients":[1]}`)); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}
	b, err = f.Get(ctx, "agenda/snapshot/v1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if string(b) != `{"clients":[1]}` {
		t.Fatalf("after overwrite = %q", b)
	}
}

func TestFile_NoTempFilesLeftBehind(t *testing.T) {
	root := t.TempDir()
	f, err := NewFile(root)
	if err != nil {
		t.Fatalf("NewFile error: %v", err)
	}
	if err := f.Set(context.Background(), "snap", []byte("x")); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" && !e.IsDir() {
			t.Fatalf("unexpected leftover %q", e.Name())
		}
	}
}

func TestFile_RejectsBadKeys(t *testing.T) {
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile error: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"", "  ", "/abs", "../escape", "a/../../b"} {
		if err := f.Set(ctx, key, []byte("x")); err == nil {
			t.Fatalf("Set(%q) succeeded, want error", key)
		}
	}
}

func TestOpen_SelectsDriver(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Driver: DriverMemory})
	if err != nil {
		t.Fatalf("Open memory error: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Fatalf("driver = %T, want *Memory", s)
	}

	s, err = Open(ctx, Options{Driver: DriverFile, FilePath: t.TempDir()})
	if err != nil {
		t.Fatalf("Open file error: %v", err)
	}
	if _, ok := s.(*File); !ok {
		t.Fatalf("driver = %T, want *File", s)
	}

	// Empty driver defaults to file.
	s, err = Open(ctx, Options{FilePath: t.TempDir()})
	if err != nil {
		t.Fatalf("Open default error: %v", err)
	}
	if _, ok := s.(*File); !ok {
		t.Fatalf("default driver = %T, want *File", s)
	}

	if _, err := Open(ctx, Options{Driver: Driver("bogus")}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
