package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreGetAbsent(t *testing.T) {
	s := NewFileStore(t.TempDir())

	v, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != nil {
		t.Errorf("Get(missing) = %v, want nil", v)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	if err := s.Set(ctx, "relay@1:client//ctx//subscription", []byte("payload")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	v, err := s.Get(ctx, "relay@1:client//ctx//subscription")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(v) != "payload" {
		t.Errorf("Get = %q, want payload", v)
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := NewFileStore(dir)
	if err := s.Set(ctx, "k", []byte("durable")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A fresh store over the same directory sees the value
	s2 := NewFileStore(dir)
	v, err := s2.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(v) != "durable" {
		t.Errorf("Get after reopen = %q, want durable", v)
	}
}

func TestFileStoreCreatesDirOnWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	s := NewFileStore(dir)

	if err := s.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("store directory not created: %v", err)
	}
}

func TestFileStoreDelete(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	s.Set(ctx, "k", []byte("v"))
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if v, _ := s.Get(ctx, "k"); v != nil {
		t.Errorf("Get after delete = %v, want nil", v)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of absent key failed: %v", err)
	}
}

func TestFileStoreKeysDoNotCollide(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	s.Set(ctx, "a//b", []byte("one"))
	s.Set(ctx, "a/_b", []byte("two"))

	v1, _ := s.Get(ctx, "a//b")
	v2, _ := s.Get(ctx, "a/_b")
	if string(v1) != "one" || string(v2) != "two" {
		t.Errorf("keys collided: %q %q", v1, v2)
	}
}
