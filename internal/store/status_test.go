package store

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStatusRoundTrip(t *testing.T) {
	s := NewMemoryStatus()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get on empty store = ok=%v err=%v; want not found", ok, err)
	}

	start := time.Now()
	want := Status{
		Status:   "encoding",
		Progress: 90,
		Message:  "assembling document",
		Start:    &start,
		Metadata: map[string]interface{}{"images": 3},
	}
	if err := s.Set(ctx, "job-1", want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := s.Get(ctx, "job-1")
	if err != nil || !ok {
		t.Fatalf("Get = ok=%v err=%v", ok, err)
	}
	if got.Status != want.Status || got.Progress != want.Progress || got.Message != want.Message {
		t.Errorf("Get = %+v; want %+v", got, want)
	}
	if got.Metadata["images"] != 3 {
		t.Errorf("metadata lost: %+v", got.Metadata)
	}
}

func TestMemoryStatusOverwrite(t *testing.T) {
	s := NewMemoryStatus()
	ctx := context.Background()

	_ = s.Set(ctx, "job-1", Status{Status: "queued", Progress: 0})
	_ = s.Set(ctx, "job-1", Status{Status: "done", Progress: 100})

	got, ok, _ := s.Get(ctx, "job-1")
	if !ok || got.Status != "done" || got.Progress != 100 {
		t.Errorf("latest write must win, got %+v", got)
	}
}

func TestMemoryStatusConcurrentAccess(t *testing.T) {
	s := NewMemoryStatus()
	ctx := context.Background()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = s.Set(ctx, "job", Status{Status: "normalizing", Progress: i % 100})
		}
	}()
	for i := 0; i < 200; i++ {
		_, _, _ = s.Get(ctx, "job")
	}
	<-done
}
