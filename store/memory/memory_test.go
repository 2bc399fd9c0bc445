package memory

import (
	"bytes"
	"context"
	"sort"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{TTL: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	want := []byte("payload")
	if err := s.Set(ctx, "k", want, time.Minute); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get = (_, %v, %v)", ok, err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("value = %q", got)
	}
}

func TestMiss(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.Get(context.Background(), "absent")
	if ok || err != nil {
		t.Fatalf("Get = (_, %v, %v)", ok, err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Del(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("key survived Del")
	}
	// deleting a missing key is fine
	if err := s.Del(ctx, "k"); err != nil {
		t.Fatal(err)
	}
}

func TestKeysPrefix(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for _, k := range []string{"a:1", "a:2", "b:1"} {
		if err := s.Set(ctx, k, []byte("v"), 0); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Keys(ctx, "a:")
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(got)
	if len(got) != 2 || got[0] != "a:1" || got[1] != "a:2" {
		t.Fatalf("Keys(a:) = %v", got)
	}

	all, err := s.Keys(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("Keys() = %v", all)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("key survived Clear")
	}
}

func TestLifeWindowExpiry(t *testing.T) {
	ctx := context.Background()
	if testing.Short() {
		t.Skip("timing-dependent")
	}
	s, err := New(Config{TTL: time.Second, CleanWindow: 500 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(ctx)

	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2200 * time.Millisecond)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("entry outlived the life window")
	}
}
