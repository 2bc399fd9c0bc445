package regioncache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/regioncache/codec"
	"github.com/unkn0wn-root/regioncache/internal/wire"
	"github.com/unkn0wn-root/regioncache/store"
)

// mapStore is an in-memory fake with switchable failure modes.
type mapStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
	failSet bool
}

var errBoom = errors.New("boom")

func newMapStore() *mapStore { return &mapStore{data: map[string][]byte{}} }

func (s *mapStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return nil, false, errBoom
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *mapStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet {
		return errBoom
	}
	s.data[key] = value
	return nil
}

func (s *mapStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *mapStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for k := range s.data {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *mapStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = map[string][]byte{}
	return nil
}

func (s *mapStore) Close(context.Context) error { return nil }

func (s *mapStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func testRegion(t *testing.T, st store.Store) *Region {
	t.Helper()
	return &Region{
		kind:       KindMemory,
		ttlSeconds: 60,
		st:         st,
		cod:        codec.Msgpack{},
		inv:        &watermark{},
		lock:       newKeyLocker(),
		log:        NopLogger{},
		hooks:      NopHooks{},
		markers:    DefaultOpaqueTypeMarkers,
		disabled:   func() bool { return false },
	}
}

func TestRegionRoundtrip(t *testing.T) {
	ctx := context.Background()
	r := testRegion(t, newMapStore())

	if err := r.Set(ctx, "k", "hello"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := r.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get = (%v, %v, %v)", v, ok, err)
	}
	if v != "hello" {
		t.Fatalf("value = %v", v)
	}
}

func TestRegionMiss(t *testing.T) {
	r := testRegion(t, newMapStore())
	_, ok, err := r.Get(context.Background(), "absent")
	if ok || err != nil {
		t.Fatalf("Get = (_, %v, %v)", ok, err)
	}
}

func TestRegionStoreErrorSurfaces(t *testing.T) {
	ctx := context.Background()
	st := newMapStore()
	r := testRegion(t, st)

	st.failGet = true
	_, _, err := r.Get(ctx, "k")
	var se *StoreError
	if !errors.As(err, &se) || se.Op != "get" || !errors.Is(err, errBoom) {
		t.Fatalf("Get err = %v", err)
	}

	st.failGet = false
	st.failSet = true
	err = r.Set(ctx, "k", "v")
	if !errors.As(err, &se) || se.Op != "set" || !errors.Is(err, errBoom) {
		t.Fatalf("Set err = %v", err)
	}
}

func TestRegionSelfHealsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	st := newMapStore()
	r := testRegion(t, st)

	st.data[r.mangle("bad")] = []byte("not an envelope")
	if _, ok, err := r.Get(ctx, "bad"); ok || err != nil {
		t.Fatalf("Get = (_, %v, %v)", ok, err)
	}
	if st.len() != 0 {
		t.Fatal("corrupt entry was not deleted")
	}
}

func TestRegionExpiredEntryReadsAsMiss(t *testing.T) {
	ctx := context.Background()
	st := newMapStore()
	r := testRegion(t, st)

	payload, err := codec.Msgpack{}.Encode("stale")
	if err != nil {
		t.Fatal(err)
	}
	st.data[r.mangle("old")] = wire.EncodeEntry(time.Now().Add(-2*time.Minute), payload)

	if _, ok, err := r.Get(ctx, "old"); ok || err != nil {
		t.Fatalf("Get = (_, %v, %v)", ok, err)
	}
	if st.len() != 0 {
		t.Fatal("expired entry was not deleted")
	}
}

func TestRegionInvalidationWatermark(t *testing.T) {
	ctx := context.Background()
	st := newMapStore()
	r := testRegion(t, st)

	if err := r.Set(ctx, "k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := r.inv.Invalidate(ctx, false); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := r.Get(ctx, "k"); ok {
		t.Fatal("pre-watermark entry still readable")
	}

	// a fresh write lands after the watermark
	time.Sleep(time.Millisecond)
	if err := r.Set(ctx, "k", "v2"); err != nil {
		t.Fatal(err)
	}
	v, ok, _ := r.Get(ctx, "k")
	if !ok || v != "v2" {
		t.Fatalf("Get = (%v, %v)", v, ok)
	}
}

func TestRegionDelete(t *testing.T) {
	ctx := context.Background()
	r := testRegion(t, newMapStore())
	if err := r.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := r.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := r.Get(ctx, "k"); ok {
		t.Fatal("key survived Delete")
	}
	// deleting again is fine
	if err := r.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
}

func TestDecorateMemoizes(t *testing.T) {
	ctx := context.Background()
	r := testRegion(t, newMapStore())

	calls := 0
	cached := r.Decorate(userSpec(), func(ctx context.Context, args CallArgs) (any, error) {
		calls++
		return "user-42", nil
	})

	for i := 0; i < 3; i++ {
		v, err := cached(ctx, CallArgs{Pos: []any{42}})
		if err != nil || v != "user-42" {
			t.Fatalf("call %d = (%v, %v)", i, v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	// different arguments compute separately
	if _, err := cached(ctx, CallArgs{Pos: []any{43}}); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestDecorateConcurrentSingleCompute(t *testing.T) {
	ctx := context.Background()
	r := testRegion(t, newMapStore())

	var calls int32
	var mu sync.Mutex
	cached := r.Decorate(userSpec(), func(ctx context.Context, args CallArgs) (any, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		return "v", nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cached(ctx, CallArgs{Pos: []any{1}}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDecorateErrorNotCached(t *testing.T) {
	ctx := context.Background()
	r := testRegion(t, newMapStore())

	calls := 0
	cached := r.Decorate(userSpec(), func(ctx context.Context, args CallArgs) (any, error) {
		calls++
		if calls == 1 {
			return nil, errBoom
		}
		return "ok", nil
	})

	if _, err := cached(ctx, CallArgs{Pos: []any{1}}); !errors.Is(err, errBoom) {
		t.Fatalf("err = %v", err)
	}
	v, err := cached(ctx, CallArgs{Pos: []any{1}})
	if err != nil || v != "ok" {
		t.Fatalf("retry = (%v, %v)", v, err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestDecorateSkipsEmptyResults(t *testing.T) {
	ctx := context.Background()
	r := testRegion(t, newMapStore())

	calls := 0
	cached := r.Decorate(userSpec(), func(ctx context.Context, args CallArgs) (any, error) {
		calls++
		return []string{}, nil
	})

	for i := 0; i < 2; i++ {
		if _, err := cached(ctx, CallArgs{Pos: []any{1}}); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 2 {
		t.Fatalf("empty result was cached, calls = %d", calls)
	}

	// an explicit predicate can opt empties in
	calls = 0
	always := r.Decorate(FuncSpec{Name: "other", Params: []Param{{Name: "id"}}},
		func(ctx context.Context, args CallArgs) (any, error) {
			calls++
			return []string{}, nil
		},
		WithShouldCache(func(any) bool { return true }),
	)
	for i := 0; i < 2; i++ {
		if _, err := always(ctx, CallArgs{Pos: []any{1}}); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDecorateStoreFailurePropagates(t *testing.T) {
	ctx := context.Background()
	st := newMapStore()
	r := testRegion(t, st)
	st.failSet = true

	cached := r.Decorate(userSpec(), func(ctx context.Context, args CallArgs) (any, error) {
		return "v", nil
	})
	_, err := cached(ctx, CallArgs{Pos: []any{1}})
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StoreError", err)
	}
}

func TestRegionDisabledPassthrough(t *testing.T) {
	ctx := context.Background()
	st := newMapStore()
	r := testRegion(t, st)
	on := false
	r.disabled = func() bool { return on }

	if err := r.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	on = true
	if _, ok, _ := r.Get(ctx, "k"); ok {
		t.Fatal("disabled region returned a hit")
	}
	if err := r.Set(ctx, "k2", "v"); err != nil {
		t.Fatal(err)
	}
	if _, present := st.data["k2"]; present {
		t.Fatal("disabled region wrote to the store")
	}

	calls := 0
	cached := r.Decorate(userSpec(), func(ctx context.Context, args CallArgs) (any, error) {
		calls++
		return "v", nil
	})
	for i := 0; i < 2; i++ {
		if _, err := cached(ctx, CallArgs{Pos: []any{1}}); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 2 {
		t.Fatalf("disabled decorate memoized, calls = %d", calls)
	}
}

func TestShouldCache(t *testing.T) {
	var nilPtr *int
	n := 5
	cases := []struct {
		v    any
		want bool
	}{
		{nil, false},
		{"", false},
		{"x", true},
		{0, false},
		{1, true},
		{[]string{}, false},
		{[]string{"a"}, true},
		{map[string]int{}, false},
		{map[string]int{"a": 1}, true},
		{nilPtr, false},
		{&n, true},
		{false, false},
		{true, true},
	}
	for _, c := range cases {
		if got := ShouldCache(c.v); got != c.want {
			t.Errorf("ShouldCache(%#v) = %v, want %v", c.v, got, c.want)
		}
	}
}
