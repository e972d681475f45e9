package cache

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	mandel "github.com/marben/mandelview"
	"github.com/marben/mandelview/internal/engine"
)

type countingEvaluator struct {
	calls atomic.Int32
	next  mandel.Evaluator
}

func (c *countingEvaluator) Evaluate(ctx context.Context, d mandel.Domain) (*mandel.Matrix, error) {
	c.calls.Add(1)
	return c.next.Evaluate(ctx, d)
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (*mandel.Matrix, bool, error) {
	return nil, false, errors.New("backend down")
}

func (failingCache) Put(context.Context, string, *mandel.Matrix) error {
	return errors.New("backend down")
}

func smallDomain() mandel.Domain {
	d := mandel.NewDomain(mandel.DefaultRegion, mandel.Resolution{X: 24, Y: 16})
	d.MaxIter = 50
	return d
}

func mustMatrix(t *testing.T, rows [][]int, maxIter int) *mandel.Matrix {
	t.Helper()
	m, err := mandel.NewMatrix(rows, maxIter)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestEvaluatorServesRepeats(t *testing.T) {
	inner := &countingEvaluator{next: engine.New(engine.WithWorkers(2))}
	e := NewEvaluator(inner, NewMemory(4), nil)
	ctx := context.Background()

	a, err := e.Evaluate(ctx, smallDomain())
	if err != nil {
		t.Fatalf("first Evaluate: %v", err)
	}
	b, err := e.Evaluate(ctx, smallDomain())
	if err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}
	if inner.calls.Load() != 1 {
		t.Errorf("inner evaluator called %d times, want 1", inner.calls.Load())
	}
	if !a.Equal(b) {
		t.Error("cached matrix differs")
	}

	d := smallDomain()
	d.MaxIter++
	if _, err := e.Evaluate(ctx, d); err != nil {
		t.Fatal(err)
	}
	if inner.calls.Load() != 2 {
		t.Errorf("changed domain served from cache")
	}
}

func TestEvaluatorSurvivesCacheFailure(t *testing.T) {
	inner := &countingEvaluator{next: engine.New()}
	e := NewEvaluator(inner, failingCache{}, nil)
	if _, err := e.Evaluate(context.Background(), smallDomain()); err != nil {
		t.Fatalf("Evaluate with broken cache: %v", err)
	}
	if inner.calls.Load() != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls.Load())
	}
}

func TestEvaluatorRejectsInvalidDomain(t *testing.T) {
	inner := &countingEvaluator{next: engine.New()}
	e := NewEvaluator(inner, NewMemory(1), nil)
	d := smallDomain()
	d.Threshold = -1
	if _, err := e.Evaluate(context.Background(), d); !errors.Is(err, mandel.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
	if inner.calls.Load() != 0 {
		t.Error("invalid domain reached the evaluator")
	}
}

func TestMemoryEvictsOldest(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(2)
	m := mustMatrix(t, [][]int{{1, 2}}, 2)
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Put(ctx, k, m); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Error("oldest entry was not evicted")
	}
	for _, k := range []string{"b", "c"} {
		if _, ok, _ := c.Get(ctx, k); !ok {
			t.Errorf("entry %q missing", k)
		}
	}

	// overwriting does not evict
	if err := c.Put(ctx, "c", m); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "b"); !ok {
		t.Error("overwrite evicted an entry")
	}
}

func TestCodec(t *testing.T) {
	m := mustMatrix(t, [][]int{{0, 1, 300}, {20000, 7, 0}}, 20000)
	got, err := Decode(Encode(m))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.Equal(m) {
		t.Error("decoded matrix differs")
	}
}

func TestDecodeCorrupt(t *testing.T) {
	good := Encode(mustMatrix(t, [][]int{{1, 2}, {3, 4}}, 4))
	tests := map[string][]byte{
		"empty":      nil,
		"bad magic":  append([]byte("XXXX"), good[4:]...),
		"truncated":  good[:len(good)-1],
		"trailing":   append(append([]byte{}, good...), 0),
		"over limit": append(append([]byte{}, good[:16]...), 1, 2, 3, 9),
		"huge header": append([]byte("MDV1"),
			0xff, 0xff, 0xff, 0xff,
			0xff, 0xff, 0xff, 0xff,
			0, 0, 0, 4,
			1, 2, 3, 4),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(data); !errors.Is(err, ErrCorrupt) {
				t.Errorf("error = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestParseBackend(t *testing.T) {
	for in, want := range map[string]string{"": BackendNone, "Memory": BackendMemory, " redis ": BackendRedis} {
		got, err := ParseBackend(in)
		if err != nil || got != want {
			t.Errorf("ParseBackend(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseBackend("memcached"); err == nil {
		t.Error("ParseBackend accepted memcached")
	}
}

// TestRedisRoundTrip needs a live server, e.g.
// MANDELVIEW_TEST_REDIS=localhost:6379 go test ./internal/cache
func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("MANDELVIEW_TEST_REDIS")
	if addr == "" {
		t.Skip("MANDELVIEW_TEST_REDIS not set")
	}
	ctx := context.Background()
	rdb, err := DialRedis(ctx, addr, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = rdb.Close() }()

	c := NewRedis(rdb, WithPrefix("mandelview:test:"), WithTTL(time.Minute))
	key := "round-trip-" + time.Now().Format("150405.000000")
	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get before Put = %v, %v", ok, err)
	}
	m := mustMatrix(t, [][]int{{5, 6, 7}, {8, 9, 10}}, 10)
	if err := c.Put(ctx, key, m); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get after Put = %v, %v", ok, err)
	}
	if !got.Equal(m) {
		t.Error("matrix differs after Redis round trip")
	}
}
