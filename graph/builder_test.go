package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/storerank/core"
	"github.com/rushteam/storerank/store"
)

// recordingEdges 记录每次写入的边，用于断言 upsert 次数。
type recordingEdges struct {
	*store.MemoryStore
	increments []core.CoPurchaseEdge
	failSet    bool
}

func (r *recordingEdges) IncrementEdges(ctx context.Context, edges []core.CoPurchaseEdge) error {
	r.increments = append(r.increments, edges...)
	return r.MemoryStore.IncrementEdges(ctx, edges)
}

func (r *recordingEdges) SetEdges(ctx context.Context, edges []core.CoPurchaseEdge) error {
	if r.failSet {
		return core.ErrStoreUnavailable(core.ModuleGraph, errors.New("write timeout"))
	}
	return r.MemoryStore.SetEdges(ctx, edges)
}

func TestPairs(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want int
	}{
		{name: "empty", ids: nil, want: 0},
		{name: "single product", ids: []string{"p1"}, want: 0},
		{name: "duplicates collapsed", ids: []string{"p1", "p1", "p2", ""}, want: 1},
		{name: "three distinct", ids: []string{"p3", "p1", "p2"}, want: 3},
		{name: "four distinct", ids: []string{"a", "b", "c", "d"}, want: 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pairs(tt.ids)
			if len(got) != tt.want {
				t.Fatalf("len(Pairs(%v)) = %d, want %d", tt.ids, len(got), tt.want)
			}
			for _, p := range got {
				if p.A >= p.B {
					t.Errorf("pair not normalized: %+v", p)
				}
			}
		})
	}
}

func TestBuilder_ApplyOrderThreeProducts(t *testing.T) {
	rec := &recordingEdges{MemoryStore: store.NewMemoryStore()}
	b := NewBuilder(rec, nil, Options{}, nil, nil)

	if err := b.ApplyOrder(context.Background(), []string{"P1", "P2", "P3", "P2"}); err != nil {
		t.Fatalf("ApplyOrder() error = %v", err)
	}
	if len(rec.increments) != 6 {
		t.Fatalf("directed upserts = %d, want 6", len(rec.increments))
	}
	seen := make(map[[2]string]bool)
	for _, e := range rec.increments {
		if e.Count != 1 {
			t.Errorf("edge %s->%s increment = %v, want 1", e.ProductA, e.ProductB, e.Count)
		}
		seen[[2]string{e.ProductA, e.ProductB}] = true
	}
	for _, want := range [][2]string{{"P1", "P2"}, {"P2", "P1"}, {"P1", "P3"}, {"P3", "P1"}, {"P2", "P3"}, {"P3", "P2"}} {
		if !seen[want] {
			t.Errorf("missing directed edge %v", want)
		}
	}
}

func TestBuilder_ApplyOrderIncrementsSymmetrically(t *testing.T) {
	ms := store.NewMemoryStore()
	b := NewBuilder(ms, nil, Options{}, nil, nil)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		if err := b.ApplyOrder(ctx, []string{"A", "B"}); err != nil {
			t.Fatalf("ApplyOrder() error = %v", err)
		}
		ab, _ := ms.Edge("A", "B")
		ba, _ := ms.Edge("B", "A")
		if ab != float64(i) || ba != float64(i) {
			t.Errorf("after order %d: A->B = %v, B->A = %v, want %d", i, ab, ba, i)
		}
	}
}

func TestBuilder_ApplyOrderSingleItemNoop(t *testing.T) {
	rec := &recordingEdges{MemoryStore: store.NewMemoryStore()}
	b := NewBuilder(rec, nil, Options{}, nil, nil)
	if err := b.ApplyOrder(context.Background(), []string{"A", "A"}); err != nil {
		t.Fatalf("ApplyOrder() error = %v", err)
	}
	if len(rec.increments) != 0 {
		t.Errorf("single-product order wrote %d edges", len(rec.increments))
	}
}

func TestBuilder_RebuildIdempotentUpToDecay(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	ms := store.NewMemoryStore()
	ms.PutOrder(
		core.Order{ID: "o1", ProductIDs: []string{"a", "b"}, CreatedAt: now.Add(-24 * time.Hour)},
		core.Order{ID: "o2", ProductIDs: []string{"b", "a", "a"}, CreatedAt: now.Add(-48 * time.Hour)},
		core.Order{ID: "o3", ProductIDs: []string{"a", "c"}, CreatedAt: now.Add(-48 * time.Hour)},
		core.Order{ID: "old", ProductIDs: []string{"a", "d"}, CreatedAt: now.Add(-200 * 24 * time.Hour)},
		core.Order{ID: "old2", ProductIDs: []string{"a", "d"}, CreatedAt: now.Add(-201 * 24 * time.Hour)},
	)
	_ = ms.SetEdges(ctx, []core.CoPurchaseEdge{{ProductA: "x", ProductB: "y", Count: 100}})

	b := NewBuilder(ms, ms, Options{}, nil, nil).WithClock(func() time.Time { return now })

	stats, err := b.Rebuild(ctx)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if stats.Orders != 3 || stats.Pairs != 1 || stats.EdgesWritten != 2 {
		t.Errorf("stats = %+v", stats)
	}
	first, _ := ms.Edge("a", "b")
	mirror, _ := ms.Edge("b", "a")
	if first != 2*0.98 || mirror != first {
		t.Errorf("after first rebuild a->b = %v, b->a = %v, want %v", first, mirror, 2*0.98)
	}
	if _, ok := ms.Edge("a", "c"); ok {
		t.Errorf("pair below min count must not be written")
	}
	if _, ok := ms.Edge("a", "d"); ok {
		t.Errorf("orders outside the window must not be counted")
	}
	if c, _ := ms.Edge("x", "y"); c != 98.0 {
		t.Errorf("untouched edge after one decay = %v, want 98.0", c)
	}

	if _, err := b.Rebuild(ctx); err != nil {
		t.Fatalf("second Rebuild() error = %v", err)
	}
	second, _ := ms.Edge("a", "b")
	if second != first {
		t.Errorf("second rebuild a->b = %v, want %v (no double counting)", second, first)
	}
	twice := 98.0
	twice *= 0.98
	if c, _ := ms.Edge("x", "y"); c != twice {
		t.Errorf("untouched edge after two decays = %v, want %v", c, twice)
	}
}

func TestBuilder_RebuildDecaysWithoutOrders(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	_ = ms.SetEdges(ctx, []core.CoPurchaseEdge{{ProductA: "a", ProductB: "b", Count: 100}, {ProductA: "b", ProductB: "a", Count: 100}})
	b := NewBuilder(ms, ms, Options{Decay: 0.5}, nil, nil)

	stats, err := b.Rebuild(ctx)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if stats.EdgesDecayed != 2 {
		t.Errorf("EdgesDecayed = %d, want 2", stats.EdgesDecayed)
	}
	if c, _ := ms.Edge("a", "b"); c != 50 {
		t.Errorf("a->b = %v, want 50", c)
	}
}

func TestBuilder_RebuildStopsOnWriteError(t *testing.T) {
	ctx := context.Background()
	rec := &recordingEdges{MemoryStore: store.NewMemoryStore(), failSet: true}
	rec.PutOrder(
		core.Order{ProductIDs: []string{"a", "b"}, CreatedAt: time.Now()},
		core.Order{ProductIDs: []string{"a", "b"}, CreatedAt: time.Now()},
	)
	_ = rec.MemoryStore.SetEdges(ctx, []core.CoPurchaseEdge{{ProductA: "x", ProductB: "y", Count: 10}})
	b := NewBuilder(rec, rec, Options{}, nil, nil)

	if _, err := b.Rebuild(ctx); !core.IsUnavailable(err) {
		t.Fatalf("Rebuild() error = %v, want UNAVAILABLE", err)
	}
	if c, _ := rec.Edge("x", "y"); c != 10 {
		t.Errorf("decay must not run after a failed write, x->y = %v", c)
	}
}

func TestOptions_Defaults(t *testing.T) {
	o := Options{Decay: 1.5}.withDefaults()
	if o.Window != 120*24*time.Hour || o.MinCount != 2 || o.Decay != 0.98 {
		t.Errorf("withDefaults() = %+v", o)
	}
}
