package rerank

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/rushteam/storerank/core"
)

func list(source core.SourceType, ids ...string) core.CandidateList {
	items := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, core.NewItem(id))
	}
	return core.CandidateList{Source: source, Items: items}
}

func ids(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestDiscount(t *testing.T) {
	tests := []struct {
		rank int
		want float64
	}{
		{0, 1 / math.Log2(3)},
		{1, 0.5},
		{5, 1.0 / 3},
	}
	for _, tt := range tests {
		if got := Discount(tt.rank); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Discount(%d) = %v, want %v", tt.rank, got, tt.want)
		}
	}
}

func TestBlend_Merge(t *testing.T) {
	const t1, t2 core.SourceType = "t1", "t2"
	equal := map[core.SourceType]float64{t1: 1, t2: 1}

	tests := []struct {
		name    string
		weights map[core.SourceType]float64
		lists   []core.CandidateList
		want    []string
	}{
		{
			name:    "agreement across sources ranks higher",
			weights: equal,
			lists:   []core.CandidateList{list(t1, "x", "y", "z"), list(t2, "y")},
			want:    []string{"y", "x", "z"},
		},
		{
			name:    "order within a single source preserved",
			weights: equal,
			lists:   []core.CandidateList{list(t1, "c", "a", "b")},
			want:    []string{"c", "a", "b"},
		},
		{
			name:    "ties broken by first-seen order",
			weights: equal,
			lists:   []core.CandidateList{list(t1, "a"), list(t2, "b")},
			want:    []string{"a", "b"},
		},
		{
			name:    "source weight shifts ranking",
			weights: map[core.SourceType]float64{t1: 1, t2: 3},
			lists:   []core.CandidateList{list(t1, "a"), list(t2, "b")},
			want:    []string{"b", "a"},
		},
		{
			name:    "missing weight defaults to one",
			weights: nil,
			lists:   []core.CandidateList{list(t1, "a", "b"), list(t2, "b")},
			want:    []string{"b", "a"},
		},
		{
			name:    "empty input",
			weights: equal,
			lists:   nil,
			want:    []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Blend{Weights: tt.weights}
			got := b.Merge(tt.lists...)
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("Merge() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestBlend_DuplicateWithinSourceCountsOnce(t *testing.T) {
	b := &Blend{Weights: map[core.SourceType]float64{"t1": 1}}
	got := b.Merge(list("t1", "x", "x", "y"))

	if !reflect.DeepEqual(ids(got), []string{"x", "y"}) {
		t.Fatalf("Merge() = %v", ids(got))
	}
	if got[0].Score != Discount(0) {
		t.Errorf("x score = %v, want rank-0 contribution %v", got[0].Score, Discount(0))
	}
	// y 保持其在原列表中的位置 2
	if got[1].Score != Discount(2) {
		t.Errorf("y score = %v, want %v", got[1].Score, Discount(2))
	}
}

func TestBlend_AccumulatesScoresAndLabels(t *testing.T) {
	b := &Blend{Weights: map[core.SourceType]float64{core.SourceTrending: 1, core.SourcePersonal: 2}}
	p := &core.Product{ID: "y", Name: "Y"}
	trending := list(core.SourceTrending, "x", "y")
	personal := core.CandidateList{Source: core.SourcePersonal, Items: []*core.Item{core.NewProductItem(p, 9)}}

	got := b.Merge(trending, personal)
	if got[0].ID != "y" {
		t.Fatalf("first = %s, want y", got[0].ID)
	}
	want := 1*Discount(1) + 2*Discount(0)
	if math.Abs(got[0].Score-want) > 1e-12 {
		t.Errorf("y score = %v, want %v", got[0].Score, want)
	}
	if got[0].Product != p {
		t.Errorf("product view not carried over")
	}
	if v := got[0].Labels["blend_sources"].Value; v != "trending|personal" {
		t.Errorf("blend_sources = %q", v)
	}
	if personal.Items[0].Score != 9 {
		t.Errorf("input item mutated: score = %v", personal.Items[0].Score)
	}
}

func TestTopNNode_Process(t *testing.T) {
	in := list("t", "a", "b", "c").Items
	tests := []struct {
		name  string
		n     int
		limit int
		want  int
	}{
		{name: "truncate", n: 2, want: 2},
		{name: "no limit", n: 0, want: 3},
		{name: "n above length", n: 10, want: 3},
		{name: "request limit wins", n: 2, limit: 1, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := (&TopNNode{N: tt.n}).Process(context.Background(), &core.RecommendContext{Limit: tt.limit}, in)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestDiversity_Process(t *testing.T) {
	mk := func(id, cate string) *core.Item {
		return core.NewProductItem(&core.Product{ID: id, Category: cate}, 0)
	}
	in := []*core.Item{mk("a", "phones"), mk("b", "phones"), mk("c", "cases"), mk("d", "phones"), core.NewItem("e")}

	got, err := (&Diversity{MaxPerCategory: 1}).Process(context.Background(), nil, in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !reflect.DeepEqual(ids(got), []string{"a", "c", "e"}) {
		t.Errorf("Process() = %v", ids(got))
	}

	got, _ = (&Diversity{}).Process(context.Background(), nil, in)
	if len(got) != len(in) {
		t.Errorf("disabled diversity dropped items: %v", ids(got))
	}
}
