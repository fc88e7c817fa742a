package recall

import (
	"container/heap"
	"math"
	"sort"

	"github.com/rushteam/storerank/core"
	"github.com/rushteam/storerank/pkg/utils"
)

// overlap 返回两个集合的交集大小（忽略空串与重复值）。
func overlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, x := range a {
		if x != "" {
			set[x] = struct{}{}
		}
	}
	n := 0
	for _, x := range b {
		if _, ok := set[x]; ok {
			n++
			delete(set, x)
		}
	}
	return n
}

// capped 把计数截断到 limit；limit <= 0 表示不截断。
func capped(n, limit int) float64 {
	if limit > 0 && n > limit {
		n = limit
	}
	return float64(n)
}

// popularity 是销量的对数平滑，避免爆款压过属性匹配。
func popularity(p *core.Product) float64 {
	if p.Popularity <= 0 {
		return 0
	}
	return math.Log1p(float64(p.Popularity))
}

// better 是打分器的全序：score desc, popularity desc, createdAt desc, id asc。
func better(a, b *core.Item) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	pa, pb := a.Product, b.Product
	if pa != nil && pb != nil {
		if pa.Popularity != pb.Popularity {
			return pa.Popularity > pb.Popularity
		}
		if !pa.CreatedAt.Equal(pb.CreatedAt) {
			return pa.CreatedAt.After(pb.CreatedAt)
		}
	}
	return a.ID < b.ID
}

// sortByScore 按 better 排序。
func sortByScore(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return better(items[i], items[j])
	})
}

// topK 在流式打分时只保留最好的 limit 个条目（堆顶是当前最差的一个）。
// limit <= 0 时保留全部。
type topK struct {
	limit int
	items []*core.Item
}

func newTopK(limit int) *topK {
	return &topK{limit: limit}
}

func (t *topK) Len() int           { return len(t.items) }
func (t *topK) Less(i, j int) bool { return better(t.items[j], t.items[i]) }
func (t *topK) Swap(i, j int)      { t.items[i], t.items[j] = t.items[j], t.items[i] }
func (t *topK) Push(x any)         { t.items = append(t.items, x.(*core.Item)) }
func (t *topK) Pop() any {
	last := t.items[len(t.items)-1]
	t.items = t.items[:len(t.items)-1]
	return last
}

func (t *topK) push(it *core.Item) {
	switch {
	case t.limit <= 0:
		t.items = append(t.items, it)
	case len(t.items) < t.limit:
		heap.Push(t, it)
	case better(it, t.items[0]):
		t.items[0] = it
		heap.Fix(t, 0)
	}
}

// sorted 返回按 better 排好序的结果；调用后 topK 不应再使用。
func (t *topK) sorted() []*core.Item {
	items := t.items
	t.items = nil
	sortByScore(items)
	return items
}

// finish 统一收尾：打来源标签、排序、截断。
func finish(source core.SourceType, name string, items []*core.Item, limit int, sorted bool) core.CandidateList {
	if !sorted {
		sortByScore(items)
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	for _, it := range items {
		it.PutLabel("recall_source", utils.Label{Value: name, Source: "recall"})
	}
	if items == nil {
		items = []*core.Item{}
	}
	return core.CandidateList{Source: source, Items: items}
}
