package rerank

import (
	"context"

	"github.com/rushteam/storerank/core"
	"github.com/rushteam/storerank/pipeline"
)

// Diversity 按品类打散：每个品类最多保留 MaxPerCategory 个，其余按原顺序丢弃。
// 没有商品视图或品类为空的条目不受限制。MaxPerCategory <= 0 时不生效。
type Diversity struct {
	MaxPerCategory int
}

func (n *Diversity) Name() string        { return "rerank.diversity" }
func (n *Diversity) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.MaxPerCategory <= 0 || len(items) == 0 {
		return items, nil
	}

	seen := make(map[string]int, 16)
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		cate := ""
		if it.Product != nil {
			cate = it.Product.Category
		}
		if cate == "" {
			out = append(out, it)
			continue
		}
		if seen[cate] >= n.MaxPerCategory {
			continue
		}
		seen[cate]++
		out = append(out, it)
	}
	return out, nil
}

var _ pipeline.Node = (*Diversity)(nil)
