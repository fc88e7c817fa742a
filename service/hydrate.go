package service

import (
	"context"

	"github.com/rushteam/storerank/core"
	"github.com/rushteam/storerank/pipeline"
)

// HydrateNode 为缺少商品视图的条目批量 join 目录，
// 目录中查不到或已缺货的条目直接丢弃。
type HydrateNode struct {
	Catalog core.CatalogStore
}

func (n *HydrateNode) Name() string        { return "postprocess.hydrate" }
func (n *HydrateNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *HydrateNode) Process(ctx context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	missing := make([]string, 0)
	for _, it := range items {
		if it != nil && it.Product == nil {
			missing = append(missing, it.ID)
		}
	}
	byID := make(map[string]*core.Product, len(missing))
	if len(missing) > 0 {
		products, err := n.Catalog.QueryProducts(ctx, core.ProductQuery{IDs: missing})
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			byID[p.ID] = p
		}
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if it.Product == nil {
			it.Product = byID[it.ID]
		}
		if it.Product == nil || !it.Product.InStock {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

var _ pipeline.Node = (*HydrateNode)(nil)
