package recall

import (
	"context"

	"github.com/rushteam/storerank/core"
)

// FBT 是"经常一起买"召回：按共购边计数取种子的出边邻居。
// 排序只看共购强度，join 商品视图后不再按任何商品属性重排。
type FBT struct {
	Edges   core.CoPurchaseStore
	Catalog core.CatalogStore

	// DefaultLimit 默认 8
	DefaultLimit int
}

func (s *FBT) Name() string { return "recall.fbt" }

func (s *FBT) Recall(ctx context.Context, rctx *core.RecommendContext) (core.CandidateList, error) {
	if rctx == nil || rctx.ProductID == "" {
		return core.EmptyList(core.SourceFBT), nil
	}
	def := s.DefaultLimit
	if def <= 0 {
		def = 8
	}
	limit := rctx.LimitOr(def)

	edges, err := s.Edges.Neighbors(ctx, rctx.ProductID, limit)
	if err != nil {
		return core.CandidateList{}, err
	}
	if len(edges) == 0 {
		return core.EmptyList(core.SourceFBT), nil
	}

	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		if e.ProductB != rctx.ProductID {
			ids = append(ids, e.ProductB)
		}
	}
	if len(ids) == 0 {
		return core.EmptyList(core.SourceFBT), nil
	}
	products, err := s.Catalog.QueryProducts(ctx, core.ProductQuery{IDs: ids, InStockOnly: true})
	if err != nil {
		return core.CandidateList{}, err
	}
	byID := make(map[string]*core.Product, len(products))
	for _, p := range products {
		if p != nil {
			byID[p.ID] = p
		}
	}

	items := make([]*core.Item, 0, len(edges))
	for _, e := range edges {
		p, ok := byID[e.ProductB]
		if !ok || !p.InStock {
			continue
		}
		items = append(items, core.NewProductItem(p, e.Count))
	}
	return finish(core.SourceFBT, s.Name(), items, limit, true), nil
}

var _ Source = (*FBT)(nil)
