package recall

import (
	"context"

	"go.uber.org/zap"

	"github.com/rushteam/storerank/core"
)

// Trending 是热门召回源。
// 优先读取热门榜（Redis 有序集合）；榜单未配置、为空或读取失败时，
// 退回按目录销量排序的有货商品。
// 热门榜返回的条目只有 ID，商品视图由调用方统一 join。
type Trending struct {
	Store   core.TrendingStore // 可以为空
	Catalog core.CatalogStore
	Logger  *zap.Logger

	// DefaultLimit 默认 20
	DefaultLimit int
}

func (s *Trending) Name() string { return "recall.trending" }

func (s *Trending) Recall(ctx context.Context, rctx *core.RecommendContext) (core.CandidateList, error) {
	def := s.DefaultLimit
	if def <= 0 {
		def = 20
	}
	limit := rctx.LimitOr(def)

	if s.Store != nil {
		ids, err := s.Store.TopTrending(ctx, limit)
		switch {
		case err != nil:
			s.logger().Warn("trending store unavailable, falling back to catalog popularity", zap.Error(err))
		case len(ids) > 0:
			items := make([]*core.Item, 0, len(ids))
			for i, id := range ids {
				it := core.NewItem(id)
				it.Score = float64(len(ids) - i)
				items = append(items, it)
			}
			return finish(core.SourceTrending, s.Name(), items, limit, true), nil
		}
	}

	products, err := s.Catalog.QueryProducts(ctx, core.ProductQuery{
		InStockOnly: true,
		Sort:        core.SortPopularity,
		Limit:       limit,
	})
	if err != nil {
		return core.CandidateList{}, err
	}
	items := make([]*core.Item, 0, len(products))
	for _, p := range products {
		if p == nil {
			continue
		}
		items = append(items, core.NewProductItem(p, float64(p.Popularity)))
	}
	return finish(core.SourceTrending, s.Name(), items, limit, true), nil
}

func (s *Trending) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

var _ Source = (*Trending)(nil)
