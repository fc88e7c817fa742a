package recall

import (
	"context"
	"math"

	"github.com/rushteam/storerank/core"
)

// SimilarWeights 是相似打分的权重表。
type SimilarWeights struct {
	Subcategory     float64 `yaml:"subcategory"`
	Brand           float64 `yaml:"brand"`
	Tag             float64 `yaml:"tag"`
	CompatibleModel float64 `yaml:"compatible_model"`
	CompatibleCap   int     `yaml:"compatible_cap"` // 兼容型号重合数的上限
	PriceBand       float64 `yaml:"price_band"`
	PriceBandRatio  float64 `yaml:"price_band_ratio"` // 价格带宽度，0.3 表示 ±30%
	Rating          float64 `yaml:"rating"`
	Popularity      float64 `yaml:"popularity"`
}

// DefaultSimilarWeights 返回默认权重：子类目 > 品牌 > 价格带 > 标签/兼容型号 > 评分/销量。
func DefaultSimilarWeights() SimilarWeights {
	return SimilarWeights{
		Subcategory:     5,
		Brand:           3,
		Tag:             1,
		CompatibleModel: 1,
		CompatibleCap:   3,
		PriceBand:       2,
		PriceBandRatio:  0.3,
		Rating:          0.3,
		Popularity:      0.2,
	}
}

// Similar 是同品类相似商品打分器。
// 候选池为与种子同品类的有货商品，跨品类一律不召回。
type Similar struct {
	Catalog core.CatalogStore
	Weights SimilarWeights

	// DefaultLimit 是请求未指定数量时的返回条数（默认 12）
	DefaultLimit int
}

func (s *Similar) Name() string { return "recall.similar" }

func (s *Similar) Recall(ctx context.Context, rctx *core.RecommendContext) (core.CandidateList, error) {
	if rctx == nil || rctx.ProductID == "" {
		return core.EmptyList(core.SourceSimilar), nil
	}
	seed, err := s.Catalog.GetProduct(ctx, rctx.ProductID)
	if err != nil {
		return core.CandidateList{}, err
	}
	if seed == nil || seed.Category == "" {
		return core.EmptyList(core.SourceSimilar), nil
	}

	limit := rctx.LimitOr(s.defaultLimit())
	top := newTopK(limit)
	err = s.Catalog.ScanProducts(ctx, core.ProductQuery{
		Category:    seed.Category,
		ExcludeIDs:  []string{seed.ID},
		InStockOnly: true,
	}, func(p *core.Product) error {
		if p == nil || p.ID == seed.ID || p.Category != seed.Category || !p.InStock {
			return nil
		}
		top.push(core.NewProductItem(p, s.score(seed, p)))
		return nil
	})
	if err != nil {
		return core.CandidateList{}, err
	}
	return finish(core.SourceSimilar, s.Name(), top.sorted(), limit, true), nil
}

func (s *Similar) score(seed, p *core.Product) float64 {
	w := s.Weights
	var score float64
	if seed.Subcategory != "" && p.Subcategory == seed.Subcategory {
		score += w.Subcategory
	}
	if seed.Brand != "" && p.Brand == seed.Brand {
		score += w.Brand
	}
	score += w.Tag * float64(overlap(seed.Tags, p.Tags))
	score += w.CompatibleModel * capped(overlap(seed.CompatibleModels, p.CompatibleModels), w.CompatibleCap)
	if seed.Price > 0 && math.Abs(p.Price-seed.Price) <= w.PriceBandRatio*seed.Price {
		score += w.PriceBand
	}
	score += w.Rating * p.RatingAvg
	score += w.Popularity * popularity(p)
	return score
}

func (s *Similar) defaultLimit() int {
	if s.DefaultLimit > 0 {
		return s.DefaultLimit
	}
	return 12
}

var _ Source = (*Similar)(nil)
