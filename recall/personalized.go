package recall

import (
	"context"

	"github.com/rushteam/storerank/core"
)

// PersonalWeights 是个性化打分的权重表。
type PersonalWeights struct {
	Brand           float64 `yaml:"brand"`
	Tag             float64 `yaml:"tag"`
	CompatibleModel float64 `yaml:"compatible_model"`
	CompatibleCap   int     `yaml:"compatible_cap"`
	Rating          float64 `yaml:"rating"`
	Popularity      float64 `yaml:"popularity"`
}

func DefaultPersonalWeights() PersonalWeights {
	return PersonalWeights{
		Brand:           4,
		Tag:             1,
		CompatibleModel: 1,
		CompatibleCap:   3,
		Rating:          0.3,
		Popularity:      0.2,
	}
}

// Personalized 基于用户近期偏好画像对目录打分。
// 没有可用交互时返回空列表，调用方应退回热门榜。
type Personalized struct {
	Profiles *ProfileBuilder
	Catalog  core.CatalogStore
	Weights  PersonalWeights

	// DefaultLimit 默认 16
	DefaultLimit int
}

func (s *Personalized) Name() string { return "recall.personalized" }

func (s *Personalized) Recall(ctx context.Context, rctx *core.RecommendContext) (core.CandidateList, error) {
	if rctx == nil || rctx.UserID == "" {
		return core.EmptyList(core.SourcePersonal), nil
	}
	pf, err := s.Profiles.Build(ctx, rctx.UserID)
	if err != nil {
		return core.CandidateList{}, err
	}
	if pf.IsEmpty() {
		return core.EmptyList(core.SourcePersonal), nil
	}

	def := s.DefaultLimit
	if def <= 0 {
		def = 16
	}
	limit := rctx.LimitOr(def)
	top := newTopK(limit)

	w := s.Weights
	err = s.Catalog.ScanProducts(ctx, core.ProductQuery{
		AnyOf:       pf.Match(),
		InStockOnly: true,
	}, func(p *core.Product) error {
		if p == nil || !p.InStock {
			return nil
		}
		var score float64
		if pf.hasBrand(p.Brand) {
			score += w.Brand
		}
		score += w.Tag * float64(pf.count(pf.Tags, p.Tags))
		score += w.CompatibleModel * capped(pf.count(pf.CompatibleModels, p.CompatibleModels), w.CompatibleCap)
		score += w.Rating * p.RatingAvg
		score += w.Popularity * popularity(p)
		top.push(core.NewProductItem(p, score))
		return nil
	})
	if err != nil {
		return core.CandidateList{}, err
	}
	return finish(core.SourcePersonal, s.Name(), top.sorted(), limit, true), nil
}

var _ Source = (*Personalized)(nil)
