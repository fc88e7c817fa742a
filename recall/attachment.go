package recall

import (
	"context"

	"github.com/rushteam/storerank/core"
)

// AttachmentWeights 是配件交叉销售的权重表，兼容型号是主信号。
type AttachmentWeights struct {
	CompatibleModel float64 `yaml:"compatible_model"`
	CompatibleCap   int     `yaml:"compatible_cap"`
	Brand           float64 `yaml:"brand"`
	Popularity      float64 `yaml:"popularity"`
}

func DefaultAttachmentWeights() AttachmentWeights {
	return AttachmentWeights{
		CompatibleModel: 3,
		CompatibleCap:   3,
		Brand:           1.5,
		Popularity:      0.2,
	}
}

// DefaultAccessorySubcategories 是默认的配件子类目白名单。
var DefaultAccessorySubcategories = []string{
	"cases",
	"chargers",
	"cables",
	"screen-protectors",
	"headphones",
	"power-banks",
	"adapters",
	"mounts",
}

// Attachment 为种子商品推荐可搭配的配件。
// 候选为有货配件，且满足 同品类 / 子类目在白名单 / 与种子兼容型号有重合 之一。
type Attachment struct {
	Catalog core.CatalogStore
	Weights AttachmentWeights

	// Subcategories 为空时使用 DefaultAccessorySubcategories
	Subcategories []string
	// DefaultLimit 默认 8
	DefaultLimit int
}

func (s *Attachment) Name() string { return "recall.attachment" }

func (s *Attachment) Recall(ctx context.Context, rctx *core.RecommendContext) (core.CandidateList, error) {
	if rctx == nil || rctx.ProductID == "" {
		return core.EmptyList(core.SourceAttachment), nil
	}
	seed, err := s.Catalog.GetProduct(ctx, rctx.ProductID)
	if err != nil {
		return core.CandidateList{}, err
	}
	if seed == nil {
		return core.EmptyList(core.SourceAttachment), nil
	}

	subcats := s.Subcategories
	if len(subcats) == 0 {
		subcats = DefaultAccessorySubcategories
	}
	match := core.ProductMatch{
		Subcategories:    subcats,
		CompatibleModels: seed.CompatibleModels,
	}
	if seed.Category != "" {
		match.Categories = []string{seed.Category}
	}
	def := s.DefaultLimit
	if def <= 0 {
		def = 8
	}
	limit := rctx.LimitOr(def)
	top := newTopK(limit)

	w := s.Weights
	err = s.Catalog.ScanProducts(ctx, core.ProductQuery{
		AnyOf:         match,
		ExcludeIDs:    []string{seed.ID},
		InStockOnly:   true,
		AccessoryOnly: true,
	}, func(p *core.Product) error {
		if p == nil || p.ID == seed.ID || !p.IsAccessory || !p.InStock {
			return nil
		}
		score := w.CompatibleModel * capped(overlap(seed.CompatibleModels, p.CompatibleModels), w.CompatibleCap)
		if seed.Brand != "" && p.Brand == seed.Brand {
			score += w.Brand
		}
		score += w.Popularity * popularity(p)
		top.push(core.NewProductItem(p, score))
		return nil
	})
	if err != nil {
		return core.CandidateList{}, err
	}
	return finish(core.SourceAttachment, s.Name(), top.sorted(), limit, true), nil
}

var _ Source = (*Attachment)(nil)
