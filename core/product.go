package core

import "time"

// Product 是打分所需的商品特征视图（只读）。
// 由商品目录协作方提供，核心不写入。品类相关的规格参数不在此视图中。
type Product struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Image            string    `json:"image"`
	Brand            string    `json:"brand"`
	Category         string    `json:"category"`
	Subcategory      string    `json:"subcategory"`
	Tags             []string  `json:"tags"`
	CompatibleModels []string  `json:"compatibleModels"`
	Price            float64   `json:"price"`
	Popularity       int64     `json:"popularity"` // 累计售出件数
	RatingAvg        float64   `json:"ratingAvg"`
	InStock          bool      `json:"inStock"`
	IsAccessory      bool      `json:"isAccessory"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Summary 返回对外展示的精简投影，不包含任何内部分数。
func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		ID:         p.ID,
		Name:       p.Name,
		Image:      p.Image,
		Price:      p.Price,
		Rating:     p.RatingAvg,
		Popularity: p.Popularity,
	}
}

// ProductSummary 是推荐接口返回给调用方的商品摘要。
type ProductSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Image      string  `json:"image"`
	Price      float64 `json:"price"`
	Rating     float64 `json:"rating"`
	Popularity int64   `json:"popularity"`
}

// ProductSort 是目录查询的排序方式。
type ProductSort int

const (
	SortNone       ProductSort = iota
	SortPopularity             // popularity desc, createdAt desc, id asc
)

// ProductMatch 是 OR 语义的匹配条件：商品命中任一非空字段中的任一值即匹配。
// 所有字段为空时不做限制。
type ProductMatch struct {
	Categories       []string
	Subcategories    []string
	Brands           []string
	Tags             []string
	CompatibleModels []string
}

// IsEmpty 判断是否没有任何匹配条件。
func (m ProductMatch) IsEmpty() bool {
	return len(m.Categories) == 0 && len(m.Subcategories) == 0 && len(m.Brands) == 0 &&
		len(m.Tags) == 0 && len(m.CompatibleModels) == 0
}

// Matches 在内存中评估匹配条件，语义与 Mongo 的 $or + $in 一致。
func (m ProductMatch) Matches(p *Product) bool {
	if m.IsEmpty() {
		return true
	}
	return containsAny(m.Categories, p.Category) ||
		containsAny(m.Subcategories, p.Subcategory) ||
		containsAny(m.Brands, p.Brand) ||
		intersects(m.Tags, p.Tags) ||
		intersects(m.CompatibleModels, p.CompatibleModels)
}

// ProductQuery 是对商品目录的查询条件，各字段之间是 AND 关系。
type ProductQuery struct {
	IDs           []string // 为空表示不按 ID 限制
	Category      string   // 品类硬过滤
	AnyOf         ProductMatch
	ExcludeIDs    []string
	InStockOnly   bool
	AccessoryOnly bool
	Sort          ProductSort
	Limit         int // <= 0 表示不限制
}

// Accepts 在内存中评估查询条件（不含排序与 Limit）。
func (q ProductQuery) Accepts(p *Product) bool {
	if p == nil {
		return false
	}
	if len(q.IDs) > 0 && !containsAny(q.IDs, p.ID) {
		return false
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if containsAny(q.ExcludeIDs, p.ID) {
		return false
	}
	if q.InStockOnly && !p.InStock {
		return false
	}
	if q.AccessoryOnly && !p.IsAccessory {
		return false
	}
	return q.AnyOf.Matches(p)
}

func containsAny(values []string, v string) bool {
	if v == "" {
		return false
	}
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range b {
		if containsAny(a, x) {
			return true
		}
	}
	return false
}
