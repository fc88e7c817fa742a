package recall

import (
	"context"
	"sort"
	"time"

	"github.com/rushteam/storerank/core"
)

// Profile 是用户的短期偏好画像，每次请求临时计算，不落库。
type Profile struct {
	Brands           map[string]struct{}
	Categories       map[string]struct{}
	Subcategories    map[string]struct{}
	Tags             map[string]struct{}
	CompatibleModels map[string]struct{}
}

func newProfile() *Profile {
	return &Profile{
		Brands:           make(map[string]struct{}),
		Categories:       make(map[string]struct{}),
		Subcategories:    make(map[string]struct{}),
		Tags:             make(map[string]struct{}),
		CompatibleModels: make(map[string]struct{}),
	}
}

// IsEmpty 画像为空时候选过滤不命中任何商品。
func (pf *Profile) IsEmpty() bool {
	return len(pf.Brands) == 0 && len(pf.Categories) == 0 && len(pf.Subcategories) == 0 && len(pf.Tags) == 0
}

// Add 把一个商品的特征并入画像。
func (pf *Profile) Add(p *core.Product) {
	put(pf.Brands, p.Brand)
	put(pf.Categories, p.Category)
	put(pf.Subcategories, p.Subcategory)
	for _, t := range p.Tags {
		put(pf.Tags, t)
	}
	for _, m := range p.CompatibleModels {
		put(pf.CompatibleModels, m)
	}
}

// Match 返回候选过滤条件：命中 品类/子类目/品牌/标签 任一即可。
func (pf *Profile) Match() core.ProductMatch {
	return core.ProductMatch{
		Categories:    keys(pf.Categories),
		Subcategories: keys(pf.Subcategories),
		Brands:        keys(pf.Brands),
		Tags:          keys(pf.Tags),
	}
}

func (pf *Profile) hasBrand(b string) bool {
	_, ok := pf.Brands[b]
	return b != "" && ok
}

func (pf *Profile) count(set map[string]struct{}, values []string) int {
	n := 0
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if _, ok := set[v]; ok {
			n++
		}
	}
	return n
}

// ProfileBuilder 从交互日志构建偏好画像。
type ProfileBuilder struct {
	Interactions core.InteractionStore
	Catalog      core.CatalogStore

	// Window 是回看的时间窗口（默认 90 天）
	Window time.Duration
	// MaxEvents 是最多读取的最近交互条数（默认 400）
	MaxEvents int
	// Now 为空时使用 time.Now
	Now func() time.Time
}

// Build 读取用户最近的交互并 join 商品视图。查不到的商品忽略。
func (b *ProfileBuilder) Build(ctx context.Context, userID string) (*Profile, error) {
	pf := newProfile()
	if userID == "" {
		return pf, nil
	}
	events, err := b.Interactions.RecentInteractions(ctx, userID, b.now().Add(-b.window()), b.maxEvents())
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return pf, nil
	}
	ids := make([]string, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if _, ok := seen[e.ProductID]; ok || e.ProductID == "" {
			continue
		}
		seen[e.ProductID] = struct{}{}
		ids = append(ids, e.ProductID)
	}
	// IDs 为空的查询不做限制，必须在这里返回
	if len(ids) == 0 {
		return pf, nil
	}
	products, err := b.Catalog.QueryProducts(ctx, core.ProductQuery{IDs: ids})
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if p != nil {
			pf.Add(p)
		}
	}
	return pf, nil
}

func (b *ProfileBuilder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *ProfileBuilder) window() time.Duration {
	if b.Window > 0 {
		return b.Window
	}
	return 90 * 24 * time.Hour
}

func (b *ProfileBuilder) maxEvents() int {
	if b.MaxEvents > 0 {
		return b.MaxEvents
	}
	return 400
}

func put(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
