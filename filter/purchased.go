package filter

import (
	"context"
	"time"

	"github.com/rushteam/storerank/core"
)

// PurchasedFilter 过滤掉用户在时间窗口内已经购买过的商品。
// 匿名请求不过滤。购买记录在 Prepare 时一次性读取。
type PurchasedFilter struct {
	Interactions core.InteractionStore

	// Window 默认 30 天
	Window time.Duration
	// MaxEvents 默认 400
	MaxEvents int
	// Now 为空时使用 time.Now
	Now func() time.Time
}

func (f *PurchasedFilter) Name() string { return "filter.purchased" }

// ShouldFilter 未经 Prepare 时不过滤任何条目。
func (f *PurchasedFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return false, nil
}

func (f *PurchasedFilter) Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error) {
	if rctx == nil || rctx.UserID == "" {
		return f, nil
	}
	window := f.Window
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	maxEvents := f.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 400
	}
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}

	events, err := f.Interactions.RecentInteractions(ctx, rctx.UserID, now().Add(-window), maxEvents)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(events))
	for _, e := range events {
		if e.Type == core.InteractionPurchase {
			ids = append(ids, e.ProductID)
		}
	}
	return &purchasedSet{BlacklistFilter: NewBlacklistFilter(ids)}, nil
}

type purchasedSet struct {
	*BlacklistFilter
}

func (s *purchasedSet) Name() string { return "filter.purchased" }

var (
	_ Filter   = (*PurchasedFilter)(nil)
	_ Preparer = (*PurchasedFilter)(nil)
)
