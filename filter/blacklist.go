package filter

import (
	"context"

	"github.com/rushteam/storerank/core"
)

// BlacklistFilter 过滤掉运营配置的商品 ID。
type BlacklistFilter struct {
	ids map[string]struct{}
}

// NewBlacklistFilter 创建黑名单过滤器，空 ID 忽略。
func NewBlacklistFilter(itemIDs []string) *BlacklistFilter {
	ids := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		if id != "" {
			ids[id] = struct{}{}
		}
	}
	return &BlacklistFilter{ids: ids}
}

func (f *BlacklistFilter) Name() string { return "filter.blacklist" }

func (f *BlacklistFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, ok := f.ids[item.ID]
	return ok, nil
}

// Len 返回黑名单大小。
func (f *BlacklistFilter) Len() int { return len(f.ids) }

var _ Filter = (*BlacklistFilter)(nil)
