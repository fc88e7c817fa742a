// Package filter 提供混排结果的条目过滤器：黑名单、已购买、CEL 规则。
package filter

import (
	"context"

	"github.com/rushteam/storerank/core"
)

// Filter 判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Preparer 是可选接口：需要按请求预加载数据的过滤器（例如用户已购列表）
// 在 FilterNode 处理前调用一次 Prepare，返回本次请求使用的 Filter。
type Preparer interface {
	Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error)
}
