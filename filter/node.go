package filter

import (
	"context"

	"go.uber.org/zap"

	"github.com/rushteam/storerank/core"
	"github.com/rushteam/storerank/pipeline"
	"github.com/rushteam/storerank/pkg/utils"
)

// FilterNode 组合多个过滤器，任一过滤器返回 true 的条目被移除。
// 单个过滤器出错（包括 Prepare 出错）时跳过该过滤器，不中断流程。
type FilterNode struct {
	Filters []Filter
	Logger  *zap.Logger // 可以为空
}

func (n *FilterNode) Name() string        { return "filter.node" }
func (n *FilterNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	active := make([]Filter, 0, len(n.Filters))
	for _, f := range n.Filters {
		p, ok := f.(Preparer)
		if !ok {
			active = append(active, f)
			continue
		}
		prepared, err := p.Prepare(ctx, rctx)
		if err != nil {
			n.logger().Warn("filter prepare failed, skipped", zap.String("filter", f.Name()), zap.Error(err))
			continue
		}
		active = append(active, prepared)
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		reason := ""
		for _, f := range active {
			drop, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				n.logger().Debug("filter error, item kept", zap.String("filter", f.Name()), zap.String("item", item.ID), zap.Error(err))
				continue
			}
			if drop {
				reason = f.Name()
				break
			}
		}
		if reason != "" {
			item.PutLabel("filtered", utils.Label{Value: "true", Source: reason})
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (n *FilterNode) logger() *zap.Logger {
	if n.Logger == nil {
		return zap.NewNop()
	}
	return n.Logger
}

var _ pipeline.Node = (*FilterNode)(nil)
