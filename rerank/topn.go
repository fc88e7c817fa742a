package rerank

import (
	"context"

	"github.com/rushteam/storerank/core"
	"github.com/rushteam/storerank/pipeline"
)

// TopNNode 截取前 N 个条目，通常放在过滤之后。
// N <= 0 时不截断；请求带 Limit 时以请求为准。
type TopNNode struct {
	N int
}

func (n *TopNNode) Name() string        { return "rerank.topn" }
func (n *TopNNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := rctx.LimitOr(n.N)
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}

var _ pipeline.Node = (*TopNNode)(nil)
