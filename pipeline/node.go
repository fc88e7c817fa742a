// Package pipeline 把混排后的处理拆成可组合的 Node 链：补全商品视图、过滤、截断。
package pipeline

import (
	"context"

	"github.com/rushteam/storerank/core"
)

// Kind 用于标记 Node 所处阶段，方便按阶段打日志。
type Kind string

const (
	KindFilter      Kind = "filter"      // 过滤阶段：剔除不符合约束的候选
	KindReRank      Kind = "rerank"      // 重排阶段：截断或调整顺序
	KindPostProcess Kind = "postprocess" // 后处理阶段：补全商品视图
)

// Node 是 Pipeline 的最小可扩展单元，统一采用 "输入 items -> 输出 items" 的形态。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}

// NodeFunc 把普通函数适配为 Node。
type NodeFunc struct {
	NodeName string
	NodeKind Kind
	Fn       func(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error)
}

func (f NodeFunc) Name() string { return f.NodeName }
func (f NodeFunc) Kind() Kind   { return f.NodeKind }

func (f NodeFunc) Process(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return f.Fn(ctx, rctx, items)
}
