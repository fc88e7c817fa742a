package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rushteam/storerank/core"
)

// Pipeline 按顺序执行 Node，前一个的输出是后一个的输入。
type Pipeline struct {
	Nodes  []Node
	Logger *zap.Logger // 可以为空
}

// Run 任一 Node 出错即中止，错误带上 Node 名称。候选为空后不再执行后续 Node。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if len(cur) == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		before := len(cur)
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		if p.Logger != nil {
			p.Logger.Debug("pipeline node done",
				zap.String("node", node.Name()),
				zap.String("kind", string(node.Kind())),
				zap.Int("in", before),
				zap.Int("out", len(next)),
			)
		}
		cur = next
	}
	if cur == nil {
		cur = []*core.Item{}
	}
	return cur, nil
}
