// Package recall 实现各类候选打分器：相似、共购（FBT）、个性化、配件交叉销售、热门。
// 每个打分器都是一个 Source，产出带来源类型的有序候选列表。
package recall

import (
	"context"

	"github.com/rushteam/storerank/core"
)

// Source 表示一个可复用的召回源（相似/共购/个性化/配件/热门）。
// 查不到数据时返回空列表而不是错误；存储不可用时返回 UNAVAILABLE 错误。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) (core.CandidateList, error)
}
