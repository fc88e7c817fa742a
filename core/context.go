package core

// RecommendContext 承载一次推荐请求的用户/种子商品/数量，贯穿打分器与过滤器。
type RecommendContext struct {
	UserID    string
	ProductID string // 种子商品（相似/共购/配件）
	Limit     int

	// Params 请求级上下文参数，可被 CEL 规则通过 rctx.params 访问
	Params map[string]any
}

// LimitOr 返回请求的 Limit，未设置时使用默认值。
func (rctx *RecommendContext) LimitOr(def int) int {
	if rctx == nil || rctx.Limit <= 0 {
		return def
	}
	return rctx.Limit
}
