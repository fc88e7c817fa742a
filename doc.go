// Package storerank 是电子商城的推荐引擎。
//
// 设计要点：
// - 打分器即 recall.Source: 相似、个性化、共购、配件、热门各自独立打分，不存在时返回空列表
// - Blend 按位次折扣跨来源混排，同一来源内部顺序不变
// - 写路径全部异步: 订单完成与浏览事件投递给 worker，失败只记日志
// - Labels-first: 候选携带 recall_source / blend_sources 标签，便于 explain，不对外序列化
package storerank

import (
	"github.com/rushteam/storerank/service"
	"github.com/rushteam/storerank/store"
)

// 轻量 facade：便于直接 import "storerank" 使用核心抽象。
type (
	Recommender    = service.Recommender
	Response       = service.Response
	Options        = service.Options
	Deps           = service.Deps
	OrderCompleted = service.OrderCompleted
)

var (
	New            = service.New
	DefaultOptions = service.DefaultOptions
)

// NewMemoryStore 返回实现全部存储接口的内存存储，用于开发与测试。
func NewMemoryStore() *store.MemoryStore {
	return store.NewMemoryStore()
}
