package core

import (
	"context"
	"time"
)

// 以下接口定义在领域层（core），由基础设施层（store）实现：
//   - store.MemoryStore 实现全部接口（测试/开发）
//   - store.MongoStore 实现 CatalogStore、InteractionStore、CoPurchaseStore、OrderStore
//   - store.RedisTrending 实现 TrendingStore

// CatalogStore 是商品目录协作方暴露的只读接口。
type CatalogStore interface {
	// GetProduct 按 ID 读取商品；不存在时返回 (nil, nil)
	GetProduct(ctx context.Context, id string) (*Product, error)

	// QueryProducts 按条件查询商品视图
	QueryProducts(ctx context.Context, q ProductQuery) ([]*Product, error)

	// ScanProducts 依次回调满足条件的商品，忽略 Sort 与 Limit；fn 返回错误时中止扫描。
	// 打分器用它遍历完整候选池，截断发生在打分之后
	ScanProducts(ctx context.Context, q ProductQuery, fn func(*Product) error) error
}

// InteractionStore 是行为日志的存储接口。
type InteractionStore interface {
	// UpsertInteraction 以 (UserID, ProductID, Type, Day) 为键写入；
	// 键已存在时不做任何修改（setOnInsert 语义）
	UpsertInteraction(ctx context.Context, in Interaction) error

	// RecentInteractions 返回用户 since 之后的行为，按时间倒序，最多 limit 条
	RecentInteractions(ctx context.Context, userID string, since time.Time, limit int) ([]Interaction, error)
}

// CoPurchaseStore 是共购图的存储接口。所有写入都是按 (ProductA, ProductB) upsert。
type CoPurchaseStore interface {
	// IncrementEdges 对每条边执行 count += edge.Count
	IncrementEdges(ctx context.Context, edges []CoPurchaseEdge) error

	// SetEdges 对每条边执行 count = edge.Count
	SetEdges(ctx context.Context, edges []CoPurchaseEdge) error

	// DecayEdges 对所有边执行 count *= factor，返回受影响的边数
	DecayEdges(ctx context.Context, factor float64) (int64, error)

	// Neighbors 返回 productID 的出边，按 count 降序，最多 limit 条
	Neighbors(ctx context.Context, productID string, limit int) ([]CoPurchaseEdge, error)
}

// OrderStore 是订单协作方暴露的只读扫描接口，用于共购图批量重建。
type OrderStore interface {
	// ScanOrders 依次回调 since 之后创建的订单；fn 返回错误时中止扫描
	ScanOrders(ctx context.Context, since time.Time, fn func(Order) error) error
}

// TrendingStore 是热门榜存储接口（有序集合）。
type TrendingStore interface {
	// TopTrending 按分数降序返回前 limit 个商品 ID
	TopTrending(ctx context.Context, limit int) ([]string, error)

	// BumpTrending 为商品累加热度
	BumpTrending(ctx context.Context, productID string, delta float64) error
}
