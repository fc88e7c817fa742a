package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/storerank/core"
)

// MemoryStore 是内存实现，同时实现 CatalogStore、InteractionStore、CoPurchaseStore、
// OrderStore 与 TrendingStore，用于测试/开发/原型。写入语义与 MongoStore 保持一致：
// 行为按天 setOnInsert，共购边 $inc / $set / $mul。
type MemoryStore struct {
	mu           sync.RWMutex
	products     map[string]*core.Product
	interactions map[interactionKey]core.Interaction
	edges        map[edgeKey]float64
	orders       []core.Order
	trending     map[string]float64
}

type interactionKey struct {
	userID    string
	productID string
	typ       core.InteractionType
	day       string
}

type edgeKey struct {
	a, b string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:     make(map[string]*core.Product),
		interactions: make(map[interactionKey]core.Interaction),
		edges:        make(map[edgeKey]float64),
		trending:     make(map[string]float64),
	}
}

func (m *MemoryStore) Name() string { return "memory" }

// PutProduct 写入或覆盖商品（只用于准备数据，核心不写目录）。
func (m *MemoryStore) PutProduct(products ...*core.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range products {
		cp := *p
		m.products[p.ID] = &cp
	}
}

// PutOrder 追加一个已完成订单。
func (m *MemoryStore) PutOrder(orders ...core.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, orders...)
}

// Edge 返回一条有向边的当前计数。
func (m *MemoryStore) Edge(a, b string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.edges[edgeKey{a, b}]
	return c, ok
}

// EdgeCount 返回有向边总数。
func (m *MemoryStore) EdgeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.edges)
}

// Interactions 返回某用户的全部行为（按时间倒序）。
func (m *MemoryStore) Interactions(userID string) []core.Interaction {
	out, _ := m.RecentInteractions(context.Background(), userID, time.Time{}, 0)
	return out
}

// ========== CatalogStore ==========

func (m *MemoryStore) GetProduct(ctx context.Context, id string) (*core.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.ErrStoreUnavailable(core.ModuleCatalog, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) QueryProducts(ctx context.Context, q core.ProductQuery) ([]*core.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.ErrStoreUnavailable(core.ModuleCatalog, err)
	}
	m.mu.RLock()
	out := make([]*core.Product, 0)
	for _, p := range m.products {
		if q.Accepts(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	m.mu.RUnlock()

	sortProducts(out, q.Sort)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemoryStore) ScanProducts(ctx context.Context, q core.ProductQuery, fn func(*core.Product) error) error {
	q.Sort = core.SortNone
	q.Limit = 0
	products, err := m.QueryProducts(ctx, q)
	if err != nil {
		return err
	}
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return core.ErrStoreUnavailable(core.ModuleCatalog, err)
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

// ========== InteractionStore ==========

func (m *MemoryStore) UpsertInteraction(ctx context.Context, in core.Interaction) error {
	if err := ctx.Err(); err != nil {
		return core.ErrStoreUnavailable(core.ModuleInteraction, err)
	}
	if in.Day == "" {
		in.Day = core.DayKey(in.Timestamp)
	}
	key := interactionKey{userID: in.UserID, productID: in.ProductID, typ: in.Type, day: in.Day}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.interactions[key]; ok {
		return nil
	}
	m.interactions[key] = in
	return nil
}

func (m *MemoryStore) RecentInteractions(ctx context.Context, userID string, since time.Time, limit int) ([]core.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.ErrStoreUnavailable(core.ModuleInteraction, err)
	}
	m.mu.RLock()
	out := make([]core.Interaction, 0)
	for k, in := range m.interactions {
		if k.userID != userID || in.Timestamp.Before(since) {
			continue
		}
		out = append(out, in)
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ProductID < out[j].ProductID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ========== CoPurchaseStore ==========

func (m *MemoryStore) IncrementEdges(ctx context.Context, edges []core.CoPurchaseEdge) error {
	if err := ctx.Err(); err != nil {
		return core.ErrStoreUnavailable(core.ModuleGraph, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range edges {
		m.edges[edgeKey{e.ProductA, e.ProductB}] += e.Count
	}
	return nil
}

func (m *MemoryStore) SetEdges(ctx context.Context, edges []core.CoPurchaseEdge) error {
	if err := ctx.Err(); err != nil {
		return core.ErrStoreUnavailable(core.ModuleGraph, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range edges {
		m.edges[edgeKey{e.ProductA, e.ProductB}] = e.Count
	}
	return nil
}

func (m *MemoryStore) DecayEdges(ctx context.Context, factor float64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, core.ErrStoreUnavailable(core.ModuleGraph, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, c := range m.edges {
		m.edges[k] = c * factor
	}
	return int64(len(m.edges)), nil
}

func (m *MemoryStore) Neighbors(ctx context.Context, productID string, limit int) ([]core.CoPurchaseEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.ErrStoreUnavailable(core.ModuleGraph, err)
	}
	m.mu.RLock()
	out := make([]core.CoPurchaseEdge, 0)
	for k, c := range m.edges {
		if k.a == productID {
			out = append(out, core.CoPurchaseEdge{ProductA: k.a, ProductB: k.b, Count: c})
		}
	}
	m.mu.RUnlock()

	sortEdges(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ========== OrderStore ==========

func (m *MemoryStore) ScanOrders(ctx context.Context, since time.Time, fn func(core.Order) error) error {
	m.mu.RLock()
	orders := make([]core.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if !o.CreatedAt.Before(since) {
			orders = append(orders, o)
		}
	}
	m.mu.RUnlock()

	for _, o := range orders {
		if err := ctx.Err(); err != nil {
			return core.ErrStoreUnavailable(core.ModuleOrder, err)
		}
		if err := fn(o); err != nil {
			return err
		}
	}
	return nil
}

// ========== TrendingStore ==========

func (m *MemoryStore) TopTrending(ctx context.Context, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.ErrStoreUnavailable(core.ModuleTrending, err)
	}
	m.mu.RLock()
	type pair struct {
		member string
		score  float64
	}
	pairs := make([]pair, 0, len(m.trending))
	for id, s := range m.trending {
		pairs = append(pairs, pair{member: id, score: s})
	}
	m.mu.RUnlock()

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			return pairs[i].score > pairs[j].score
		}
		return pairs[i].member < pairs[j].member
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.member)
	}
	return out, nil
}

func (m *MemoryStore) BumpTrending(ctx context.Context, productID string, delta float64) error {
	if err := ctx.Err(); err != nil {
		return core.ErrStoreUnavailable(core.ModuleTrending, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trending[productID] += delta
	return nil
}

// 确保 MemoryStore 实现了全部存储接口
var (
	_ core.CatalogStore     = (*MemoryStore)(nil)
	_ core.InteractionStore = (*MemoryStore)(nil)
	_ core.CoPurchaseStore  = (*MemoryStore)(nil)
	_ core.OrderStore       = (*MemoryStore)(nil)
	_ core.TrendingStore    = (*MemoryStore)(nil)
)
