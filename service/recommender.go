// Package service 是推荐引擎的门面：四个读接口（相似/共购/个性化/首页）、
// 配件与热门接口，以及订单完成与行为上报的后台写入。
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/storerank/core"
	"github.com/rushteam/storerank/filter"
	"github.com/rushteam/storerank/graph"
	"github.com/rushteam/storerank/interaction"
	"github.com/rushteam/storerank/metrics"
	"github.com/rushteam/storerank/pipeline"
	"github.com/rushteam/storerank/recall"
	"github.com/rushteam/storerank/rerank"
	"github.com/rushteam/storerank/worker"
)

// Response 是推荐接口的返回结构，不包含任何内部分数。
type Response struct {
	Type  core.SourceType       `json:"type"`
	Items []core.ProductSummary `json:"items"`
}

// Deps 是推荐服务依赖的存储与后台组件。
type Deps struct {
	Catalog      core.CatalogStore
	Interactions core.InteractionStore
	Edges        core.CoPurchaseStore
	Trending     core.TrendingStore // 可以为空，热门退回目录销量
	Graph        *graph.Builder
	Tasks        worker.Submitter
}

// Recommender 组合各打分器与混排流程。
type Recommender struct {
	opts Options

	similar    *recall.Similar
	fbt        *recall.FBT
	personal   *recall.Personalized
	attachment *recall.Attachment
	trending   *recall.Trending

	blend *rerank.Blend
	feed  *pipeline.Pipeline
	plain *pipeline.Pipeline

	log           *interaction.Log
	graph         *graph.Builder
	trendingStore core.TrendingStore
	tasks         worker.Submitter

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New 创建推荐服务。规则表达式无效时返回 INVALID_INPUT。
func New(opts Options, deps Deps, logger *zap.Logger, m *metrics.Metrics) (*Recommender, error) {
	if deps.Catalog == nil || deps.Interactions == nil || deps.Edges == nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInternalError, "catalog, interaction and edge stores are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Graph == nil {
		deps.Graph = graph.NewBuilder(deps.Edges, nil, graph.Options{}, logger, m)
	}
	if deps.Tasks == nil {
		deps.Tasks = &worker.Inline{Logger: logger}
	}

	r := &Recommender{
		opts: opts,
		similar: &recall.Similar{
			Catalog: deps.Catalog,
			Weights: opts.Similar,
		},
		fbt: &recall.FBT{
			Edges:   deps.Edges,
			Catalog: deps.Catalog,
		},
		personal: &recall.Personalized{
			Profiles: &recall.ProfileBuilder{
				Interactions: deps.Interactions,
				Catalog:      deps.Catalog,
				Window:       opts.PersonalWindow,
				MaxEvents:    opts.PersonalMaxEvents,
			},
			Catalog: deps.Catalog,
			Weights: opts.Personal,
		},
		attachment: &recall.Attachment{
			Catalog:       deps.Catalog,
			Weights:       opts.Attachment,
			Subcategories: opts.AccessorySubcategories,
		},
		trending: &recall.Trending{
			Store:   deps.Trending,
			Catalog: deps.Catalog,
			Logger:  logger,
		},
		blend:         &rerank.Blend{Weights: opts.Blend},
		log:           interaction.NewLog(deps.Interactions, logger),
		graph:         deps.Graph,
		trendingStore: deps.Trending,
		tasks:         deps.Tasks,
		logger:        logger,
		metrics:       m,
	}

	filters := make([]filter.Filter, 0, 3)
	if len(opts.Feed.Blacklist) > 0 {
		filters = append(filters, filter.NewBlacklistFilter(opts.Feed.Blacklist))
	}
	if opts.Feed.HidePurchased {
		filters = append(filters, &filter.PurchasedFilter{Interactions: deps.Interactions})
	}
	if opts.Feed.Rule != "" {
		rf, err := filter.NewRuleFilter(opts.Feed.Rule)
		if err != nil {
			return nil, err
		}
		filters = append(filters, rf)
	}

	hydrate := &HydrateNode{Catalog: deps.Catalog}
	r.feed = &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			hydrate,
			&filter.FilterNode{Filters: filters, Logger: logger},
			&rerank.Diversity{MaxPerCategory: opts.Feed.MaxPerCategory},
			&rerank.TopNNode{N: opts.Feed.Limit},
		},
		Logger: logger,
	}
	r.plain = &pipeline.Pipeline{Nodes: []pipeline.Node{hydrate}, Logger: logger}
	return r, nil
}

// Similar 返回与种子商品相似的同品类商品。
func (r *Recommender) Similar(ctx context.Context, productID string, limit int) (Response, error) {
	return r.bySeed(ctx, r.similar, productID, limit)
}

// FrequentlyBoughtTogether 返回与种子商品共购最多的有货商品。
func (r *Recommender) FrequentlyBoughtTogether(ctx context.Context, productID string, limit int) (Response, error) {
	return r.bySeed(ctx, r.fbt, productID, limit)
}

// Attachments 返回种子商品的可搭配配件。
func (r *Recommender) Attachments(ctx context.Context, productID string, limit int) (Response, error) {
	return r.bySeed(ctx, r.attachment, productID, limit)
}

func (r *Recommender) bySeed(ctx context.Context, src recall.Source, productID string, limit int) (Response, error) {
	if productID == "" {
		return Response{}, core.ErrInvalidInput(core.ModuleService, "product id is required")
	}
	if err := validLimit(limit); err != nil {
		return Response{}, err
	}
	list, err := r.recall(ctx, src, &core.RecommendContext{ProductID: productID, Limit: limit})
	if err != nil {
		return Response{}, err
	}
	return respond(list.Source, list.Items), nil
}

// Personalized 返回用户的个性化推荐；没有可用画像时退回热门榜（type 为 trending）。
func (r *Recommender) Personalized(ctx context.Context, userID string, limit int) (Response, error) {
	if userID == "" {
		return Response{}, core.ErrInvalidInput(core.ModuleService, "user id is required")
	}
	if err := validLimit(limit); err != nil {
		return Response{}, err
	}
	list, err := r.recall(ctx, r.personal, &core.RecommendContext{UserID: userID, Limit: limit})
	if err != nil {
		return Response{}, err
	}
	if list.Len() > 0 {
		return respond(core.SourcePersonal, list.Items), nil
	}
	return r.Trending(ctx, limit)
}

// Trending 返回热门商品。
func (r *Recommender) Trending(ctx context.Context, limit int) (Response, error) {
	if err := validLimit(limit); err != nil {
		return Response{}, err
	}
	rctx := &core.RecommendContext{Limit: limit}
	list, err := r.recall(ctx, r.trending, rctx)
	if err != nil {
		return Response{}, err
	}
	items, err := r.plain.Run(ctx, rctx, list.Items)
	if err != nil {
		return Response{}, err
	}
	return respond(core.SourceTrending, items), nil
}

// HomeFeed 并发拉取热门与个性化两路候选，混排、过滤、截断。匿名用户只有热门一路。
func (r *Recommender) HomeFeed(ctx context.Context, userID string, limit int) (Response, error) {
	if err := validLimit(limit); err != nil {
		return Response{}, err
	}
	fo := r.opts.Feed
	sources := []recall.Source{limited{r.trending, fo.TrendingLimit}}
	if userID != "" {
		sources = append(sources, limited{r.personal, fo.PersonalLimit})
	}
	fan := &recall.Fanout{
		Sources: sources,
		Timeout: fo.SourceTimeout,
		Observe: func(s recall.Source, err error, d time.Duration) {
			r.metrics.ObserveScorer(s.Name(), err, d)
		},
	}

	rctx := &core.RecommendContext{UserID: userID, Limit: limit}
	lists, err := fan.Recall(ctx, rctx)
	if err != nil {
		return Response{}, err
	}
	items, err := r.feed.Run(ctx, rctx, r.blend.Merge(lists...))
	if err != nil {
		return Response{}, err
	}
	return respond(core.SourceHome, items), nil
}

// OrderCompleted 是订单完成事件。
type OrderCompleted struct {
	OrderID     string    `json:"orderId"`
	UserID      string    `json:"userId"`
	ProductIDs  []string  `json:"productIds"`
	CompletedAt time.Time `json:"completedAt"`
}

// OrderCompleted 投递三个后台任务：购买行为日志、共购图增量、热门榜累加。
// 不等待任务执行，任务失败不会影响订单。
func (r *Recommender) OrderCompleted(_ context.Context, ev OrderCompleted) error {
	ids := graph.Distinct(ev.ProductIDs)
	if len(ids) == 0 {
		return core.ErrInvalidInput(core.ModuleOrder, "order has no products")
	}
	logger := r.logger.With(zap.String("order_id", ev.OrderID))

	if ev.UserID != "" {
		weight := r.opts.InteractionWeights.For(core.InteractionPurchase)
		meta := map[string]any{"orderId": ev.OrderID}
		r.submit(logger, "interaction", func(ctx context.Context) error {
			for _, id := range ids {
				r.log.Record(ctx, ev.UserID, id, core.InteractionPurchase, weight, meta)
			}
			return nil
		})
	}
	if len(ids) > 1 {
		r.submit(logger, "copurchase", func(ctx context.Context) error {
			return r.graph.ApplyOrder(ctx, ids)
		})
	}
	if r.trendingStore != nil {
		bump := r.opts.TrendingBump
		if bump <= 0 {
			bump = 1
		}
		r.submit(logger, "trending", func(ctx context.Context) error {
			for _, id := range ids {
				if err := r.trendingStore.BumpTrending(ctx, id, bump); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return nil
}

// Track 投递一条用户行为。匿名用户的行为不记录。
func (r *Recommender) Track(_ context.Context, userID, productID string, typ core.InteractionType, meta map[string]any) error {
	if productID == "" {
		return core.ErrInvalidInput(core.ModuleInteraction, "product id is required")
	}
	if !typ.Valid() {
		return core.ErrInvalidInput(core.ModuleInteraction, fmt.Sprintf("unknown interaction type %q", typ))
	}
	if userID == "" {
		return nil
	}
	weight := r.opts.InteractionWeights.For(typ)
	r.submit(r.logger, "interaction", func(ctx context.Context) error {
		r.log.Record(ctx, userID, productID, typ, weight, meta)
		return nil
	})
	return nil
}

func (r *Recommender) submit(logger *zap.Logger, kind string, fn worker.TaskFunc) {
	if !r.tasks.Submit(kind, fn) {
		logger.Warn("background task not accepted", zap.String("kind", kind))
	}
}

func (r *Recommender) recall(ctx context.Context, src recall.Source, rctx *core.RecommendContext) (core.CandidateList, error) {
	began := time.Now()
	list, err := src.Recall(ctx, rctx)
	r.metrics.ObserveScorer(src.Name(), err, time.Since(began))
	if err != nil {
		r.logger.Warn("scorer failed",
			zap.String("source", src.Name()),
			zap.String("user_id", rctx.UserID),
			zap.String("product_id", rctx.ProductID),
			zap.Error(err),
		)
		return core.CandidateList{}, err
	}
	return list, nil
}

// limited 用固定条数调用被包装的来源，忽略请求的 Limit。
type limited struct {
	recall.Source
	n int
}

func (l limited) Recall(ctx context.Context, rctx *core.RecommendContext) (core.CandidateList, error) {
	sub := *rctx
	sub.Limit = l.n
	return l.Source.Recall(ctx, &sub)
}

func validLimit(limit int) error {
	if limit < 0 || limit > MaxLimit {
		return core.ErrInvalidInput(core.ModuleService, fmt.Sprintf("limit must be between 0 and %d", MaxLimit))
	}
	return nil
}

func respond(t core.SourceType, items []*core.Item) Response {
	out := make([]core.ProductSummary, 0, len(items))
	for _, it := range items {
		if it == nil || it.Product == nil {
			continue
		}
		out = append(out, it.Product.Summary())
	}
	return Response{Type: t, Items: out}
}
