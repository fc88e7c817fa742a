package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rushteam/storerank/core"
)

// MongoCollections 是 MongoStore 使用的集合名。
type MongoCollections struct {
	Products     string `yaml:"products"`
	Interactions string `yaml:"interactions"`
	Edges        string `yaml:"edges"`
	Orders       string `yaml:"orders"`
}

// MongoOptions 是 MongoStore 的可选配置。
type MongoOptions struct {
	Collections MongoCollections

	// OrderStatuses 非空时，批量重建只扫描这些状态的订单
	OrderStatuses []string

	// WriteBatchSize 是共购边 BulkWrite 的单批大小
	WriteBatchSize int

	// ScanBatchSize 是订单与商品扫描游标的 batch size
	ScanBatchSize int32
}

func (o *MongoOptions) applyDefaults() {
	if o.Collections.Products == "" {
		o.Collections.Products = "products"
	}
	if o.Collections.Interactions == "" {
		o.Collections.Interactions = "interactions"
	}
	if o.Collections.Edges == "" {
		o.Collections.Edges = "copurchase_edges"
	}
	if o.Collections.Orders == "" {
		o.Collections.Orders = "orders"
	}
	if o.WriteBatchSize <= 0 {
		o.WriteBatchSize = 1000
	}
	if o.ScanBatchSize <= 0 {
		o.ScanBatchSize = 500
	}
}

// MongoStore 是 MongoDB 实现，覆盖商品目录（只读）、行为日志、共购图与订单扫描。
// 商品与订单集合属于外部协作方，这里只读取打分需要的字段。
type MongoStore struct {
	client       *mongo.Client
	products     *mongo.Collection
	interactions *mongo.Collection
	edges        *mongo.Collection
	orders       *mongo.Collection
	opts         MongoOptions
}

// ConnectMongo 连接 MongoDB 并 Ping 校验。
func ConnectMongo(ctx context.Context, uri, database string, opts MongoOptions) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, core.ErrStoreUnavailable(core.ModuleCatalog, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, core.ErrStoreUnavailable(core.ModuleCatalog, err)
	}
	return NewMongoStore(client, database, opts), nil
}

// NewMongoStore 基于已连接的 client 创建 MongoStore。
func NewMongoStore(client *mongo.Client, database string, opts MongoOptions) *MongoStore {
	opts.applyDefaults()
	db := client.Database(database)
	return &MongoStore{
		client:       client,
		products:     db.Collection(opts.Collections.Products),
		interactions: db.Collection(opts.Collections.Interactions),
		edges:        db.Collection(opts.Collections.Edges),
		orders:       db.Collection(opts.Collections.Orders),
		opts:         opts,
	}
}

func (s *MongoStore) Name() string { return "mongo" }

// EnsureIndexes 创建行为去重与共购边所需的索引。
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.interactions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "productId", Value: 1}, {Key: "type", Value: 1}, {Key: "day", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_user_product_type_day"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("user_recent"),
		},
	})
	if err != nil {
		return core.ErrStoreUnavailable(core.ModuleInteraction, err)
	}

	_, err = s.edges.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "productA", Value: 1}, {Key: "productB", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_pair"),
		},
		{
			Keys:    bson.D{{Key: "productA", Value: 1}, {Key: "count", Value: -1}},
			Options: options.Index().SetName("neighbors_by_count"),
		},
	})
	if err != nil {
		return core.ErrStoreUnavailable(core.ModuleGraph, err)
	}
	return nil
}

// Close 断开连接。
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// refValue 把字符串 ID 转为 Mongo 中的取值：合法的 ObjectID hex 转为 ObjectID，否则原样使用。
func refValue(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func refValues(ids []string) bson.A {
	out := make(bson.A, 0, len(ids))
	for _, id := range ids {
		out = append(out, refValue(id))
	}
	return out
}

func stringValues(values []string) bson.A {
	out := make(bson.A, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

// idString 把 _id / 引用字段统一转为字符串。
func idString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case primitive.ObjectID:
		return x.Hex()
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
