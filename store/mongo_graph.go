package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rushteam/storerank/core"
)

type edgeDoc struct {
	ProductA string  `bson:"productA"`
	ProductB string  `bson:"productB"`
	Count    float64 `bson:"count"`
}

// edgeUpdate 生成单条边的更新文档：$inc 累加计数，$set 覆盖计数。
func edgeUpdate(e core.CoPurchaseEdge, op string, now time.Time) bson.M {
	if op == "$set" {
		return bson.M{"$set": bson.M{"count": e.Count, "updatedAt": now}}
	}
	return bson.M{
		op:     bson.M{"count": e.Count},
		"$set": bson.M{"updatedAt": now},
	}
}

func (s *MongoStore) writeEdges(ctx context.Context, edges []core.CoPurchaseEdge, op string) error {
	if len(edges) == 0 {
		return nil
	}
	now := nowUTC()
	models := make([]mongo.WriteModel, 0, len(edges))
	for _, e := range edges {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"productA": e.ProductA, "productB": e.ProductB}).
			SetUpdate(edgeUpdate(e, op, now)).
			SetUpsert(true))
	}

	size := s.opts.WriteBatchSize
	for start := 0; start < len(models); start += size {
		end := start + size
		if end > len(models) {
			end = len(models)
		}
		_, err := s.edges.BulkWrite(ctx, models[start:end], options.BulkWrite().SetOrdered(false))
		if err != nil {
			return core.ErrStoreUnavailable(core.ModuleGraph, err)
		}
	}
	return nil
}

func (s *MongoStore) IncrementEdges(ctx context.Context, edges []core.CoPurchaseEdge) error {
	return s.writeEdges(ctx, edges, "$inc")
}

func (s *MongoStore) SetEdges(ctx context.Context, edges []core.CoPurchaseEdge) error {
	return s.writeEdges(ctx, edges, "$set")
}

func (s *MongoStore) DecayEdges(ctx context.Context, factor float64) (int64, error) {
	res, err := s.edges.UpdateMany(ctx,
		bson.M{"count": bson.M{"$gt": 0}},
		bson.M{"$mul": bson.M{"count": factor}},
	)
	if err != nil {
		return 0, core.ErrStoreUnavailable(core.ModuleGraph, err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) Neighbors(ctx context.Context, productID string, limit int) ([]core.CoPurchaseEdge, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "count", Value: -1}, {Key: "productB", Value: 1}}).
		SetProjection(bson.M{"_id": 0, "productA": 1, "productB": 1, "count": 1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.edges.Find(ctx, bson.M{"productA": productID}, opts)
	if err != nil {
		return nil, core.ErrStoreUnavailable(core.ModuleGraph, err)
	}
	defer cur.Close(ctx)

	var docs []edgeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, core.ErrStoreUnavailable(core.ModuleGraph, err)
	}
	out := make([]core.CoPurchaseEdge, 0, len(docs))
	for _, d := range docs {
		out = append(out, core.CoPurchaseEdge{ProductA: d.ProductA, ProductB: d.ProductB, Count: d.Count})
	}
	return out, nil
}

var _ core.CoPurchaseStore = (*MongoStore)(nil)

// ========== OrderStore ==========

type orderDoc struct {
	ID        any            `bson:"_id"`
	User      any            `bson:"user"`
	Items     []orderItemDoc `bson:"items"`
	CreatedAt time.Time      `bson:"createdAt"`
}

type orderItemDoc struct {
	Product any `bson:"product"`
}

func (s *MongoStore) orderFilter(since time.Time) bson.M {
	f := bson.M{"createdAt": bson.M{"$gte": since}}
	if len(s.opts.OrderStatuses) > 0 {
		f["status"] = bson.M{"$in": stringValues(s.opts.OrderStatuses)}
	}
	return f
}

func (s *MongoStore) ScanOrders(ctx context.Context, since time.Time, fn func(core.Order) error) error {
	opts := options.Find().
		SetProjection(bson.M{"user": 1, "items.product": 1, "createdAt": 1}).
		SetBatchSize(s.opts.ScanBatchSize)
	cur, err := s.orders.Find(ctx, s.orderFilter(since), opts)
	if err != nil {
		return core.ErrStoreUnavailable(core.ModuleOrder, err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc orderDoc
		if err := cur.Decode(&doc); err != nil {
			return core.ErrStoreUnavailable(core.ModuleOrder, err)
		}
		o := core.Order{
			ID:         idString(doc.ID),
			UserID:     idString(doc.User),
			ProductIDs: make([]string, 0, len(doc.Items)),
			CreatedAt:  doc.CreatedAt,
		}
		for _, it := range doc.Items {
			if id := idString(it.Product); id != "" {
				o.ProductIDs = append(o.ProductIDs, id)
			}
		}
		if err := fn(o); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return core.ErrStoreUnavailable(core.ModuleOrder, err)
	}
	return nil
}

var _ core.OrderStore = (*MongoStore)(nil)
