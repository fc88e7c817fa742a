package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rushteam/storerank/core"
)

type interactionDoc struct {
	UserID    string         `bson:"userId"`
	ProductID string         `bson:"productId"`
	Type      string         `bson:"type"`
	Day       string         `bson:"day"`
	Weight    float64        `bson:"weight"`
	Timestamp time.Time      `bson:"timestamp"`
	Meta      map[string]any `bson:"meta,omitempty"`
}

// interactionUpsert 返回 (filter, update)：键为 user/product/type/day，
// 其余字段只在插入时写入，同日重复事件不会覆盖第一条。
func interactionUpsert(in core.Interaction) (bson.M, bson.M) {
	day := in.Day
	if day == "" {
		day = core.DayKey(in.Timestamp)
	}
	filter := bson.M{
		"userId":    in.UserID,
		"productId": in.ProductID,
		"type":      string(in.Type),
		"day":       day,
	}
	onInsert := bson.M{
		"weight":    in.Weight,
		"timestamp": in.Timestamp,
	}
	if len(in.Meta) > 0 {
		onInsert["meta"] = in.Meta
	}
	return filter, bson.M{"$setOnInsert": onInsert}
}

func (s *MongoStore) UpsertInteraction(ctx context.Context, in core.Interaction) error {
	filter, update := interactionUpsert(in)
	_, err := s.interactions.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	// 并发 upsert 同一键时唯一索引会拒绝后来者，等价于被吸收
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return core.ErrStoreUnavailable(core.ModuleInteraction, err)
	}
	return nil
}

func (s *MongoStore) RecentInteractions(ctx context.Context, userID string, since time.Time, limit int) ([]core.Interaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.interactions.Find(ctx,
		bson.M{"userId": userID, "timestamp": bson.M{"$gte": since}},
		opts,
	)
	if err != nil {
		return nil, core.ErrStoreUnavailable(core.ModuleInteraction, err)
	}
	defer cur.Close(ctx)

	out := make([]core.Interaction, 0)
	for cur.Next(ctx) {
		var doc interactionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, core.ErrStoreUnavailable(core.ModuleInteraction, err)
		}
		out = append(out, core.Interaction{
			UserID:    doc.UserID,
			ProductID: doc.ProductID,
			Type:      core.InteractionType(doc.Type),
			Weight:    doc.Weight,
			Timestamp: doc.Timestamp,
			Day:       doc.Day,
			Meta:      doc.Meta,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, core.ErrStoreUnavailable(core.ModuleInteraction, err)
	}
	return out, nil
}

var _ core.InteractionStore = (*MongoStore)(nil)
