package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rushteam/storerank/core"
)

// productDoc 是商品文档中打分需要的公共字段子集；品类相关的 specs 不读取。
type productDoc struct {
	ID               any       `bson:"_id"`
	Name             string    `bson:"name"`
	Images           []string  `bson:"images"`
	Brand            string    `bson:"brand"`
	Category         any       `bson:"category"`
	Subcategory      string    `bson:"subcategory"`
	Tags             []string  `bson:"tags"`
	CompatibleModels []string  `bson:"compatibleModels"`
	Price            float64   `bson:"price"`
	Sold             int64     `bson:"sold"`
	RatingAvg        float64   `bson:"ratingAvg"`
	Stock            int64     `bson:"stock"`
	IsAccessory      bool      `bson:"isAccessory"`
	CreatedAt        time.Time `bson:"createdAt"`
}

var productProjection = bson.M{
	"name":             1,
	"images":           bson.M{"$slice": 1},
	"brand":            1,
	"category":         1,
	"subcategory":      1,
	"tags":             1,
	"compatibleModels": 1,
	"price":            1,
	"sold":             1,
	"ratingAvg":        1,
	"stock":            1,
	"isAccessory":      1,
	"createdAt":        1,
}

func (d *productDoc) toProduct() *core.Product {
	p := &core.Product{
		ID:               idString(d.ID),
		Name:             d.Name,
		Brand:            d.Brand,
		Category:         idString(d.Category),
		Subcategory:      d.Subcategory,
		Tags:             d.Tags,
		CompatibleModels: d.CompatibleModels,
		Price:            d.Price,
		Popularity:       d.Sold,
		RatingAvg:        d.RatingAvg,
		InStock:          d.Stock > 0,
		IsAccessory:      d.IsAccessory,
		CreatedAt:        d.CreatedAt,
	}
	if len(d.Images) > 0 {
		p.Image = d.Images[0]
	}
	return p
}

// buildProductFilter 把 ProductQuery 翻译为 Mongo 过滤条件。
func buildProductFilter(q core.ProductQuery) bson.M {
	f := bson.M{}

	idCond := bson.M{}
	if len(q.IDs) > 0 {
		idCond["$in"] = refValues(q.IDs)
	}
	if len(q.ExcludeIDs) > 0 {
		idCond["$nin"] = refValues(q.ExcludeIDs)
	}
	if len(idCond) > 0 {
		f["_id"] = idCond
	}
	if q.Category != "" {
		f["category"] = refValue(q.Category)
	}
	if q.InStockOnly {
		f["stock"] = bson.M{"$gt": 0}
	}
	if q.AccessoryOnly {
		f["isAccessory"] = true
	}

	m := q.AnyOf
	or := bson.A{}
	if len(m.Categories) > 0 {
		or = append(or, bson.M{"category": bson.M{"$in": refValues(m.Categories)}})
	}
	if len(m.Subcategories) > 0 {
		or = append(or, bson.M{"subcategory": bson.M{"$in": stringValues(m.Subcategories)}})
	}
	if len(m.Brands) > 0 {
		or = append(or, bson.M{"brand": bson.M{"$in": stringValues(m.Brands)}})
	}
	if len(m.Tags) > 0 {
		or = append(or, bson.M{"tags": bson.M{"$in": stringValues(m.Tags)}})
	}
	if len(m.CompatibleModels) > 0 {
		or = append(or, bson.M{"compatibleModels": bson.M{"$in": stringValues(m.CompatibleModels)}})
	}
	if len(or) > 0 {
		f["$or"] = or
	}
	return f
}

func productSort(s core.ProductSort) bson.D {
	switch s {
	case core.SortPopularity:
		return bson.D{{Key: "sold", Value: -1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "_id", Value: 1}}
	}
}

func (s *MongoStore) GetProduct(ctx context.Context, id string) (*core.Product, error) {
	var doc productDoc
	err := s.products.FindOne(ctx,
		bson.M{"_id": refValue(id)},
		options.FindOne().SetProjection(productProjection),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, core.ErrStoreUnavailable(core.ModuleCatalog, err)
	}
	return doc.toProduct(), nil
}

func (s *MongoStore) QueryProducts(ctx context.Context, q core.ProductQuery) ([]*core.Product, error) {
	opts := options.Find().
		SetProjection(productProjection).
		SetSort(productSort(q.Sort))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.products.Find(ctx, buildProductFilter(q), opts)
	if err != nil {
		return nil, core.ErrStoreUnavailable(core.ModuleCatalog, err)
	}
	defer cur.Close(ctx)

	out := make([]*core.Product, 0)
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, core.ErrStoreUnavailable(core.ModuleCatalog, err)
		}
		out = append(out, doc.toProduct())
	}
	if err := cur.Err(); err != nil {
		return nil, core.ErrStoreUnavailable(core.ModuleCatalog, err)
	}
	return out, nil
}

// ScanProducts 用游标流式遍历，不在内存中缓存完整结果集。
func (s *MongoStore) ScanProducts(ctx context.Context, q core.ProductQuery, fn func(*core.Product) error) error {
	opts := options.Find().
		SetProjection(productProjection).
		SetBatchSize(s.opts.ScanBatchSize)

	cur, err := s.products.Find(ctx, buildProductFilter(q), opts)
	if err != nil {
		return core.ErrStoreUnavailable(core.ModuleCatalog, err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return core.ErrStoreUnavailable(core.ModuleCatalog, err)
		}
		if err := fn(doc.toProduct()); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return core.ErrStoreUnavailable(core.ModuleCatalog, err)
	}
	return nil
}

var _ core.CatalogStore = (*MongoStore)(nil)
