package recall

import (
	"context"
	"reflect"
	"testing"

	"github.com/rushteam/storerank/core"
	"github.com/rushteam/storerank/store"
)

func TestSimilar_Recall(t *testing.T) {
	s := &Similar{Catalog: catalogFixture(), Weights: DefaultSimilarWeights()}

	tests := []struct {
		name string
		seed string
		want []string
	}{
		{name: "same category ranked by overlap", seed: "phone1", want: []string{"phone2", "phone3"}},
		{name: "unknown seed", seed: "ghost", want: []string{}},
		{name: "seed without category", seed: "nocat", want: []string{}},
		{name: "empty seed", seed: "", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Recall(context.Background(), &core.RecommendContext{ProductID: tt.seed})
			if err != nil {
				t.Fatalf("Recall() error = %v", err)
			}
			if got.Source != core.SourceSimilar {
				t.Errorf("Source = %q", got.Source)
			}
			if !reflect.DeepEqual(got.IDs(), tt.want) {
				t.Errorf("IDs() = %v, want %v", got.IDs(), tt.want)
			}
		})
	}
}

func TestSimilar_NeverSeedOrOtherCategory(t *testing.T) {
	s := &Similar{Catalog: catalogFixture(), Weights: DefaultSimilarWeights()}
	for _, seed := range []string{"phone1", "phone2", "phone3", "case1", "case2", "charger", "laptop"} {
		seedProduct, _ := s.Catalog.GetProduct(context.Background(), seed)
		got, err := s.Recall(context.Background(), &core.RecommendContext{ProductID: seed})
		if err != nil {
			t.Fatalf("Recall(%s) error = %v", seed, err)
		}
		for _, it := range got.Items {
			if it.ID == seed {
				t.Errorf("Recall(%s) returned the seed", seed)
			}
			if it.Product.Category != seedProduct.Category {
				t.Errorf("Recall(%s) returned %s from category %q", seed, it.ID, it.Product.Category)
			}
			if !it.Product.InStock {
				t.Errorf("Recall(%s) returned out-of-stock %s", seed, it.ID)
			}
		}
	}
}

func TestSimilar_Limit(t *testing.T) {
	s := &Similar{Catalog: catalogFixture(), Weights: DefaultSimilarWeights()}
	got, err := s.Recall(context.Background(), &core.RecommendContext{ProductID: "phone1", Limit: 1})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if !reflect.DeepEqual(got.IDs(), []string{"phone2"}) {
		t.Errorf("IDs() = %v", got.IDs())
	}
	if lbl := got.Items[0].Labels["recall_source"]; lbl.Value != "recall.similar" {
		t.Errorf("recall_source label = %+v", lbl)
	}
}

func TestSimilar_Score(t *testing.T) {
	s := &Similar{Weights: DefaultSimilarWeights()}
	seed := &core.Product{Subcategory: "s", Brand: "b", Tags: []string{"t1", "t2"},
		CompatibleModels: []string{"m1", "m2", "m3", "m4", "m5"}, Price: 100}

	tests := []struct {
		name string
		p    *core.Product
		want float64
	}{
		{name: "nothing in common", p: &core.Product{Price: 1000}, want: 0},
		{name: "subcategory", p: &core.Product{Subcategory: "s", Price: 1000}, want: 5},
		{name: "brand", p: &core.Product{Brand: "b", Price: 1000}, want: 3},
		{name: "tags linear", p: &core.Product{Tags: []string{"t1", "t2", "x"}, Price: 1000}, want: 2},
		{name: "compatible capped", p: &core.Product{CompatibleModels: []string{"m1", "m2", "m3", "m4", "m5"}, Price: 1000}, want: 3},
		{name: "price band upper edge", p: &core.Product{Price: 130}, want: 2},
		{name: "price band lower edge", p: &core.Product{Price: 70}, want: 2},
		{name: "outside price band", p: &core.Product{Price: 131}, want: 0},
		{name: "rating", p: &core.Product{Price: 1000, RatingAvg: 5}, want: 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.score(seed, tt.p); got != tt.want {
				t.Errorf("score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimilar_StoreUnavailable(t *testing.T) {
	s := &Similar{Catalog: catalogFixture(), Weights: DefaultSimilarWeights()}
	_, err := s.Recall(canceledCtx(), &core.RecommendContext{ProductID: "phone1"})
	if !core.IsUnavailable(err) {
		t.Fatalf("Recall() error = %v, want UNAVAILABLE", err)
	}
}

func TestSimilar_ScoresWholePool(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.PutProduct(
		&core.Product{ID: "seed", Category: "phones", Subcategory: "smartphones", Brand: "Acme",
			Tags: []string{"5g", "oled"}, Price: 1000, InStock: true, CreatedAt: baseTime},
		&core.Product{ID: "twin", Category: "phones", Subcategory: "smartphones", Brand: "Acme",
			Tags: []string{"5g", "oled"}, Price: 1000, InStock: true, CreatedAt: baseTime},
	)
	crowd(ms, 500, "f", func(p *core.Product) {
		p.Category, p.Subcategory, p.Brand, p.Price = "phones", "feature-phones", "Other", 100
	})

	s := &Similar{Catalog: ms, Weights: DefaultSimilarWeights()}
	got, err := s.Recall(context.Background(), &core.RecommendContext{ProductID: "seed", Limit: 3})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if want := []string{"twin", "f499", "f498"}; !reflect.DeepEqual(got.IDs(), want) {
		t.Errorf("IDs() = %v, want %v", got.IDs(), want)
	}
}
