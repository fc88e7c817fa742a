// Package dsl 提供基于 CEL 的条目规则表达式。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/storerank/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("product", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Rule 是编译好的布尔表达式，可并发复用。
//
// 可用变量：
//   - item:    id / score / sources（blend_sources 拆分后的列表）
//   - product: id / name / brand / category / subcategory / tags / price / popularity / rating / in_stock / is_accessory
//     条目没有商品视图时 product 为空 map，访问字段前用 has(product.price) 判断
//   - label:   label.recall_source 等，值为 Label.Value
//   - rctx:    user_id / product_id / params
//
// 示例：
//   - `product.price < 2000.0`
//   - `"personal" in item.sources && item.score > 0.5`
//   - `!(product.brand in rctx.params.blocked_brands)`
type Rule struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；表达式必须返回 bool。
func Compile(expr string) (*Rule, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("compile %q: expression must return bool, got %s", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &Rule{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (r *Rule) String() string { return r.expr }

// Eval 对单个条目求值。
func (r *Rule) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := r.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", r.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: expression must return bool, got %T", r.expr, out.Value())
	}
	return result, nil
}

func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}
	sources := []string{}
	if vals := item.Labels["blend_sources"].Values(); vals != nil {
		sources = vals
	}

	product := map[string]any{}
	if p := item.Product; p != nil {
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		product = map[string]any{
			"id":           p.ID,
			"name":         p.Name,
			"brand":        p.Brand,
			"category":     p.Category,
			"subcategory":  p.Subcategory,
			"tags":         tags,
			"price":        p.Price,
			"popularity":   p.Popularity,
			"rating":       p.RatingAvg,
			"in_stock":     p.InStock,
			"is_accessory": p.IsAccessory,
		}
	}

	rc := map[string]any{"user_id": "", "product_id": "", "params": map[string]any{}}
	if rctx != nil {
		rc["user_id"] = rctx.UserID
		rc["product_id"] = rctx.ProductID
		if rctx.Params != nil {
			rc["params"] = rctx.Params
		}
	}

	return map[string]any{
		"item": map[string]any{
			"id":      item.ID,
			"score":   item.Score,
			"sources": sources,
		},
		"product": product,
		"label":   labels,
		"rctx":    rc,
	}
}
