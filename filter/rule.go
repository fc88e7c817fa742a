package filter

import (
	"context"

	"github.com/rushteam/storerank/core"
	"github.com/rushteam/storerank/pkg/dsl"
)

// RuleFilter 用 CEL 表达式决定是否保留条目：表达式为 true 时保留。
type RuleFilter struct {
	rule *dsl.Rule
}

// NewRuleFilter 编译表达式，表达式无效时返回错误。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	rule, err := dsl.Compile(expr)
	if err != nil {
		return nil, core.ErrInvalidInput(core.ModuleService, err.Error())
	}
	return &RuleFilter{rule: rule}, nil
}

func (f *RuleFilter) Name() string { return "filter.rule" }

func (f *RuleFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	keep, err := f.rule.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}

var _ Filter = (*RuleFilter)(nil)
