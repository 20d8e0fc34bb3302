package filter

import (
	"context"
	"fmt"

	"github.com/shopstream/prodrec/core"
	"github.com/shopstream/prodrec/pkg/dsl"
)

// Rule 是基于 CEL 表达式的业务规则过滤器。
// 表达式对候选求值，返回 true 的候选被剔除。
//
// 示例：
//   f, _ := filter.NewRule(`item.score < 0.05`)
//   f, _ := filter.NewRule(`label.algorithm == "content_based" && item.score < 0.2`)
type Rule struct {
	program *dsl.Program
}

// NewRule 编译一条规则表达式；表达式非法时返回错误。
func NewRule(expr string) (*Rule, error) {
	program, err := dsl.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("filter rule: %w", err)
	}
	return &Rule{program: program}, nil
}

func (f *Rule) Name() string {
	return "filter.rule(" + f.program.Expr() + ")"
}

func (f *Rule) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return f.program.Match(item, rctx)
}
