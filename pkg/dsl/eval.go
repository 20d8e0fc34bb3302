package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/shopstream/prodrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是一个编译后的候选过滤规则，使用 CEL (Common Expression Language) 实现。
// 表达式在规则加载时编译一次，之后可对任意候选反复求值，线程安全。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.score < 0.05 / item.score >= 0.5
//   - 标签：label.algorithm == "content_based"
//   - 逻辑：label.algorithm == "hybrid" && item.score > 0.8
//   - 存在性：label.algorithm != null
//
// 示例：
//   - `item.score < 0.05` → 剔除低分候选
//   - `label.algorithm == "content_based" && item.score < 0.2` → 只对内容召回设限
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译一条 CEL 规则表达式。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}

	return &Program{expr: expr, prg: prg}, nil
}

// Expr 返回规则的原始表达式（用于日志/解释）。
func (p *Program) Expr() string { return p.expr }

// Match 对一个候选求值，返回布尔结果。
// 表达式必须返回布尔值，否则报错。
func (p *Program) Match(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		// 对于不存在的 key，CEL 会返回错误
		// 用户应该使用 label.key != null 来检查存在性，而不是直接访问
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	labels := make(map[string]interface{})
	labelAccessor := make(map[string]interface{})
	if item != nil {
		for k, v := range item.Labels {
			labels[k] = map[string]interface{}{
				"value":  v.Value,
				"source": v.Source,
			}
			// label.algorithm 直接返回 value，兼顾简洁写法
			labelAccessor[k] = v.Value
		}
	}

	itemInput := map[string]interface{}{}
	if item != nil {
		itemInput["id"] = item.ProductID
		itemInput["score"] = item.Score
		itemInput["labels"] = labels
	}

	rctxInput := map[string]interface{}{}
	if rctx != nil {
		rctxInput["user_id"] = rctx.UserID
		rctxInput["scene"] = rctx.Scene
		rctxInput["params"] = rctx.Params
	}

	return map[string]interface{}{
		"item":  itemInput,
		"label": labelAccessor,
		"rctx":  rctxInput,
	}
}
