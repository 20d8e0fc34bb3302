package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/shopstream/prodrec/core"
	"github.com/shopstream/prodrec/filter"
	"github.com/shopstream/prodrec/pkg/utils"
	"github.com/shopstream/prodrec/recall"
)

// Recommendation 是返回给调用方的一条推荐结果。
type Recommendation struct {
	Product   *core.Product
	Score     float64
	Algorithm string // collaborative / content_based / hybrid
}

// Engine 是混合推荐打分引擎：协同召回 + 内容召回 + 固定权重混合。
//
// Engine 是显式实例：缓存与向量化器都挂在实例上，不依赖任何包级单例，
// 多个 Engine（按测试、按租户）互不干扰。构建一次、按引用传给请求处理方。
//
// 已知尺度不一致：协同分是无界的加权累加，内容分有界于 [0,1]，
// 0.7/0.3 权重直接作用在这两种原始分上，不做归一化。
// 这是对线上观测行为的保真，调大 ContentWeight 并不能等比放大内容侧影响。
type Engine struct {
	params       core.Params
	interactions core.InteractionStore
	catalog      core.CatalogStore

	collaborative recall.Source
	content       recall.Source
	cache         *SimilarityCache
	filters       []filter.Filter
	logger        zerolog.Logger
}

// Option 配置 Engine。
type Option func(*options)

type options struct {
	params  core.Params
	logger  zerolog.Logger
	filters []filter.Filter
	now     func() time.Time
}

// WithParams 覆盖默认参数。
func WithParams(params core.Params) Option {
	return func(o *options) { o.params = params }
}

// WithLogger 注入结构化日志；默认不输出任何日志。
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithFilters 追加混合结果上的业务过滤器。
func WithFilters(filters ...filter.Filter) Option {
	return func(o *options) { o.filters = append(o.filters, filters...) }
}

// WithClock 注入时钟（测试用，驱动缓存过期）。
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New 创建引擎实例。
// Params.Rules 中的 CEL 表达式在这里编译成过滤器，表达式非法立即报错。
func New(interactions core.InteractionStore, catalog core.CatalogStore, opts ...Option) (*Engine, error) {
	o := &options{
		params: core.DefaultParams(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	params := o.params.Normalized()

	filters := append([]filter.Filter{&filter.Interacted{Interactions: interactions}}, o.filters...)
	for _, expr := range params.Rules {
		rule, err := filter.NewRule(expr)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		filters = append(filters, rule)
	}

	cache := NewSimilarityCache(catalog, params, o.logger)
	if o.now != nil {
		cache.now = o.now
	}

	return &Engine{
		params:       params,
		interactions: interactions,
		catalog:      catalog,
		collaborative: &recall.Collaborative{
			Interactions: interactions,
			Params:       params,
		},
		content: &recall.ContentBased{
			Interactions: interactions,
			Similarity:   cache,
			Params:       params,
		},
		cache:   cache,
		filters: filters,
		logger:  o.logger,
	}, nil
}

// Recommend 返回用户的最终推荐列表，按分数非递增排序，长度不超过 limit。
//
// 流程：两个召回源各取 limit/2（整除，limit 为奇数时内容侧少一个），
// 按商品 ID 合并：协同候选 ×0.7 先入；内容候选 ×0.3，撞上已有候选则
// 累加并把 algorithm 改写为 hybrid，否则新插入。排序截断后解析商品实体，
// 交互引用了缺失商品时静默跳过该候选。
//
// limit <= 0 返回空列表，不报错。只有外部存储的基础设施错误会向上传播。
func (e *Engine) Recommend(ctx context.Context, userID string, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		return nil, nil
	}
	rctx := &core.RecommendContext{UserID: userID}
	half := limit / 2

	collaborative, err := e.collaborative.Recall(ctx, rctx, half)
	if err != nil {
		return nil, fmt.Errorf("collaborative recall: %w", err)
	}
	content, err := e.content.Recall(ctx, rctx, half)
	if err != nil {
		return nil, fmt.Errorf("content recall: %w", err)
	}

	merged := e.merge(collaborative, content)
	merged = filter.Apply(ctx, rctx, merged, e.filters)
	if len(merged) > limit {
		merged = merged[:limit]
	}

	out := make([]Recommendation, 0, len(merged))
	for _, it := range merged {
		product, err := e.catalog.ProductByID(ctx, it.ProductID)
		if err != nil {
			if core.IsNotFound(err) {
				continue // 候选引用了缺失商品：跳过，不让整个请求失败
			}
			return nil, fmt.Errorf("resolve product %s: %w", it.ProductID, err)
		}
		algorithm := core.AlgorithmCollaborative
		if lbl, ok := it.GetLabel(core.LabelAlgorithm); ok {
			algorithm = lbl.Value
		}
		out = append(out, Recommendation{
			Product:   product,
			Score:     it.Score,
			Algorithm: algorithm,
		})
	}

	e.logger.Debug().
		Str("user_id", userID).
		Int("limit", limit).
		Int("collaborative", len(collaborative)).
		Int("content", len(content)).
		Int("returned", len(out)).
		Msg("recommend")
	return out, nil
}

// merge 按商品 ID 合并两路召回：
// 协同候选 ×CollaborativeWeight 先入；内容候选 ×ContentWeight，
// 已存在则分数累加且 algorithm 改写为 hybrid，否则新插入。
// 两侧原始分不做归一化（见 Engine 文档的尺度说明）。
func (e *Engine) merge(collaborative, content []*core.Item) []*core.Item {
	byID := make(map[string]*core.Item, len(collaborative)+len(content))
	order := make([]string, 0, len(collaborative)+len(content))

	for _, it := range collaborative {
		weighted := core.NewItem(it.ProductID)
		weighted.Score = it.Score * e.params.CollaborativeWeight
		weighted.Labels = it.Labels
		weighted.SetLabel(core.LabelAlgorithm, utils.Label{Value: core.AlgorithmCollaborative, Source: "engine"})
		byID[it.ProductID] = weighted
		order = append(order, it.ProductID)
	}

	for _, it := range content {
		if existing, ok := byID[it.ProductID]; ok {
			existing.Score += it.Score * e.params.ContentWeight
			existing.SetLabel(core.LabelAlgorithm, utils.Label{Value: core.AlgorithmHybrid, Source: "engine"})
			continue
		}
		weighted := core.NewItem(it.ProductID)
		weighted.Score = it.Score * e.params.ContentWeight
		weighted.Labels = it.Labels
		weighted.SetLabel(core.LabelAlgorithm, utils.Label{Value: core.AlgorithmContentBased, Source: "engine"})
		byID[it.ProductID] = weighted
		order = append(order, it.ProductID)
	}

	out := make([]*core.Item, 0, len(byID))
	for _, id := range order {
		out = append(out, byID[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}
