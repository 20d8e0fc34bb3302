package core

import "time"

// Params 汇总打分引擎的全部可调参数。
// 所有常量（行为权重、混合权重、相似度阈值、缓存 TTL、邻居上限）
// 都通过 Params 注入，不在算法代码里写死字面量。
type Params struct {
	// CollaborativeWeight 协同召回分数在混合层的权重
	CollaborativeWeight float64 `yaml:"collaborative_weight"`

	// ContentWeight 内容召回分数在混合层的权重
	ContentWeight float64 `yaml:"content_weight"`

	// SimilarityThreshold 相似度下限（严格大于才保留），
	// 同时作用于用户 Jaccard 相似度与商品内容相似度
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// NeighborCap 协同召回保留的相似用户上限
	NeighborCap int `yaml:"neighbor_cap"`

	// CacheTTL 内容相似度缓存的有效期
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// MaxFeatures TF-IDF 词表上限（按语料词频截断）
	MaxFeatures int `yaml:"max_features"`

	// PurchaseWeight / LikeWeight / ViewWeight 行为类型权重；
	// search 行为贡献恒为 0，不设参数
	PurchaseWeight float64 `yaml:"purchase_weight"`
	LikeWeight     float64 `yaml:"like_weight"`
	ViewWeight     float64 `yaml:"view_weight"`

	// Rules 混合结果上的 CEL 过滤规则（命中即剔除），可为空
	Rules []string `yaml:"rules"`
}

// DefaultParams 返回默认参数。
// 默认值与线上观测行为保持一致：0.7/0.3 混合、0.1 阈值、Top10 邻居、1h 缓存。
func DefaultParams() Params {
	return Params{
		CollaborativeWeight: 0.7,
		ContentWeight:       0.3,
		SimilarityThreshold: 0.1,
		NeighborCap:         10,
		CacheTTL:            3600 * time.Second,
		MaxFeatures:         1000,
		PurchaseWeight:      3.0,
		LikeWeight:          2.0,
		ViewWeight:          1.0,
	}
}

// Normalized 返回填充了默认值的副本：零值字段回退到 DefaultParams。
// 允许调用方只覆盖关心的参数。
func (p Params) Normalized() Params {
	def := DefaultParams()
	if p.CollaborativeWeight == 0 {
		p.CollaborativeWeight = def.CollaborativeWeight
	}
	if p.ContentWeight == 0 {
		p.ContentWeight = def.ContentWeight
	}
	if p.SimilarityThreshold == 0 {
		p.SimilarityThreshold = def.SimilarityThreshold
	}
	if p.NeighborCap <= 0 {
		p.NeighborCap = def.NeighborCap
	}
	if p.CacheTTL <= 0 {
		p.CacheTTL = def.CacheTTL
	}
	if p.MaxFeatures <= 0 {
		p.MaxFeatures = def.MaxFeatures
	}
	if p.PurchaseWeight == 0 {
		p.PurchaseWeight = def.PurchaseWeight
	}
	if p.LikeWeight == 0 {
		p.LikeWeight = def.LikeWeight
	}
	if p.ViewWeight == 0 {
		p.ViewWeight = def.ViewWeight
	}
	return p
}

// TypeWeight 返回行为类型的权重；search 与未知类型返回 0。
func (p Params) TypeWeight(t InteractionType) float64 {
	switch t {
	case InteractionPurchase:
		return p.PurchaseWeight
	case InteractionLike:
		return p.LikeWeight
	case InteractionView:
		return p.ViewWeight
	default:
		return 0
	}
}

// RatingFactor 返回评分因子：有评分时为 rating/5，否则为 1。
func RatingFactor(rating *float64) float64 {
	if rating == nil {
		return 1.0
	}
	return *rating / 5.0
}
