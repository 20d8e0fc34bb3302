// Package prodrec 是一个混合商品推荐打分引擎（Product Recommender）。
//
// 设计要点：
// - 双路召回：协同过滤（用户 Jaccard 相似度）+ 内容相似（TF-IDF 余弦）
// - 固定权重混合：协同 0.7 / 内容 0.3，重叠候选标记为 hybrid
// - 内容相似度矩阵按 TTL 整体换代，重建通过 singleflight 收敛为单次
// - 冷启动：无历史用户回退到热度榜
package prodrec

import (
	"github.com/shopstream/prodrec/core"
	"github.com/shopstream/prodrec/engine"
)

// 轻量 facade：便于用户直接 import "prodrec" 使用核心抽象。
type Engine = engine.Engine
type Recommendation = engine.Recommendation
type Params = core.Params

var (
	New           = engine.New
	DefaultParams = core.DefaultParams
	WithParams    = engine.WithParams
	WithLogger    = engine.WithLogger
	WithFilters   = engine.WithFilters
)

const (
	AlgorithmCollaborative = core.AlgorithmCollaborative
	AlgorithmContentBased  = core.AlgorithmContentBased
	AlgorithmHybrid        = core.AlgorithmHybrid
)
