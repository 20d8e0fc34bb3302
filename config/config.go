package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shopstream/prodrec/core"
)

// Config 是引擎的配置结构（支持 YAML）。
//
// 示例：
//
//	engine:
//	  collaborative_weight: 0.7
//	  content_weight: 0.3
//	  similarity_threshold: 0.1
//	  neighbor_cap: 10
//	  cache_ttl_seconds: 3600
//	  max_features: 1000
//	  rules:
//	    - item.score < 0.05
type Config struct {
	Engine EngineConfig `yaml:"engine"`
}

// EngineConfig 是 core.Params 的 YAML 形式。
// TTL 用秒表达（cache_ttl_seconds），其余字段与 core.Params 一一对应。
type EngineConfig struct {
	CollaborativeWeight float64  `yaml:"collaborative_weight"`
	ContentWeight       float64  `yaml:"content_weight"`
	SimilarityThreshold float64  `yaml:"similarity_threshold"`
	NeighborCap         int      `yaml:"neighbor_cap"`
	CacheTTLSeconds     int      `yaml:"cache_ttl_seconds"`
	MaxFeatures         int      `yaml:"max_features"`
	PurchaseWeight      float64  `yaml:"purchase_weight"`
	LikeWeight          float64  `yaml:"like_weight"`
	ViewWeight          float64  `yaml:"view_weight"`
	Rules               []string `yaml:"rules"`
}

// Params 转换为 core.Params，未设置的字段回退到默认值。
func (c EngineConfig) Params() core.Params {
	return core.Params{
		CollaborativeWeight: c.CollaborativeWeight,
		ContentWeight:       c.ContentWeight,
		SimilarityThreshold: c.SimilarityThreshold,
		NeighborCap:         c.NeighborCap,
		CacheTTL:            time.Duration(c.CacheTTLSeconds) * time.Second,
		MaxFeatures:         c.MaxFeatures,
		PurchaseWeight:      c.PurchaseWeight,
		LikeWeight:          c.LikeWeight,
		ViewWeight:          c.ViewWeight,
		Rules:               c.Rules,
	}.Normalized()
}

// LoadFromYAML 从 YAML 文件加载引擎配置。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}
