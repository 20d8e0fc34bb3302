package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/shopstream/prodrec/core"
	"github.com/shopstream/prodrec/feature"
)

// SimilarityCache 持有目录级内容相似度矩阵，按 TTL 管理时效。
//
// 状态机：Absent → Built → Stale → Built(新一代)。
// 重建是临界区：同一时刻最多一次重建在途；观察到过期的并发请求
// 通过 singleflight 等待并复用在途重建的结果，不会各自重算整个目录。
// 观察到新鲜一代的读请求不加锁竞争，直接返回当前代。
//
// 重建成本为向量化 O(N·V) 加矩阵 O(N²)（N 目录规模，V 词表规模），
// 不可取消、没有超时；目录规模直接决定重建耗时。
type SimilarityCache struct {
	catalog    core.CatalogStore
	vectorizer *feature.Vectorizer
	ttl        time.Duration
	logger     zerolog.Logger

	// now 可注入，测试时用假时钟驱动过期
	now func() time.Time

	group   singleflight.Group
	mu      sync.RWMutex
	current *core.SimilaritySnapshot
}

// NewSimilarityCache 创建相似度缓存。构建时为 Absent，首次 Snapshot 触发建库。
func NewSimilarityCache(catalog core.CatalogStore, params core.Params, logger zerolog.Logger) *SimilarityCache {
	params = params.Normalized()
	return &SimilarityCache{
		catalog:    catalog,
		vectorizer: feature.NewVectorizer(params.MaxFeatures),
		ttl:        params.CacheTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Snapshot 实现 core.SimilarityProvider 接口。
// 当前代新鲜则直接返回；Absent/Stale 时触发（或等待在途的）整体重建。
func (c *SimilarityCache) Snapshot(ctx context.Context) (*core.SimilaritySnapshot, error) {
	if snap := c.freshSnapshot(); snap != nil {
		return snap, nil
	}

	v, err, shared := c.group.Do("rebuild", func() (any, error) {
		// 排队期间可能已有等待者完成了重建，重查一次避免连续重算
		if snap := c.freshSnapshot(); snap != nil {
			return snap, nil
		}
		return c.rebuild(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug().Msg("similarity cache: reused in-flight rebuild")
	}
	return v.(*core.SimilaritySnapshot), nil
}

// freshSnapshot 返回当前代（若存在且未过期），否则返回 nil。
func (c *SimilarityCache) freshSnapshot() *core.SimilaritySnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	if c.now().Sub(c.current.BuiltAt) > c.ttl {
		return nil
	}
	return c.current
}

// rebuild 全量重建：重新抽取目录特征文本、从头拟合 TF-IDF、重算矩阵，整体换代。
// 没有增量路径：目录的任何变化都通过下一次换代体现。
func (c *SimilarityCache) rebuild(ctx context.Context) (*core.SimilaritySnapshot, error) {
	started := c.now()

	products, err := c.catalog.AllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("similarity rebuild: %w", err)
	}

	ids := make([]string, len(products))
	index := make(map[string]int, len(products))
	texts := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
		texts[i] = feature.FeatureText(p)
	}

	vectors, vocab := c.vectorizer.FitTransform(texts)
	snapshot := &core.SimilaritySnapshot{
		BuiltAt:    started,
		ProductIDs: ids,
		Index:      index,
		Matrix:     feature.CosineMatrix(vectors),
	}

	c.mu.Lock()
	c.current = snapshot
	c.mu.Unlock()

	c.logger.Info().
		Int("products", len(ids)).
		Int("vocabulary", len(vocab)).
		Dur("elapsed", c.now().Sub(started)).
		Msg("similarity cache rebuilt")
	return snapshot, nil
}

var _ core.SimilarityProvider = (*SimilarityCache)(nil)
