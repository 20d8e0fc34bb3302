package core

import (
	"context"
	"time"
)

// SimilaritySnapshot 是一代完整的内容相似度数据：
// 目录枚举顺序、商品 ID 到行列索引的映射、两两余弦相似度矩阵。
// 一代数据构建后只读，换代时整体原子替换，不做局部更新。
//
// 不变量：Matrix 对称、对角线为 1、取值 [0,1]，行列与 ProductIDs 一一对应。
type SimilaritySnapshot struct {
	BuiltAt    time.Time
	ProductIDs []string
	Index      map[string]int
	Matrix     [][]float64
}

// Row 返回某个商品的相似度行；商品不在本代目录中时返回 (nil, false)。
func (s *SimilaritySnapshot) Row(productID string) ([]float64, bool) {
	pos, ok := s.Index[productID]
	if !ok {
		return nil, false
	}
	return s.Matrix[pos], true
}

// SimilarityProvider 向内容召回提供当前代的相似度数据。
// 实现方负责时效管理（TTL 判定、重建、换代），调用方拿到的永远是一代完整数据。
type SimilarityProvider interface {
	Snapshot(ctx context.Context) (*SimilaritySnapshot, error)
}
