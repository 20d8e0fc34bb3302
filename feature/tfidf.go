package feature

import (
	"math"
	"sort"
)

// Vector 是一个 l2 归一化后的稀疏 TF-IDF 向量：列索引 -> 权重。
type Vector map[int]float64

// Vectorizer 把一批特征文本拟合成 TF-IDF 向量空间。
//
// 拟合规则：
//  1. Tokenize + 停用词剔除
//  2. 词表按语料总词频截断到 MaxFeatures（并列时按字典序），列按字典序编号
//  3. idf = ln((1+N)/(1+df)) + 1（平滑，保证 idf > 0）
//  4. 每行 l2 归一化，余弦相似度退化为点积
//
// 同一批文本重复拟合产出完全相同的向量空间（词表选择与列序都是确定性的）。
type Vectorizer struct {
	// MaxFeatures 词表上限；<= 0 表示不截断
	MaxFeatures int

	// StopWords 停用词表；nil 表示使用内置英文停用词
	StopWords map[string]struct{}
}

// NewVectorizer 创建一个带英文停用词的向量化器。
func NewVectorizer(maxFeatures int) *Vectorizer {
	return &Vectorizer{
		MaxFeatures: maxFeatures,
		StopWords:   englishStopWords,
	}
}

// FitTransform 在整个语料上重新拟合词表并向量化每篇文档。
// 没有增量模式：目录变化靠整体重建（调用方负责重建时机）。
// 返回每篇文档的向量与词表（按列序）。
func (v *Vectorizer) FitTransform(docs []string) ([]Vector, []string) {
	stop := v.StopWords
	if stop == nil {
		stop = englishStopWords
	}

	// 逐文档分词并统计词频
	docTokens := make([]map[string]int, len(docs))
	corpusCount := make(map[string]int)
	docFreq := make(map[string]int)
	for i, doc := range docs {
		counts := make(map[string]int)
		for _, tok := range Tokenize(doc) {
			if _, ok := stop[tok]; ok {
				continue
			}
			counts[tok]++
		}
		docTokens[i] = counts
		for tok, c := range counts {
			corpusCount[tok] += c
			docFreq[tok]++
		}
	}

	vocab := v.selectVocab(corpusCount)
	index := make(map[string]int, len(vocab))
	for i, term := range vocab {
		index[term] = i
	}

	// idf 平滑：ln((1+N)/(1+df)) + 1
	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for i, term := range vocab {
		idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	vectors := make([]Vector, len(docs))
	for i, counts := range docTokens {
		vec := make(Vector, len(counts))
		var norm float64
		for tok, c := range counts {
			col, ok := index[tok]
			if !ok {
				continue
			}
			w := float64(c) * idf[col]
			vec[col] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for col, w := range vec {
				vec[col] = w / norm
			}
		}
		vectors[i] = vec
	}

	return vectors, vocab
}

// selectVocab 选择词表：按语料总词频降序截断，并列按字典序，列序为字典序。
func (v *Vectorizer) selectVocab(corpusCount map[string]int) []string {
	terms := make([]string, 0, len(corpusCount))
	for term := range corpusCount {
		terms = append(terms, term)
	}

	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			ci, cj := corpusCount[terms[i]], corpusCount[terms[j]]
			if ci != cj {
				return ci > cj
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.MaxFeatures]
	}

	sort.Strings(terms)
	return terms
}

// CosineMatrix 计算两两余弦相似度矩阵。
// 输入向量已 l2 归一化，余弦即点积；输出矩阵对称、对角线为 1、取值 [0,1]。
// 零向量（文本全是停用词）与任何向量的相似度为 0，但对角线仍置 1。
func CosineMatrix(vectors []Vector) [][]float64 {
	n := len(vectors)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1.0
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := dot(vectors[i], vectors[j])
			// 浮点误差兜底，保证取值落在 [0,1]
			if sim < 0 {
				sim = 0
			} else if sim > 1 {
				sim = 1
			}
			matrix[i][j] = sim
			matrix[j][i] = sim
		}
	}
	return matrix
}

func dot(a, b Vector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for col, w := range a {
		if wb, ok := b[col]; ok {
			sum += w * wb
		}
	}
	return sum
}
