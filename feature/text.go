package feature

import (
	"strings"
	"unicode"

	"github.com/shopstream/prodrec/core"
)

// FeatureText 构造商品的内容特征文本：类目 + 描述。
// 描述为空时退化为仅类目，保证向量化不会因脏数据中断。
func FeatureText(p *core.Product) string {
	if p == nil {
		return ""
	}
	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		return p.Category
	}
	return p.Category + " " + desc
}

// Tokenize 切分特征文本：小写化，按非字母数字切分，丢弃单字符 token。
// 规则刻意保持简单：类目/描述是短文本，不需要词干化或 n-gram。
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if len([]rune(tok)) < 2 {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
