package feature

import (
	"math"
	"reflect"
	"testing"

	"github.com/shopstream/prodrec/core"
)

func TestFeatureText(t *testing.T) {
	tests := []struct {
		name    string
		product *core.Product
		want    string
	}{
		{
			name:    "category and description",
			product: &core.Product{Category: "electronics", Description: "noise cancelling headphones"},
			want:    "electronics noise cancelling headphones",
		},
		{
			name:    "empty description degrades to category",
			product: &core.Product{Category: "clothing", Description: ""},
			want:    "clothing",
		},
		{
			name:    "whitespace-only description degrades to category",
			product: &core.Product{Category: "clothing", Description: "   "},
			want:    "clothing",
		},
		{
			name:    "nil product",
			product: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FeatureText(tt.product); got != tt.want {
				t.Errorf("FeatureText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercase and split on punctuation",
			text: "Wireless-Headphones, 40h Battery!",
			want: []string{"wireless", "headphones", "40h", "battery"},
		},
		{
			name: "single-rune tokens dropped",
			text: "a b cd",
			want: []string{"cd"},
		},
		{
			name: "empty text",
			text: "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestVectorizerStopWords(t *testing.T) {
	v := NewVectorizer(0)
	vectors, vocab := v.FitTransform([]string{"the best headphones", "the best speakers"})

	for _, term := range vocab {
		if term == "the" {
			t.Errorf("stop word %q survived into vocabulary %v", term, vocab)
		}
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
}

func TestVectorizerMaxFeatures(t *testing.T) {
	v := NewVectorizer(2)
	_, vocab := v.FitTransform([]string{
		"alpha alpha alpha beta beta gamma",
		"alpha beta gamma delta",
	})

	// alpha (4) and beta (3) are the most frequent terms
	want := []string{"alpha", "beta"}
	if !reflect.DeepEqual(vocab, want) {
		t.Errorf("vocab = %v, want %v", vocab, want)
	}
}

func TestVectorizerDeterministic(t *testing.T) {
	docs := []string{
		"electronics wireless headphones",
		"clothing cotton shirt",
		"electronics usb charger",
	}

	v1 := NewVectorizer(1000)
	vec1, vocab1 := v1.FitTransform(docs)
	v2 := NewVectorizer(1000)
	vec2, vocab2 := v2.FitTransform(docs)

	if !reflect.DeepEqual(vocab1, vocab2) {
		t.Fatalf("vocabularies differ: %v vs %v", vocab1, vocab2)
	}
	if !reflect.DeepEqual(vec1, vec2) {
		t.Fatalf("vectors differ across identical fits")
	}

	m1 := CosineMatrix(vec1)
	m2 := CosineMatrix(vec2)
	if !reflect.DeepEqual(m1, m2) {
		t.Fatalf("similarity matrices differ across identical fits")
	}
}

func TestCosineMatrixInvariants(t *testing.T) {
	docs := []string{
		"electronics wireless headphones bluetooth",
		"electronics wired headphones",
		"clothing cotton shirt",
		"", // empty document: zero vector
	}
	v := NewVectorizer(1000)
	vectors, _ := v.FitTransform(docs)
	matrix := CosineMatrix(vectors)

	n := len(matrix)
	if n != len(docs) {
		t.Fatalf("matrix size %d, want %d", n, len(docs))
	}
	for i := 0; i < n; i++ {
		if matrix[i][i] != 1.0 {
			t.Errorf("diagonal [%d][%d] = %v, want 1.0", i, i, matrix[i][i])
		}
		for j := 0; j < n; j++ {
			if matrix[i][j] != matrix[j][i] {
				t.Errorf("matrix not symmetric at [%d][%d]: %v vs %v", i, j, matrix[i][j], matrix[j][i])
			}
			if matrix[i][j] < 0 || matrix[i][j] > 1 {
				t.Errorf("matrix[%d][%d] = %v out of [0,1]", i, j, matrix[i][j])
			}
		}
	}

	// related electronics docs should be closer than cross-category pairs
	if matrix[0][1] <= matrix[0][2] {
		t.Errorf("similar docs scored %v, dissimilar %v; want similar > dissimilar", matrix[0][1], matrix[0][2])
	}
	// zero vector has no similarity with anything but keeps the unit diagonal
	for j := 0; j < 3; j++ {
		if matrix[3][j] != 0 {
			t.Errorf("zero-vector similarity [3][%d] = %v, want 0", j, matrix[3][j])
		}
	}
}

func TestVectorRowsNormalized(t *testing.T) {
	v := NewVectorizer(1000)
	vectors, _ := v.FitTransform([]string{"electronics wireless headphones", "clothing shirt"})

	for i, vec := range vectors {
		var norm float64
		for _, w := range vec {
			norm += w * w
		}
		if math.Abs(norm-1.0) > 1e-9 {
			t.Errorf("vector %d has squared norm %v, want 1.0", i, norm)
		}
	}
}
