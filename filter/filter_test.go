package filter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopstream/prodrec/core"
	"github.com/shopstream/prodrec/pkg/utils"
)

func newItem(productID string, score float64, algorithm string) *core.Item {
	it := core.NewItem(productID)
	it.Score = score
	if algorithm != "" {
		it.PutLabel(core.LabelAlgorithm, utils.Label{Value: algorithm, Source: "recall"})
	}
	return it
}

func ids(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ProductID)
	}
	return out
}

func TestRuleFilter(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{
			name: "score threshold",
			expr: `item.score < 0.3`,
			want: []string{"high", "mid"},
		},
		{
			name: "algorithm label",
			expr: `label.algorithm == "content_based"`,
			want: []string{"high", "low"},
		},
		{
			name: "combined",
			expr: `label.algorithm == "content_based" && item.score >= 0.5`,
			want: []string{"high", "low"},
		},
		{
			name: "no match keeps all",
			expr: `item.score > 100.0`,
			want: []string{"high", "mid", "low"},
		},
	}

	items := func() []*core.Item {
		return []*core.Item{
			newItem("high", 0.9, core.AlgorithmHybrid),
			newItem("mid", 0.5, core.AlgorithmContentBased),
			newItem("low", 0.1, core.AlgorithmCollaborative),
		}
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := NewRule(tt.expr)
			if err != nil {
				t.Fatalf("NewRule(%q): %v", tt.expr, err)
			}
			rctx := &core.RecommendContext{UserID: "u1"}
			got := Apply(context.Background(), rctx, items(), []Filter{rule})
			if len(got) != len(tt.want) {
				t.Fatalf("kept %v, want %v", ids(got), tt.want)
			}
			for i, id := range tt.want {
				if got[i].ProductID != id {
					t.Errorf("kept[%d] = %s, want %s", i, got[i].ProductID, id)
				}
			}
		})
	}
}

func TestNewRuleInvalidExpression(t *testing.T) {
	for _, expr := range []string{`item.score >`, `(((`, `label.algorithm ==`} {
		if _, err := NewRule(expr); err == nil {
			t.Errorf("NewRule(%q) accepted an invalid expression", expr)
		}
	}
}

func TestApplyErrorSkipsFilter(t *testing.T) {
	// rule references a label the items don't carry: CEL evaluation errors,
	// the filter must be skipped and the items kept
	rule, err := NewRule(`label.channel == "ads"`)
	if err != nil {
		t.Fatalf("NewRule: %v", err)
	}

	items := []*core.Item{newItem("p1", 0.5, "")}
	got := Apply(context.Background(), &core.RecommendContext{}, items, []Filter{rule})
	if len(got) != 1 {
		t.Fatalf("erroring filter dropped items: kept %v", ids(got))
	}
}

func TestApplyLabelsDropped(t *testing.T) {
	rule, err := NewRule(`item.score < 1.0`)
	if err != nil {
		t.Fatalf("NewRule: %v", err)
	}

	dropped := newItem("p1", 0.5, "")
	Apply(context.Background(), &core.RecommendContext{}, []*core.Item{dropped}, []Filter{rule})
	if lbl, ok := dropped.GetLabel("filtered"); !ok || lbl.Value != "true" {
		t.Errorf("dropped item missing filtered label: %+v", dropped.Labels)
	}
}

type fakeInteractions struct {
	byUser map[string][]core.Interaction
}

func (f *fakeInteractions) InteractionsOf(_ context.Context, userID string) ([]core.Interaction, error) {
	return f.byUser[userID], nil
}

func (f *fakeInteractions) InteractionsExcludingUser(_ context.Context, userID string) ([]core.Interaction, error) {
	var out []core.Interaction
	for id, inters := range f.byUser {
		if id == userID {
			continue
		}
		out = append(out, inters...)
	}
	return out, nil
}

func (f *fakeInteractions) InteractionCountsByProduct(context.Context) (map[string]int64, error) {
	return nil, errors.New("not implemented")
}

func TestInteractedFilter(t *testing.T) {
	interactions := &fakeInteractions{byUser: map[string][]core.Interaction{
		"u1": {
			{UserID: "u1", ProductID: "seen", Type: core.InteractionView, CreatedAt: time.Now()},
		},
	}}
	f := &Interacted{Interactions: interactions}
	rctx := &core.RecommendContext{UserID: "u1"}

	got := Apply(context.Background(), rctx, []*core.Item{
		newItem("seen", 0.9, ""),
		newItem("fresh", 0.5, ""),
	}, []Filter{f})

	if len(got) != 1 || got[0].ProductID != "fresh" {
		t.Errorf("kept %v, want [fresh]", ids(got))
	}
}
