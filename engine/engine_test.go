package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopstream/prodrec/core"
	"github.com/shopstream/prodrec/store"
)

func newTestAdapter(t *testing.T) *store.Adapter {
	t.Helper()
	mem := store.NewMemoryStore()
	t.Cleanup(func() { mem.Close() })
	return store.NewAdapter(mem, "test")
}

func putProducts(t *testing.T, a *store.Adapter, products ...*core.Product) {
	t.Helper()
	if err := a.PutProducts(context.Background(), products...); err != nil {
		t.Fatalf("PutProducts: %v", err)
	}
}

func record(t *testing.T, a *store.Adapter, userID, productID string, typ core.InteractionType) {
	t.Helper()
	err := a.RecordInteraction(context.Background(), core.Interaction{
		UserID:    userID,
		ProductID: productID,
		Type:      typ,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
}

func TestRecommendEndToEnd(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	putProducts(t, adapter,
		&core.Product{ID: "A", Name: "Laptop", Category: "electronics"},
		&core.Product{ID: "B", Name: "Shirt", Category: "clothing"},
		&core.Product{ID: "C", Name: "Phone", Category: "electronics"},
	)
	record(t, adapter, "u1", "A", core.InteractionView)
	record(t, adapter, "u1", "C", core.InteractionLike)
	record(t, adapter, "u2", "B", core.InteractionPurchase)
	record(t, adapter, "u2", "C", core.InteractionView)

	eng, err := New(adapter, adapter)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	recs, err := eng.Recommend(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	// collaborative: Jaccard(u1,u2) = 1/3, u2's purchase of B scores 1/3*3.0 = 1.0,
	// weighted 0.7. content: A is nearest to seed C but already interacted, so
	// nothing survives. Final list is exactly [(B, 0.7, collaborative)].
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1: %+v", len(recs), recs)
	}
	if recs[0].Product == nil || recs[0].Product.ID != "B" {
		t.Errorf("recommended product = %+v, want B", recs[0].Product)
	}
	if math.Abs(recs[0].Score-0.7) > 1e-9 {
		t.Errorf("score = %v, want 0.7", recs[0].Score)
	}
	if recs[0].Algorithm != core.AlgorithmCollaborative {
		t.Errorf("algorithm = %q, want %q", recs[0].Algorithm, core.AlgorithmCollaborative)
	}
}

func TestRecommendHybridOverlap(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	// A and B share category text, so content similarity(A,B) is high;
	// u2 also makes B a collaborative candidate for u1.
	putProducts(t, adapter,
		&core.Product{ID: "A", Name: "Laptop", Category: "electronics"},
		&core.Product{ID: "B", Name: "Tablet", Category: "electronics"},
		&core.Product{ID: "C", Name: "Shirt", Category: "clothing"},
	)
	record(t, adapter, "u1", "A", core.InteractionLike)
	record(t, adapter, "u2", "A", core.InteractionView)
	record(t, adapter, "u2", "B", core.InteractionPurchase)

	eng, err := New(adapter, adapter)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	recs, err := eng.Recommend(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if len(recs) != 1 || recs[0].Product.ID != "B" {
		t.Fatalf("got %+v, want single recommendation B", recs)
	}
	if recs[0].Algorithm != core.AlgorithmHybrid {
		t.Errorf("algorithm = %q, want %q", recs[0].Algorithm, core.AlgorithmHybrid)
	}
	// collaborative: 1/2 * 3.0 * 0.7 = 1.05; content: 1.0 * 0.3 = 0.3
	want := 1.05 + 0.3
	if math.Abs(recs[0].Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", recs[0].Score, want)
	}
}

func TestRecommendLimitZero(t *testing.T) {
	adapter := newTestAdapter(t)
	record(t, adapter, "u1", "A", core.InteractionView)

	eng, err := New(adapter, adapter)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	recs, err := eng.Recommend(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("limit 0 must return an empty list, got %d", len(recs))
	}
}

func TestRecommendSortedAndBounded(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	products := []*core.Product{
		{ID: "p1", Category: "electronics"},
		{ID: "p2", Category: "electronics"},
		{ID: "p3", Category: "electronics"},
		{ID: "p4", Category: "electronics"},
		{ID: "p5", Category: "books"},
		{ID: "p6", Category: "books"},
	}
	putProducts(t, adapter, products...)

	record(t, adapter, "u1", "p1", core.InteractionLike)
	record(t, adapter, "u2", "p1", core.InteractionView)
	record(t, adapter, "u2", "p2", core.InteractionPurchase)
	record(t, adapter, "u2", "p3", core.InteractionLike)
	record(t, adapter, "u3", "p1", core.InteractionView)
	record(t, adapter, "u3", "p4", core.InteractionView)
	record(t, adapter, "u3", "p5", core.InteractionLike)

	eng, err := New(adapter, adapter)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, limit := range []int{2, 4, 20} {
		recs, err := eng.Recommend(ctx, "u1", limit)
		if err != nil {
			t.Fatalf("Recommend(limit=%d): %v", limit, err)
		}
		if len(recs) > limit {
			t.Errorf("limit %d: got %d items", limit, len(recs))
		}
		for i := 1; i < len(recs); i++ {
			if recs[i].Score > recs[i-1].Score {
				t.Errorf("limit %d: scores not non-increasing at %d: %v after %v",
					limit, i, recs[i].Score, recs[i-1].Score)
			}
		}
		for _, rec := range recs {
			if rec.Product.ID == "p1" {
				t.Errorf("limit %d: already-interacted p1 returned", limit)
			}
		}
	}
}

func TestRecommendColdStartUser(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	putProducts(t, adapter,
		&core.Product{ID: "A", Category: "electronics"},
		&core.Product{ID: "B", Category: "clothing"},
	)
	record(t, adapter, "u1", "A", core.InteractionView)
	record(t, adapter, "u1", "B", core.InteractionView)
	record(t, adapter, "u2", "A", core.InteractionPurchase)

	eng, err := New(adapter, adapter)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	recs, err := eng.Recommend(ctx, "nobody", 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	// popularity fallback: A has 2 interactions, B has 1; the raw counts are
	// blended like any collaborative score, so the ordering is A then B
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}
	if recs[0].Product.ID != "A" || recs[1].Product.ID != "B" {
		t.Errorf("order = [%s, %s], want [A, B]", recs[0].Product.ID, recs[1].Product.ID)
	}
	for _, rec := range recs {
		if rec.Algorithm != core.AlgorithmCollaborative {
			t.Errorf("fallback algorithm = %q, want %q", rec.Algorithm, core.AlgorithmCollaborative)
		}
	}
}

func TestRecommendMissingProductSkipped(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	// u2 interacted with "ghost" which never made it into the catalog
	putProducts(t, adapter, &core.Product{ID: "A", Category: "electronics"})
	record(t, adapter, "u1", "A", core.InteractionView)
	record(t, adapter, "u2", "A", core.InteractionView)
	record(t, adapter, "u2", "ghost", core.InteractionPurchase)

	eng, err := New(adapter, adapter)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	recs, err := eng.Recommend(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("Recommend must not fail on a missing product: %v", err)
	}
	for _, rec := range recs {
		if rec.Product.ID == "ghost" {
			t.Errorf("missing product surfaced in results")
		}
	}
}

func TestRecommendRuleFilter(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	putProducts(t, adapter,
		&core.Product{ID: "A", Category: "electronics"},
		&core.Product{ID: "B", Category: "electronics"},
	)
	record(t, adapter, "u1", "A", core.InteractionLike)
	record(t, adapter, "u2", "A", core.InteractionView)
	record(t, adapter, "u2", "B", core.InteractionPurchase)

	params := core.DefaultParams()
	params.Rules = []string{`item.score > 1.0`}

	eng, err := New(adapter, adapter, WithParams(params))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	recs, err := eng.Recommend(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	// B scores 1.05 collaborative + 0.3 content = 1.35, the rule drops it
	if len(recs) != 0 {
		t.Errorf("rule should have dropped every candidate, got %+v", recs)
	}
}

func TestNewRejectsInvalidRule(t *testing.T) {
	adapter := newTestAdapter(t)

	params := core.DefaultParams()
	params.Rules = []string{`item.score >`}

	if _, err := New(adapter, adapter, WithParams(params)); err == nil {
		t.Fatalf("New accepted an invalid CEL rule")
	}
}
