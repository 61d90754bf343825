package trend

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical unit vectors", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"both empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRankByVector(t *testing.T) {
	profile := []float32{1, 0}

	// Similarities: 0.9-ish, 0.5-ish, 0.1-ish via angles.
	postings := []JobPosting{
		{ID: 1, Embedding: []float32{0.1, 0.995}},  // low
		{ID: 2, Embedding: []float32{0.9, 0.436}},  // high
		{ID: 3, Embedding: []float32{0.5, 0.866}},  // mid
	}

	ranked := RankByVector(profile, postings)
	if len(ranked) != 3 {
		t.Fatalf("got %d candidates, want 3", len(ranked))
	}

	wantIDs := []int64{2, 3, 1}
	for i, want := range wantIDs {
		if ranked[i].Posting.ID != want {
			t.Errorf("position %d: got posting %d, want %d", i, ranked[i].Posting.ID, want)
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Similarity > ranked[i-1].Similarity {
			t.Errorf("not descending at %d: %v > %v", i, ranked[i].Similarity, ranked[i-1].Similarity)
		}
	}
}

func TestRankByVectorSkipsUnembedded(t *testing.T) {
	profile := []float32{1, 0}
	postings := []JobPosting{
		{ID: 1},
		{ID: 2, Embedding: []float32{1, 0}},
		{ID: 3},
	}

	ranked := RankByVector(profile, postings)
	if len(ranked) != 1 || ranked[0].Posting.ID != 2 {
		t.Errorf("got %+v, want only posting 2", ranked)
	}
}

func TestRankByVectorStableTies(t *testing.T) {
	profile := []float32{1, 0}
	// Identical embeddings: corpus order must survive.
	postings := []JobPosting{
		{ID: 10, Embedding: []float32{1, 0}},
		{ID: 20, Embedding: []float32{1, 0}},
		{ID: 30, Embedding: []float32{1, 0}},
	}

	ranked := RankByVector(profile, postings)
	wantIDs := []int64{10, 20, 30}
	for i, want := range wantIDs {
		if ranked[i].Posting.ID != want {
			t.Errorf("position %d: got %d, want %d (ties must keep input order)", i, ranked[i].Posting.ID, want)
		}
	}
}

func TestRankByVectorEmpty(t *testing.T) {
	if ranked := RankByVector([]float32{1, 0}, nil); len(ranked) != 0 {
		t.Errorf("got %d candidates for empty corpus", len(ranked))
	}
}

func TestRankDegradesOnEmbedFailure(t *testing.T) {
	corpus := testCorpus(t)
	ctx := context.Background()
	now := time.Now().UTC()
	if err := corpus.SeedPostings(ctx, []JobPosting{
		{ID: 1, RoleID: 1, Title: "Backend Dev", PostingDate: now, Deadline: now, Embedding: []float32{1, 0}},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	r := NewRanker(nil, corpus, NewEmbedClient(srv.URL, ""))
	ranked, err := r.Rank(ctx, UserProfile{ID: 1}, DefaultTopN)
	if err != nil {
		t.Fatalf("embed failure must not surface as an error, got %v", err)
	}
	if len(ranked) != 0 {
		t.Errorf("got %d candidates, want empty ranking", len(ranked))
	}
}
