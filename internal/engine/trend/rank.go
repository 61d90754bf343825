package trend

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_career/internal/engine"
)

// DefaultTopN is the candidate slice handed to the re-ranker.
const DefaultTopN = 20

// Ranker scores the posting corpus against a user profile by cosine
// similarity over precomputed embeddings.
type Ranker struct {
	db      *TrendDB
	corpus  *Corpus
	embed   *EmbedClient
	limiter *rate.Limiter
}

// NewRanker creates a ranker. The limiter paces embedding calls during
// full-corpus recomputation.
func NewRanker(db *TrendDB, corpus *Corpus, embed *EmbedClient) *Ranker {
	return &Ranker{
		db:      db,
		corpus:  corpus,
		embed:   embed,
		limiter: rate.NewLimiter(rate.Limit(5), 1),
	}
}

// Rank encodes the user profile and returns the topN most similar postings.
// Postings without an embedding are skipped; zero embeddable postings
// yields an empty ranking, not an error. An embedding-service failure also
// degrades to an empty ranking: callers get a usable (empty) result and the
// failure shows up in logs and counters, not as a fatal error.
func (r *Ranker) Rank(ctx context.Context, user UserProfile, topN int) ([]RankedCandidate, error) {
	postings, err := r.corpus.PostingsWithEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	if len(postings) == 0 {
		return nil, nil
	}

	vec, err := r.embed.Encode(ctx, SummarizeProfile(user))
	if err != nil {
		slog.Warn("rank: profile encode failed, returning empty ranking",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err),
		)
		return nil, nil
	}

	ranked := RankByVector(vec, postings)
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}

// RankByVector scores postings against a profile vector, similarity desc.
// The sort is stable: ties keep original corpus order. Postings without an
// embedding are dropped.
func RankByVector(profile []float32, postings []JobPosting) []RankedCandidate {
	candidates := make([]RankedCandidate, 0, len(postings))
	for _, p := range postings {
		if len(p.Embedding) == 0 {
			continue
		}
		candidates = append(candidates, RankedCandidate{
			Posting:    p,
			Similarity: Cosine(profile, p.Embedding),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	return candidates
}

// Cosine computes cosine similarity between two vectors. Mismatched or
// zero-norm vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RecomputeResult summarizes a full-corpus similarity recomputation.
type RecomputeResult struct {
	Users     int `json:"users"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Scores    int `json:"scores"`
}

// RecomputeAll recomputes and persists similarity scores for every user,
// sequentially. A single user's failure is counted and logged, and does not
// abort the remaining users.
func (r *Ranker) RecomputeAll(ctx context.Context) (RecomputeResult, error) {
	users, err := r.db.ListUsers(ctx)
	if err != nil {
		return RecomputeResult{}, fmt.Errorf("recompute all: %w", err)
	}
	postings, err := r.corpus.PostingsWithEmbeddings(ctx)
	if err != nil {
		return RecomputeResult{}, fmt.Errorf("recompute all: %w", err)
	}

	result := RecomputeResult{Users: len(users)}
	for _, user := range users {
		n, err := r.recomputeUser(ctx, user, postings)
		if err != nil {
			result.Failed++
			engine.IncrSimilarityErrors()
			slog.Error("similarity recompute failed",
				slog.Int64("user_id", user.ID),
				slog.Any("error", err),
			)
			continue
		}
		result.Succeeded++
		result.Scores += n
	}

	slog.Info("similarity recompute complete",
		slog.Int("users", result.Users),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
		slog.Int("scores", result.Scores),
	)
	return result, nil
}

// RecomputeUser recomputes and persists scores for one user against every
// embeddable posting, replacing any prior rows.
func (r *Ranker) RecomputeUser(ctx context.Context, user UserProfile) (int, error) {
	postings, err := r.corpus.PostingsWithEmbeddings(ctx)
	if err != nil {
		return 0, fmt.Errorf("recompute user %d: %w", user.ID, err)
	}
	return r.recomputeUser(ctx, user, postings)
}

func (r *Ranker) recomputeUser(ctx context.Context, user UserProfile, postings []JobPosting) (int, error) {
	engine.IncrSimilarityRuns()

	if err := r.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	vec, err := r.embed.Encode(ctx, SummarizeProfile(user))
	if err != nil {
		return 0, fmt.Errorf("encode profile: %w", err)
	}

	ranked := RankByVector(vec, postings)
	scores := make([]SimilarityScore, 0, len(ranked))
	for _, c := range ranked {
		scores = append(scores, SimilarityScore{
			UserID:     user.ID,
			JobPostID:  c.Posting.ID,
			Similarity: c.Similarity,
		})
	}
	if err := r.db.ReplaceSimilarityScores(ctx, user.ID, scores); err != nil {
		return 0, err
	}
	return len(scores), nil
}
