package careerserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_career/internal/engine/trend"
)

// SimilarityScoresInput is the input for similarity_scores.
type SimilarityScoresInput struct {
	UserID int64 `json:"user_id"`
	TopK   int   `json:"top_k,omitempty"`
}

// ScoredPosting is one persisted similarity row with posting detail attached.
type ScoredPosting struct {
	JobPostID  int64   `json:"job_post_id"`
	Title      string  `json:"title,omitempty"`
	Company    string  `json:"company,omitempty"`
	Similarity float64 `json:"similarity"`
}

// SimilarityScoresOutput is the output for similarity_scores.
type SimilarityScoresOutput struct {
	UserID   int64           `json:"user_id"`
	Postings []ScoredPosting `json:"postings"`
}

func registerSimilarityScores(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "similarity_scores",
		Description: "Stored profile-to-posting similarity scores for a user, best first. Scores come from the last similarity recomputation; an empty list means no recomputation has run for this user yet.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SimilarityScoresInput) (*mcp.CallToolResult, SimilarityScoresOutput, error) {
		if input.UserID <= 0 {
			return nil, SimilarityScoresOutput{}, errors.New("user_id is required")
		}
		topK := input.TopK
		if topK <= 0 {
			topK = 20
		}

		scores, err := trend.GetTrendDB().TopSimilarityScores(ctx, input.UserID, topK)
		if err != nil {
			return nil, SimilarityScoresOutput{}, err
		}

		corpus := trend.GetCorpus()
		out := SimilarityScoresOutput{UserID: input.UserID}
		for _, s := range scores {
			sp := ScoredPosting{JobPostID: s.JobPostID, Similarity: s.Similarity}
			if posting, err := corpus.GetPosting(ctx, s.JobPostID); err == nil {
				sp.Title = posting.Title
				sp.Company = posting.Company
			}
			out.Postings = append(out.Postings, sp)
		}
		return nil, out, nil
	})
}

// RecommendJobsInput is the input for recommend_jobs.
type RecommendJobsInput struct {
	UserID int64 `json:"user_id"`
}

// RecommendedJob is one re-ranked posting in a recommendation response.
type RecommendedJob struct {
	JobPostID  int64   `json:"job_post_id"`
	Title      string  `json:"title"`
	Company    string  `json:"company"`
	TechStack  string  `json:"tech_stack,omitempty"`
	Deadline   string  `json:"deadline,omitempty"`
	Similarity float64 `json:"similarity"`
}

// RecommendJobsOutput is the output for recommend_jobs.
type RecommendJobsOutput struct {
	UserID int64            `json:"user_id"`
	Jobs   []RecommendedJob `json:"jobs"`
}

func registerRecommendJobs(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "recommend_jobs",
		Description: "Personalized posting recommendations for a user: embedding similarity ranks the corpus, then a generative re-ranker picks the best 5. Falls back to pure similarity order when the model is unavailable.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input RecommendJobsInput) (*mcp.CallToolResult, RecommendJobsOutput, error) {
		if input.UserID <= 0 {
			return nil, RecommendJobsOutput{}, errors.New("user_id is required")
		}

		db := trend.GetTrendDB()
		user, err := db.GetUser(ctx, input.UserID)
		if err != nil {
			return nil, RecommendJobsOutput{}, err
		}

		ranked, err := trend.GetRanker().Rank(ctx, user, trend.DefaultTopN)
		if err != nil {
			return nil, RecommendJobsOutput{}, err
		}
		selected := trend.GetReranker().Rerank(ctx, trend.SummarizeProfile(user), ranked)

		out := RecommendJobsOutput{UserID: input.UserID}
		for _, c := range selected {
			out.Jobs = append(out.Jobs, RecommendedJob{
				JobPostID:  c.Posting.ID,
				Title:      c.Posting.Title,
				Company:    c.Posting.Company,
				TechStack:  c.Posting.TechStack,
				Deadline:   c.Posting.Deadline.Format("2006-01-02"),
				Similarity: c.Similarity,
			})
		}
		return nil, out, nil
	})
}
