package careerserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_career/internal/engine/trend"
)

// GapAnalysisInput is the input for gap_analysis.
type GapAnalysisInput struct {
	UserID  int64  `json:"user_id"`
	Role    string `json:"role"`
	Purpose string `json:"purpose,omitempty"`
}

// GapAnalysisOutput is the output for gap_analysis.
type GapAnalysisOutput struct {
	UserID      int64    `json:"user_id"`
	Role        string   `json:"role"`
	Explanation string   `json:"explanation"`
	Items       []string `json:"items"`
}

func registerGapAnalysis(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "gap_analysis",
		Description: "Compare a user's skills against the capabilities currently in demand for a job role. Purpose: visualization (top 5 gaps) or planning (top 10, default visualization). Returns a generated explanation plus the extracted gap item names.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input GapAnalysisInput) (*mcp.CallToolResult, GapAnalysisOutput, error) {
		if input.UserID <= 0 {
			return nil, GapAnalysisOutput{}, errors.New("user_id is required")
		}
		if input.Role == "" {
			return nil, GapAnalysisOutput{}, errors.New("role is required")
		}

		count := trend.GapItemsVisualization
		switch input.Purpose {
		case "", "visualization":
		case "planning":
			count = trend.GapItemsPlanning
		default:
			return nil, GapAnalysisOutput{}, fmt.Errorf("unknown purpose %q (want visualization or planning)", input.Purpose)
		}

		user, err := trend.GetTrendDB().GetUser(ctx, input.UserID)
		if err != nil {
			return nil, GapAnalysisOutput{}, err
		}

		result, err := trend.GetGapAnalyzer().Analyze(ctx, user, input.Role, count)
		if err != nil {
			return nil, GapAnalysisOutput{}, err
		}
		return nil, GapAnalysisOutput{
			UserID:      input.UserID,
			Role:        input.Role,
			Explanation: result.Explanation,
			Items:       result.Items,
		}, nil
	})
}

// RoleRecommendInput is the input for job_role_recommend.
type RoleRecommendInput struct {
	UserID int64 `json:"user_id"`
	TopK   int   `json:"top_k,omitempty"`
}

// RoleRecommendOutput is the output for job_role_recommend.
type RoleRecommendOutput struct {
	UserID   int64             `json:"user_id"`
	BestRole string            `json:"best_role,omitempty"`
	Roles    []trend.RoleScore `json:"roles"`
}

func registerJobRoleRecommend(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "job_role_recommend",
		Description: "Score every job role against a user's skills using current trend-skill counts weighted by proficiency (low 1.0, mid 1.4, high 1.8). Pure computation, no generative model. Returns the best role and the top-K role scores.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input RoleRecommendInput) (*mcp.CallToolResult, RoleRecommendOutput, error) {
		if input.UserID <= 0 {
			return nil, RoleRecommendOutput{}, errors.New("user_id is required")
		}
		topK := input.TopK
		if topK <= 0 {
			topK = 3
		}

		db := trend.GetTrendDB()
		user, err := db.GetUser(ctx, input.UserID)
		if err != nil {
			return nil, RoleRecommendOutput{}, err
		}

		scores, err := trend.RecommendRoles(ctx, db, user, topK)
		if err != nil {
			return nil, RoleRecommendOutput{}, err
		}

		out := RoleRecommendOutput{UserID: input.UserID, Roles: scores}
		if len(scores) > 0 {
			out.BestRole = scores[0].RoleName
		}
		return nil, out, nil
	})
}
