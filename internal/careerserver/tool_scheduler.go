package careerserver

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_career/internal/engine/trend"
)

// SchedulerStatusOutput is the output for scheduler_status.
type SchedulerStatusOutput struct {
	Running bool            `json:"running"`
	Jobs    []trend.JobInfo `json:"jobs"`
}

func registerSchedulerStatus(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "scheduler_status",
		Description: "Whether the daily batch scheduler is running, and the next fire time of each scheduled job.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, SchedulerStatusOutput, error) {
		status := trend.GetScheduler().Status()
		return nil, SchedulerStatusOutput{Running: status.Running, Jobs: status.Jobs}, nil
	})
}

// SchedulerControlOutput is the output for scheduler_start / scheduler_stop.
type SchedulerControlOutput struct {
	Running bool `json:"running"`
}

func registerSchedulerStart(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "scheduler_start",
		Description: "Start the daily batch scheduler. Idempotent.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, SchedulerControlOutput, error) {
		s := trend.GetScheduler()
		s.Start()
		return nil, SchedulerControlOutput{Running: s.Status().Running}, nil
	})
}

func registerSchedulerStop(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "scheduler_stop",
		Description: "Stop the daily batch scheduler. A run already in flight completes; only future firings are prevented.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, SchedulerControlOutput, error) {
		s := trend.GetScheduler()
		s.Stop()
		return nil, SchedulerControlOutput{Running: s.Status().Running}, nil
	})
}

// RunAggregationInput is the input for run_aggregation.
type RunAggregationInput struct {
	Role     string `json:"role,omitempty"`
	Category string `json:"category,omitempty"`
}

// RunAggregationOutput is the output for run_aggregation.
type RunAggregationOutput struct {
	Status  string `json:"status"`
	Created int    `json:"created,omitempty"`
	Deleted int    `json:"deleted,omitempty"`
}

func registerRunAggregation(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_aggregation",
		Description: "Trigger skill-stats aggregation now. With role and category, aggregates that single pair and returns row counts. Without them, runs the full pass for every role and category; if a full pass is already running, reports already_running without queuing.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input RunAggregationInput) (*mcp.CallToolResult, RunAggregationOutput, error) {
		if input.Role == "" && input.Category == "" {
			status, err := trend.GetScheduler().RunNow(ctx, trend.JobSkillStatsAggregate)
			if err != nil {
				return nil, RunAggregationOutput{}, err
			}
			return nil, RunAggregationOutput{Status: string(status)}, nil
		}
		if input.Role == "" || input.Category == "" {
			return nil, RunAggregationOutput{}, errors.New("role and category must be given together")
		}

		category, err := trend.ParseFieldCategory(input.Category)
		if err != nil {
			return nil, RunAggregationOutput{}, err
		}
		role, err := trend.GetTrendDB().GetJobRoleByName(ctx, input.Role)
		if err != nil {
			return nil, RunAggregationOutput{}, err
		}

		now := time.Now().In(trend.StatsLocation())
		res, err := trend.GetAggregator().Aggregate(ctx, role, category, now)
		if err != nil {
			return nil, RunAggregationOutput{}, err
		}
		return nil, RunAggregationOutput{
			Status:  string(trend.StatusStarted),
			Created: res.Created,
			Deleted: res.Deleted,
		}, nil
	})
}

// RunSimilarityInput is the input for run_similarity.
type RunSimilarityInput struct {
	UserID int64 `json:"user_id,omitempty"`
}

// RunSimilarityOutput is the output for run_similarity.
type RunSimilarityOutput struct {
	Status string `json:"status"`
	Scores int    `json:"scores,omitempty"`
}

func registerRunSimilarity(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_similarity",
		Description: "Trigger similarity recomputation now. With user_id, recomputes that user's scores and returns the row count. Without it, recomputes every user; if a full recomputation is already running, reports already_running without queuing.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input RunSimilarityInput) (*mcp.CallToolResult, RunSimilarityOutput, error) {
		if input.UserID <= 0 {
			status, err := trend.GetScheduler().RunNow(ctx, trend.JobSimilarityRecompute)
			if err != nil {
				return nil, RunSimilarityOutput{}, err
			}
			return nil, RunSimilarityOutput{Status: string(status)}, nil
		}

		user, err := trend.GetTrendDB().GetUser(ctx, input.UserID)
		if err != nil {
			return nil, RunSimilarityOutput{}, err
		}
		n, err := trend.GetRanker().RecomputeUser(ctx, user)
		if err != nil {
			return nil, RunSimilarityOutput{}, err
		}
		return nil, RunSimilarityOutput{Status: string(trend.StatusStarted), Scores: n}, nil
	})
}

// RunDailyBatchOutput is the output for run_daily_batch.
type RunDailyBatchOutput struct {
	Status string `json:"status"`
}

func registerRunDailyBatch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_daily_batch",
		Description: "Trigger the full daily batch now: similarity recomputation for every user, then skill-stats aggregation for every role and category. If the batch is already running, reports already_running without queuing.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, RunDailyBatchOutput, error) {
		status, err := trend.GetScheduler().RunNow(ctx, trend.JobDailyBatch)
		if err != nil {
			return nil, RunDailyBatchOutput{}, err
		}
		return nil, RunDailyBatchOutput{Status: string(status)}, nil
	})
}
