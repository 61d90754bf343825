// Package careerserver exposes the trend pipeline over MCP: skill-stat
// queries, similarity and recommendation queries, gap analysis, and
// scheduler management.
package careerserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterTools registers every career tool on the given MCP server.
func RegisterTools(server *mcp.Server) {
	registerWeeklySkillStats(server)
	registerSkillTrend(server)
	registerSkillSearch(server)
	registerSimilarityScores(server)
	registerRecommendJobs(server)
	registerGapAnalysis(server)
	registerJobRoleRecommend(server)
	registerSchedulerStatus(server)
	registerSchedulerStart(server)
	registerSchedulerStop(server)
	registerRunAggregation(server)
	registerRunSimilarity(server)
	registerRunDailyBatch(server)
}
