package http

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"riy-server/internal/ledger"
	"riy-server/internal/logger"
	"riy-server/internal/waste"
)

// itemMilestones are the recycled item counts a user is congratulated on.
var itemMilestones = []int{1, 10, 25, 50, 100, 250, 500, 1000}

type InsightCard struct {
	Type        string `json:"type"` // info, success
	Title       string `json:"title"`
	Description string `json:"description"`
	ActionLabel string `json:"action_label,omitempty"`
	ActionType  string `json:"action_type,omitempty"`
}

type InsightsResponse struct {
	Standing      ledger.Standing `json:"standing"`
	NextMilestone *int            `json:"next_milestone"` // nil once every milestone is reached
	Insights      []InsightCard   `json:"insights"`
}

func (s *Server) getStats(c *gin.Context) {
	stats, err := s.ledger.Stats(c.Request.Context())
	if err != nil {
		logger.Error("stats query failed: %v", err)
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(200, stats)
}

func (s *Server) getInsights(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	st, err := s.ledger.Standing(c.Request.Context(), userID)
	if errors.Is(err, waste.ErrUserNotFound) {
		c.JSON(404, gin.H{"error": "user_not_found"})
		return
	}
	if err != nil {
		logger.Error("standing query for user %d failed: %v", userID, err)
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(200, buildInsights(st))
}

func buildInsights(st ledger.Standing) InsightsResponse {
	res := InsightsResponse{Standing: st, Insights: []InsightCard{}}

	for _, m := range itemMilestones {
		if st.ItemsRecycled < m {
			next := m
			res.NextMilestone = &next
			break
		}
	}

	if st.ItemsRecycled == 0 {
		res.Insights = append(res.Insights, InsightCard{
			Type:        "info",
			Title:       "Scan your first item",
			Description: "Point your camera at a piece of waste to learn how to dispose of it and earn points.",
			ActionLabel: "Scan now",
			ActionType:  "open_scanner",
		})
	} else if res.NextMilestone != nil {
		res.Insights = append(res.Insights, InsightCard{
			Type:        "info",
			Title:       fmt.Sprintf("%d items to go", *res.NextMilestone-st.ItemsRecycled),
			Description: fmt.Sprintf("You have recycled %d items. Reach %d to hit your next milestone.", st.ItemsRecycled, *res.NextMilestone),
			ActionLabel: "Scan now",
			ActionType:  "open_scanner",
		})
	}

	switch {
	case st.Rank == 1 && st.Points > 0:
		res.Insights = append(res.Insights, InsightCard{
			Type:        "success",
			Title:       "You're leading the leaderboard",
			Description: fmt.Sprintf("%d points puts you ahead of all %d recyclers.", st.Points, st.TotalUsers),
		})
	case st.Rank <= ledger.DashboardSize && st.Points > 0:
		res.Insights = append(res.Insights, InsightCard{
			Type:        "success",
			Title:       fmt.Sprintf("You're in the top %d", ledger.DashboardSize),
			Description: fmt.Sprintf("You are ranked #%d out of %d.", st.Rank, st.TotalUsers),
			ActionLabel: "View leaderboard",
			ActionType:  "view_leaderboard",
		})
	}

	if st.PointsToNextRank > 0 {
		res.Insights = append(res.Insights, InsightCard{
			Type:        "info",
			Title:       fmt.Sprintf("%d points to climb", st.PointsToNextRank),
			Description: fmt.Sprintf("Earn %d more points to move up from #%d.", st.PointsToNextRank, st.Rank),
			ActionLabel: "View leaderboard",
			ActionType:  "view_leaderboard",
		})
	}
	return res
}
