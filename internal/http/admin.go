package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"riy-server/internal/logger"
	"riy-server/internal/waste"
)

func (s *Server) adminListUsers(c *gin.Context) {
	users, err := s.users.List(c.Request.Context())
	if err != nil {
		logger.Error("failed to list users: %v", err)
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(200, gin.H{"users": users})
}

// adminSetPoints overwrites a user's totals. Omitted fields keep their value.
func (s *Server) adminSetPoints(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload struct {
		Points        *int `json:"points" binding:"required_without=ItemsRecycled"`
		ItemsRecycled *int `json:"items_recycled" binding:"required_without=Points"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(400, gin.H{"error": "invalid_input", "details": err.Error()})
		return
	}

	totals, err := s.ledger.SetTotals(c.Request.Context(), id, payload.Points, payload.ItemsRecycled)
	switch {
	case err == nil:
		logger.Info("Admin %d set totals of user %d to %+v", c.MustGet("userID").(uint), id, totals)
		c.JSON(200, gin.H{"user_id": id, "points": totals.Points, "items_recycled": totals.ItemsRecycled})
	case errors.Is(err, waste.ErrNegativeTotals):
		c.JSON(400, gin.H{"error": "invalid_input", "details": err.Error()})
	case errors.Is(err, waste.ErrUserNotFound):
		c.JSON(404, gin.H{"error": "user_not_found"})
	default:
		logger.Error("failed to set totals of user %d: %v", id, err)
		c.JSON(500, gin.H{"error": "internal_error"})
	}
}
