package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"riy-server/internal/logger"
	"riy-server/internal/models"
	"riy-server/internal/recycling"
)

func centerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, recycling.ErrCenterNotFound):
		c.JSON(404, gin.H{"error": "center_not_found"})
	case errors.Is(err, recycling.ErrInvalidCoordinates):
		c.JSON(400, gin.H{"error": "invalid_coordinates", "details": err.Error()})
	case errors.Is(err, recycling.ErrInvalidCenter):
		c.JSON(400, gin.H{"error": "invalid_input", "details": err.Error()})
	default:
		logger.Error("recycling center operation failed: %v", err)
		c.JSON(500, gin.H{"error": "internal_error"})
	}
}

type coordinatesQuery struct {
	Longitude *float64 `form:"longitude" binding:"required,min=-180,max=180"`
	Latitude  *float64 `form:"latitude" binding:"required,min=-90,max=90"`
}

func (s *Server) nearbyCenters(c *gin.Context) {
	var coords coordinatesQuery
	if err := c.ShouldBindQuery(&coords); err != nil {
		c.JSON(400, gin.H{"error": "invalid_coordinates", "details": err.Error()})
		return
	}
	var filter struct {
		MaxDistance float64 `form:"max_distance" binding:"omitempty,min=0"`
		Category    string  `form:"category"`
	}
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(400, gin.H{"error": "invalid_max_distance", "details": err.Error()})
		return
	}

	centers, err := s.centers.Nearby(c.Request.Context(), recycling.Query{
		Longitude:   *coords.Longitude,
		Latitude:    *coords.Latitude,
		MaxDistance: filter.MaxDistance,
		Category:    filter.Category,
	})
	if err != nil {
		centerError(c, err)
		return
	}
	c.JSON(200, gin.H{"centers": centers})
}

func (s *Server) getCenter(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	center, err := s.centers.Get(c.Request.Context(), id)
	if err != nil {
		centerError(c, err)
		return
	}
	c.JSON(200, center)
}

func (s *Server) centersByCategory(c *gin.Context) {
	centers, err := s.centers.ByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		centerError(c, err)
		return
	}
	c.JSON(200, gin.H{"centers": centers})
}

func (s *Server) adminCreateCenter(c *gin.Context) {
	var center models.RecyclingCenter
	if err := c.ShouldBindJSON(&center); err != nil {
		c.JSON(400, gin.H{"error": "invalid_json"})
		return
	}
	if err := s.centers.Create(c.Request.Context(), &center); err != nil {
		centerError(c, err)
		return
	}
	c.JSON(201, center)
}

func (s *Server) adminUpdateCenter(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var center models.RecyclingCenter
	if err := c.ShouldBindJSON(&center); err != nil {
		c.JSON(400, gin.H{"error": "invalid_json"})
		return
	}
	if err := s.centers.Update(c.Request.Context(), id, &center); err != nil {
		centerError(c, err)
		return
	}
	c.JSON(200, center)
}

func (s *Server) adminDeleteCenter(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.centers.Delete(c.Request.Context(), id); err != nil {
		centerError(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "center deleted"})
}
