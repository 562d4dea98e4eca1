package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"riy-server/internal/auth"
	"riy-server/internal/logger"
	"riy-server/internal/models"
	"riy-server/internal/waste"
)

// accountError writes the response for errors from auth.Users.
func accountError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		c.JSON(400, gin.H{"error": "invalid_input", "details": err.Error()})
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(409, gin.H{"error": "email_taken"})
	case errors.Is(err, auth.ErrPhoneTaken):
		c.JSON(409, gin.H{"error": "phone_taken"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(401, gin.H{"error": "invalid_credentials"})
	case errors.Is(err, waste.ErrUserNotFound):
		c.JSON(404, gin.H{"error": "user_not_found"})
	default:
		logger.Error("account operation failed: %v", err)
		c.JSON(500, gin.H{"error": "internal_error"})
	}
}

func (s *Server) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		logger.Error("failed to sign token for user %d: %v", user.ID, err)
		c.JSON(500, gin.H{"error": "token_generation_failed"})
		return
	}
	c.JSON(status, gin.H{"token": token, "user": user})
}

func (s *Server) authRegister(c *gin.Context) {
	var payload auth.RegisterInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(400, gin.H{"error": "invalid_json"})
		return
	}

	user, err := s.users.Register(c.Request.Context(), payload)
	if err != nil {
		accountError(c, err)
		return
	}
	logger.Success("Registered user %d", user.ID)
	s.respondWithToken(c, 201, user)
}

func (s *Server) authLogin(c *gin.Context) {
	var payload struct {
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(400, gin.H{"error": "invalid_json"})
		return
	}

	identifier := payload.Email
	if identifier == "" {
		identifier = payload.Phone
	}
	user, err := s.users.Authenticate(c.Request.Context(), identifier, payload.Password)
	if err != nil {
		accountError(c, err)
		return
	}
	s.respondWithToken(c, 200, user)
}

func (s *Server) authMe(c *gin.Context) {
	c.JSON(200, gin.H{"user": c.MustGet("user")})
}

func (s *Server) updateProfile(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var payload auth.ProfileInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(400, gin.H{"error": "invalid_json"})
		return
	}

	user, err := s.users.UpdateProfile(c.Request.Context(), userID, payload)
	if err != nil {
		accountError(c, err)
		return
	}
	c.JSON(200, gin.H{"user": user})
}
