package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"riy-server/internal/ai"
	"riy-server/internal/auth"
	"riy-server/internal/chat"
	"riy-server/internal/config"
	"riy-server/internal/ledger"
	"riy-server/internal/logger"
	"riy-server/internal/models"
	"riy-server/internal/recycling"
	"riy-server/internal/scan"
	"riy-server/internal/storage"
	"riy-server/internal/waste"
)

// Deps are the long-lived pieces the server is built from. Redis and Images
// may be nil. ScanLedger overrides where scan rewards are recorded and
// defaults to the database ledger.
type Deps struct {
	Config     *config.Config
	DB         *gorm.DB
	Redis      *redis.Client
	Classifier ai.Classifier
	Knowledge  *waste.KnowledgeBase
	Rewards    *waste.RewardPolicy
	Enforcer   *casbin.Enforcer
	Images     storage.ImageStore
	ScanLedger scan.Ledger
}

type Server struct {
	cfg       *config.Config
	db        *gorm.DB
	scans     *scan.Orchestrator
	ledger    *ledger.Store
	users     *auth.Users
	tokens    *auth.TokenService
	enforcer  *casbin.Enforcer
	centers   *recycling.Service
	knowledge *waste.KnowledgeBase
	rewards   *waste.RewardPolicy
	bot       *chat.Bot
	images    storage.ImageStore
	limiter   *RateLimiter
}

func NewServer(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors(d.Config))
	r.Use(logging())

	store := ledger.New(d.DB)
	var scanLedger scan.Ledger = store
	if d.ScanLedger != nil {
		scanLedger = d.ScanLedger
	}
	timeout := time.Duration(d.Config.ClassifierTimeoutSec) * time.Second

	s := &Server{
		cfg:       d.Config,
		db:        d.DB,
		scans:     scan.New(d.Classifier, d.Knowledge, d.Rewards, scanLedger, timeout),
		ledger:    store,
		users:     auth.NewUsers(d.DB),
		tokens:    auth.NewTokenService(d.Config.JWTSecret, d.Config.JWTIssuer, time.Duration(d.Config.JWTTTLHours)*time.Hour),
		enforcer:  d.Enforcer,
		centers:   recycling.NewService(d.DB, d.Redis),
		knowledge: d.Knowledge,
		rewards:   d.Rewards,
		bot:       chat.NewBot(d.Knowledge),
		images:    d.Images,
		limiter:   NewRateLimiter(d.Redis, d.Config.ScanRateLimitPerMinute, time.Minute),
	}

	v1 := r.Group("/v1")

	// Auth
	v1.POST("/auth/register", s.authRegister)
	v1.POST("/auth/login", s.authLogin)
	v1.GET("/auth/me", s.AuthMiddleware(), s.authMe)

	// Waste
	v1.GET("/waste/categories", s.listCategories)
	v1.GET("/waste/diy-ideas", s.listDIYIdeas)
	v1.GET("/waste/barcode/:code", s.getByBarcode)
	v1.GET("/waste/leaderboard", s.getLeaderboard)
	v1.POST("/waste/analyze", s.OptionalAuth(), s.rateLimit(), s.analyzeWaste)

	// Recycling centers
	v1.GET("/recycling/centers", s.nearbyCenters)
	v1.GET("/recycling/centers/:id", s.getCenter)
	v1.GET("/recycling/categories/:category", s.centersByCategory)

	v1.GET("/chat", s.chatGreeting)
	v1.POST("/chat", s.chat)

	v1.GET("/users/stats", s.getStats)
	users := v1.Group("/users")
	users.Use(s.AuthMiddleware())
	{
		users.PUT("/profile", s.updateProfile)
		users.GET("/insights", s.getInsights)
	}

	admin := v1.Group("/admin")
	admin.Use(s.AuthMiddleware(), s.Authorize())
	{
		admin.GET("/users", s.adminListUsers)
		admin.PUT("/users/:id/points", s.adminSetPoints)
		admin.POST("/waste/items", s.adminCreateWasteItem)
		admin.POST("/recycling/centers", s.adminCreateCenter)
		admin.PUT("/recycling/centers/:id", s.adminUpdateCenter)
		admin.DELETE("/recycling/centers/:id", s.adminDeleteCenter)
	}

	if local, ok := d.Images.(*storage.LocalStore); ok {
		r.Static(storage.URLPrefix, local.Dir())
	}
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	return r
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(400, gin.H{"error": "invalid_id"})
		return 0, false
	}
	return uint(id), true
}

func (s *Server) listCategories(c *gin.Context) {
	type categoryInfo struct {
		waste.Knowledge
		Points int `json:"points"`
	}
	out := []categoryInfo{}
	for _, k := range s.knowledge.All() {
		out = append(out, categoryInfo{Knowledge: k, Points: s.rewards.Compute(k.Category).Points})
	}
	c.JSON(200, gin.H{"categories": out})
}

type categoryIdeas struct {
	Category waste.Category  `json:"category"`
	Ideas    []waste.DIYIdea `json:"ideas"`
}

// listDIYIdeas merges the knowledge base ideas with those attached to catalog
// items, skipping repeated titles.
func (s *Server) listDIYIdeas(c *gin.Context) {
	categories := waste.Categories
	if q := strings.TrimSpace(c.Query("category")); q != "" {
		cat, ok := waste.ParseCategory(q)
		if !ok {
			c.JSON(400, gin.H{"error": "invalid_category"})
			return
		}
		categories = []waste.Category{cat}
	}

	var items []models.WasteItem
	if err := s.db.WithContext(c.Request.Context()).
		Where("category IN ? AND is_diy_usable = ?", categories, true).
		Order("id ASC").
		Find(&items).Error; err != nil {
		logger.Error("failed to load catalog ideas: %v", err)
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}

	out := []categoryIdeas{}
	for _, cat := range categories {
		ideas := s.knowledge.Lookup(cat).DIYIdeas
		seen := map[string]bool{}
		for _, idea := range ideas {
			seen[strings.ToLower(idea.Title)] = true
		}
		for _, item := range items {
			if item.Category != cat {
				continue
			}
			for _, idea := range item.DIYIdeas {
				if key := strings.ToLower(idea.Title); !seen[key] {
					seen[key] = true
					ideas = append(ideas, idea)
				}
			}
		}
		if len(ideas) == 0 && len(categories) > 1 {
			continue
		}
		out = append(out, categoryIdeas{Category: cat, Ideas: ideas})
	}
	c.JSON(200, gin.H{"ideas": out})
}

func (s *Server) getByBarcode(c *gin.Context) {
	var item models.WasteItem
	err := s.db.WithContext(c.Request.Context()).Where("barcode_id = ?", c.Param("code")).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(404, gin.H{"error": "item_not_found"})
		return
	}
	if err != nil {
		logger.Error("barcode lookup failed: %v", err)
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(200, item)
}

func (s *Server) getLeaderboard(c *gin.Context) {
	var query struct {
		Limit int `form:"limit" binding:"omitempty,min=1"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(400, gin.H{"error": "invalid_limit", "details": err.Error()})
		return
	}
	limit := query.Limit
	if limit == 0 {
		limit = ledger.DefaultLeaderboardSize
	}

	rows, err := s.ledger.TopN(c.Request.Context(), limit)
	if err != nil {
		logger.Error("leaderboard query failed: %v", err)
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(200, gin.H{"leaderboard": rows})
}

func (s *Server) chatGreeting(c *gin.Context) {
	c.JSON(200, chat.Reply{Reply: chat.Greeting})
}

func (s *Server) chat(c *gin.Context) {
	var payload struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(400, gin.H{"error": "message_required", "details": err.Error()})
		return
	}
	reply, err := s.bot.Respond(payload.Message)
	if err != nil {
		c.JSON(400, gin.H{"error": "message_required", "details": err.Error()})
		return
	}
	c.JSON(200, reply)
}

type ideaInput struct {
	Title           string           `json:"title" binding:"required"`
	Description     string           `json:"description"`
	DifficultyLevel waste.Difficulty `json:"difficulty_level" binding:"required,oneof=Easy Medium Hard"`
}

type wasteItemInput struct {
	Name                 string         `json:"name" binding:"required"`
	Category             waste.Category `json:"category" binding:"required"`
	DisposalInstructions string         `json:"disposal_instructions"`
	DIYIdeas             []ideaInput    `json:"diy_ideas" binding:"omitempty,dive"`
	PointsAwarded        int            `json:"points_awarded" binding:"omitempty,min=1"`
	BarcodeID            *string        `json:"barcode_id"`
}

func (s *Server) adminCreateWasteItem(c *gin.Context) {
	var input wasteItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": "invalid_input", "details": err.Error()})
		return
	}

	cat, ok := waste.ParseCategory(string(input.Category))
	name := strings.TrimSpace(input.Name)
	if name == "" || !ok {
		c.JSON(400, gin.H{"error": "invalid_input", "details": "name and a known category are required"})
		return
	}
	item := models.WasteItem{
		Name:                 name,
		Category:             cat,
		DisposalInstructions: strings.TrimSpace(input.DisposalInstructions),
		DIYIdeas:             models.DIYIdeaList{},
		PointsAwarded:        input.PointsAwarded,
		BarcodeID:            input.BarcodeID,
	}
	for _, idea := range input.DIYIdeas {
		item.DIYIdeas = append(item.DIYIdeas, waste.DIYIdea{
			Title:           strings.TrimSpace(idea.Title),
			Description:     idea.Description,
			DifficultyLevel: idea.DifficultyLevel,
		})
	}
	item.IsDIYUsable = len(item.DIYIdeas) > 0
	if item.DisposalInstructions == "" {
		item.DisposalInstructions = s.knowledge.Lookup(cat).DisposalInstructions
	}
	if item.PointsAwarded == 0 {
		item.PointsAwarded = s.rewards.Compute(cat).Points
	}
	if item.BarcodeID != nil && strings.TrimSpace(*item.BarcodeID) == "" {
		item.BarcodeID = nil
	}

	ctx := c.Request.Context()
	if item.BarcodeID != nil {
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.WasteItem{}).Where("barcode_id = ?", *item.BarcodeID).Count(&n).Error; err != nil {
			logger.Error("barcode check failed: %v", err)
			c.JSON(500, gin.H{"error": "internal_error"})
			return
		}
		if n > 0 {
			c.JSON(409, gin.H{"error": "barcode_taken"})
			return
		}
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(409, gin.H{"error": "barcode_taken"})
			return
		}
		logger.Error("failed to create waste item: %v", err)
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(201, item)
}

func cors(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.AllowOrigins)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, PUT, DELETE, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Request(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
