package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"riy-server/internal/ai"
	"riy-server/internal/auth"
	"riy-server/internal/config"
	"riy-server/internal/database"
	httpserver "riy-server/internal/http"
	"riy-server/internal/logger"
	"riy-server/internal/recycling"
	"riy-server/internal/storage"
	"riy-server/internal/waste"
)

func fatal(format string, args ...interface{}) {
	logger.Error(format, args...)
	os.Exit(1)
}

func main() {
	_ = godotenv.Load(".env")
	ctx := context.Background()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fatal("%v", err)
	}
	gin.SetMode(cfg.GinMode)
	logger.SetDebug(cfg.GinMode == gin.DebugMode)

	db, err := database.Connect(cfg)
	if err != nil {
		fatal("%v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		fatal("%v", err)
	}

	rdb, err := database.NewRedis(ctx, cfg)
	if err != nil {
		logger.Warning("%v; continuing without redis", err)
	}

	enforcer, err := auth.NewEnforcer(db)
	if err != nil {
		fatal("failed to set up authorization: %v", err)
	}
	if cfg.AdminEmail != "" {
		ok, err := auth.NewUsers(db).PromoteAdmin(ctx, cfg.AdminEmail)
		switch {
		case err != nil:
			logger.Warning("failed to promote %s to admin: %v", cfg.AdminEmail, err)
		case ok:
			logger.Info("%s has the admin role", cfg.AdminEmail)
		default:
			logger.Warning("ADMIN_EMAIL %s is not registered yet", cfg.AdminEmail)
		}
	}

	kb, rewards, err := waste.Load(cfg.KnowledgeFile)
	if err != nil {
		fatal("failed to load knowledge base: %v", err)
	}
	classifier, err := ai.New(cfg, kb)
	if err != nil {
		fatal("failed to set up classifier: %v", err)
	}
	logger.Info("Using %s classifier", cfg.Classifier)

	if err := recycling.NewService(db, rdb).Reindex(ctx); err != nil {
		logger.Warning("%v", err)
	}

	images, err := storage.New(cfg)
	if err != nil {
		fatal("failed to set up image store: %v", err)
	}

	r := httpserver.NewServer(httpserver.Deps{
		Config:     cfg,
		DB:         db,
		Redis:      rdb,
		Classifier: classifier,
		Knowledge:  kb,
		Rewards:    rewards,
		Enforcer:   enforcer,
		Images:     images,
	})
	logger.Success("Listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		fatal("%v", err)
	}
}
