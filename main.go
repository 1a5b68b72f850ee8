package main

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plumeblog/plume/config"
	"github.com/plumeblog/plume/models"
	"github.com/plumeblog/plume/routes"
	"github.com/plumeblog/plume/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	db := config.InitDatabase(
		&models.User{},
		&models.Category{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
	)

	if err := seedAdmin(db, cfg); err != nil {
		zap.L().Warn("admin seed failed", zap.Error(err))
	}

	r := routes.SetupRouter(db)

	addr := ":" + cfg.AppPort
	zap.L().Info("server starting", zap.String("addr", addr))
	if err := utils.GraceServer(addr, r, func() {
		if err := config.CloseDatabase(db); err != nil {
			zap.L().Warn("database close failed", zap.Error(err))
		}
	}); err != nil {
		zap.L().Fatal("server stopped", zap.Error(err))
	}
}

// seedAdmin creates the initial admin account when none exists and
// credentials are configured.
func seedAdmin(db *gorm.DB, cfg config.AppConfig) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := models.User{
		FirstName:    "Admin",
		LastName:     "User",
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	zap.L().Info("admin account created", zap.String("email", cfg.AdminEmail))
	return nil
}
