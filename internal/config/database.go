package config

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/playersden/gamehub/internal/models"
	"github.com/playersden/gamehub/pkg/db"
)

func InitDB(ctx context.Context, cfg *Config) (*gorm.DB, error) {
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Game{},
		&models.Comment{},
		&models.Reply{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return gdb, nil
}
