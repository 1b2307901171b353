package db

import (
	"fmt"

	"github.com/anayy09/Navigator-AI-Console/internal/models"
	"gorm.io/gorm"
)

// Migrate runs schema migrations for all console models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.User{},
		&models.UsageLog{},
		&models.RequestLog{},
	)
}
