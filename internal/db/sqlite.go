// Package db persists the request log in SQLite. Recording is best-effort:
// a logging failure never fails the request that triggered it.
package db

import (
	"log"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/pysugar/cli-llm-proxy/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the SQLite database at dbPath and runs migrations.
func InitDB(dbPath string) (*gorm.DB, error) {
	database, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(&models.RequestLog{}); err != nil {
		return nil, err
	}
	return database, nil
}

// Record describes one completed request.
type Record struct {
	Method   string
	Host     string
	Path     string
	Provider string
	Mode     string
	Model    string
	Status   int
	Duration time.Duration
	Err      string
}

// RecordRequest writes one log row. database may be nil (logging disabled).
func RecordRequest(database *gorm.DB, rec Record) {
	if database == nil {
		return
	}
	row := models.RequestLog{
		ID:        uuid.New().String(),
		Timestamp: time.Now().Unix(),
		Method:    rec.Method,
		Host:      rec.Host,
		Path:      rec.Path,
		Provider:  rec.Provider,
		Mode:      rec.Mode,
		Model:     rec.Model,
		Status:    rec.Status,
		Duration:  rec.Duration.Milliseconds(),
		Error:     rec.Err,
	}
	if err := database.Create(&row).Error; err != nil {
		log.Printf("⚠️ Failed to record request log: %v", err)
	}
}

// RecentRequests returns the newest limit rows.
func RecentRequests(database *gorm.DB, limit int) ([]models.RequestLog, error) {
	var rows []models.RequestLog
	err := database.Order("timestamp desc").Limit(limit).Find(&rows).Error
	return rows, err
}
