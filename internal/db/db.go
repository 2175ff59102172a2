package db

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/arcwave/nereus/internal/config"
	"github.com/arcwave/nereus/internal/logging"
	"github.com/arcwave/nereus/internal/models"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(cfg *config.Config, logger logging.Logger) error {
	// Route GORM through our structured logger so SQL logs are not plain text
	var gormLevel gormlogger.LogLevel
	switch strings.ToLower(logging.GetLevel()) {
	case "debug":
		gormLevel = gormlogger.Info // log SQL traces at debug level
	case "error", "fatal":
		gormLevel = gormlogger.Error
	default:
		gormLevel = gormlogger.Warn
	}
	gormLogger := newGormLogger(logger, gormLevel)

	var dialector gorm.Dialector
	driver := strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if driver == "postgres" || driver == "postgresql" {
		// Use PostgreSQL via DATABASE_URL / DB_DSN
		if cfg.DBDsn == "" {
			return &os.PathError{Op: "open", Path: "DATABASE_URL/DB_DSN", Err: os.ErrInvalid}
		}
		dialector = postgres.Open(cfg.DBDsn)
		logger.Info("db connect", "driver", "postgres")
	} else {
		// Default to sqlite
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return err
		}
		dialector = sqlite.Open(cfg.DBPath)
		logger.Info("db connect", "driver", "sqlite", "path", cfg.DBPath)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return err
	}
	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.BucketConfig{},
		&models.PathMetadata{},
		&models.UploadRecord{},
		&models.SiteSetting{},
	); err != nil {
		return err
	}
	DB = gdb
	// Bootstrap default admin if no users exist
	var count int64
	if err := DB.Model(&models.User{}).Count(&count).Error; err == nil && count == 0 {
		// generate temp password
		tmp := make([]byte, 12)
		if _, err := rand.Read(tmp); err == nil {
			// hex-encode to readable
			tmpPass := hex.EncodeToString(tmp)
			hash, _ := bcrypt.GenerateFromPassword([]byte(tmpPass), bcrypt.DefaultCost)
			admin := models.User{Email: "admin@local", Password: string(hash), Role: "admin", MustChangePassword: true}
			if err := DB.Create(&admin).Error; err == nil {
				logger.Info("default admin created", "email", admin.Email, "tempPassword", tmpPass)
			} else {
				logger.Error("failed to create default admin", "error", err)
			}
		}
	}
	return nil
}
