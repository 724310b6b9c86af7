package database

import (
	"context"
	"fmt"
	"time"

	"schooladmin/config"
	"schooladmin/models"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB
var RedisClient *redis.Client

// Connect opens the database (retrying transient failures), migrates the
// schema unless disabled, and attaches Redis when reachable.
func Connect(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := connectDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	DB = db

	if !cfg.SkipMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, nil, err
		}
	}

	RedisClient = connectRedis(cfg)
	return DB, RedisClient, nil
}

// GormConfig is shared by the production and test dialectors.
func GormConfig(development bool) *gorm.Config {
	// Configure GORM logger based on environment
	var gormLogger logger.Interface
	if development {
		gormLogger = logger.Default.LogMode(logger.Info)
	} else {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}
	return &gorm.Config{
		Logger:                                   gormLogger,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: false,
	}
}

func connectDatabase(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	// Retry logic for transient network issues
	var db *gorm.DB
	var lastErr error
	for attempt := 1; attempt <= 8; attempt++ {
		var err error
		db, err = gorm.Open(mysql.Open(dsn), GormConfig(cfg.IsDevelopment()))
		if err == nil {
			lastErr = nil
			break
		}
		lastErr = err
		logrus.WithError(err).WithField("attempt", attempt).Warn("Database connect attempt failed")
		time.Sleep(time.Duration(attempt*attempt) * 300 * time.Millisecond)
	}
	if lastErr != nil {
		return nil, fmt.Errorf("connect database after retries: %w", lastErr)
	}

	logrus.Info("Database connected successfully")

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(55 * time.Minute)

	return db, nil
}

// AutoMigrate performs automatic database migration
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	logrus.Info("Database migration completed successfully")
	return nil
}

// connectRedis returns nil when Redis is unreachable; callers fall back to the database.
func connectRedis(cfg *config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.WithError(err).Warn("Redis connection failed, continuing without Redis - logs will be saved directly to database")
		_ = client.Close()
		return nil
	}

	logrus.Info("Redis connected successfully")
	return client
}

// Close closes the database and Redis connections
func Close() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing Redis connection")
		}
	}
	if DB == nil {
		return
	}
	sqlDB, err := DB.DB()
	if err != nil {
		logrus.WithError(err).Warn("Error getting database instance")
		return
	}
	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Warn("Error closing database connection")
		return
	}
	logrus.Info("Database connection closed")
}
