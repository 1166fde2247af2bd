package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Config Postgres 连接配置
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // 默认 disable

	MaxIdleConns    int           // 默认 10
	MaxOpenConns    int           // 默认 100
	ConnMaxLifetime time.Duration // 默认 1 小时
}

// DSN 构建连接串。消息位置和摘要窗口按时间排序依赖一致时区，
// 连接固定 UTC。
func (c *Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode,
	)
}

// NewDB 建立 Postgres 连接，配置连接池并做一次启动连通性检查。
func NewDB(c *Config, logger log.Logger) (*gorm.DB, error) {
	helper := log.NewHelper(logger)

	// 日志不带密码
	helper.Infof("connecting to database: host=%s:%d database=%s user=%s",
		c.Host, c.Port, c.Database, c.User)

	db, err := gorm.Open(postgres.Open(c.DSN()), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	maxIdle := c.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 10
	}
	maxOpen := c.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 100
	}
	maxLifetime := c.ConnMaxLifetime
	if maxLifetime == 0 {
		maxLifetime = time.Hour
	}
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(maxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping: %w", err)
	}

	helper.Info("database connected")
	return db, nil
}
