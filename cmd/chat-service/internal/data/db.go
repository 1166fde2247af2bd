package data

import (
	"fmt"

	"studyassistant/pkg/database"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// DBConfig 数据库配置
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// NewDB 创建数据库连接并迁移表结构
func NewDB(config *DBConfig, logger log.Logger) (*gorm.DB, error) {
	db, err := database.NewDB(&database.Config{
		Host:     config.Host,
		Port:     config.Port,
		User:     config.User,
		Password: config.Password,
		Database: config.Database,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// autoMigrate 自动迁移数据库表
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ConversationDO{},
		&MessageDO{},
		&SummaryDO{},
	)
}
