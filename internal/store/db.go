package store

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"bluecrm/attribsync/internal/entity"
	"bluecrm/attribsync/pkg/config"
)

// Open 打开 MySQL 连接，按配置执行自动建表
func Open(cfg config.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("auto migrate failed: %w", err)
		}
	}

	return db, nil
}

// AutoMigrate 同步全部表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Order{},
		&entity.Product{},
		&entity.Customer{},
		&entity.SyncRun{},
		&entity.SyncStats{},
		&entity.StatBreakdown{},
		&entity.PlatformCredential{},
	)
}
