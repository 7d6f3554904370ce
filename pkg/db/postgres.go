package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jacl-coder/BrawlLadder-Server/config"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

var (
	// DB 全局数据库连接实例
	DB *sql.DB
)

// InitPostgres 初始化PostgreSQL连接
func InitPostgres(cfg config.DatabaseConfig) error {
	var err error

	DB, err = sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	DB.SetMaxOpenConns(20)
	DB.SetMaxIdleConns(5)
	DB.SetConnMaxLifetime(30 * time.Minute)

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = DB.PingContext(ctx); err != nil {
		return fmt.Errorf("数据库Ping失败: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host":   cfg.Host,
		"dbname": cfg.DBName,
	}).Info("成功连接到PostgreSQL数据库")
	return nil
}

// Close 关闭数据库连接
func Close() {
	if DB != nil {
		DB.Close()
		logrus.Info("数据库连接已关闭")
	}
}
