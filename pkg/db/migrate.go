// migrate.go

package db

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

func setupGoose() error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("设置迁移方言失败: %w", err)
	}
	return nil
}

// Migrate 执行所有未应用的迁移
func Migrate(db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("执行数据库迁移失败: %w", err)
	}
	return nil
}

// Rollback 回滚最近一次迁移
func Rollback(db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	if err := goose.Down(db, migrationsDir); err != nil {
		return fmt.Errorf("回滚数据库迁移失败: %w", err)
	}
	return nil
}

// Reset 回滚全部迁移
func Reset(db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	if err := goose.Reset(db, migrationsDir); err != nil {
		return fmt.Errorf("重置数据库失败: %w", err)
	}
	return nil
}

// Status 打印迁移状态
func Status(db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	return goose.Status(db, migrationsDir)
}
