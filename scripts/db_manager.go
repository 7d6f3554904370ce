// db_manager.go

package main

import (
	"flag"
	"fmt"

	"github.com/jacl-coder/BrawlLadder-Server/config"
	"github.com/jacl-coder/BrawlLadder-Server/internal/gateway"
	"github.com/jacl-coder/BrawlLadder-Server/pkg/db"
	"github.com/jacl-coder/BrawlLadder-Server/pkg/logging"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	action := flag.String("action", "help", "操作类型: up, down, status, reset, seed, setup, token, help")
	playerID := flag.String("player", "", "签发令牌的玩家ID (token)")
	playerName := flag.String("name", "", "签发令牌的显示名 (token)")
	moderator := flag.Bool("mod", false, "签发管理员令牌 (token)")
	flag.Parse()

	// 显示帮助信息
	if *action == "help" {
		showHelp()
		return
	}

	_ = godotenv.Load()

	// 加载配置
	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	logging.Setup(config.GlobalConfig.Server.LogLevel, true)

	// 令牌签发不需要数据库
	if *action == "token" {
		issueToken(config.GlobalConfig.Auth, *playerID, *playerName, *moderator)
		return
	}

	// 初始化数据库连接
	if err := db.InitPostgres(config.GlobalConfig.Database); err != nil {
		log.Fatalf("初始化PostgreSQL失败: %v", err)
	}
	defer db.Close()

	// 执行操作
	var err error
	switch *action {
	case "up":
		err = db.Migrate(db.DB)
	case "down":
		err = db.Rollback(db.DB)
	case "status":
		err = db.Status(db.DB)
	case "reset":
		log.Warn("⚠️  正在重置数据库，这将删除所有表和数据！")
		err = db.Reset(db.DB)
	case "seed":
		err = seedPlayers(db.DB)
	case "setup":
		err = setupDatabase()
	default:
		log.Fatalf("未知操作: %s", *action)
	}
	if err != nil {
		log.Fatalf("操作 %s 失败: %v", *action, err)
	}
	log.Infof("✅ 操作 %s 完成", *action)
}

// setupDatabase 重置、迁移并写入测试数据
func setupDatabase() error {
	log.Info("📋 步骤 1/3: 重置数据库...")
	if err := db.Reset(db.DB); err != nil {
		return err
	}
	log.Info("📋 步骤 2/3: 执行迁移...")
	if err := db.Migrate(db.DB); err != nil {
		return err
	}
	log.Info("📋 步骤 3/3: 写入测试玩家...")
	return seedPlayers(db.DB)
}

// issueToken 为 WebSocket 客户端签发令牌
func issueToken(cfg config.AuthConfig, id, name string, moderator bool) {
	if id == "" {
		log.Fatal("签发令牌需要 -player")
	}
	auth := gateway.NewAuthHandler(cfg)
	token, err := auth.Issue(gateway.Actor{ID: id, DisplayName: name, Moderator: moderator})
	if err != nil {
		log.Fatalf("签发令牌失败: %v", err)
	}
	log.WithField("player", id).Info("令牌已签发")
	fmt.Println(token)
}

// showHelp 显示帮助信息
func showHelp() {
	fmt.Println("BrawlLadder 数据库管理工具")
	fmt.Println("")
	fmt.Println("用法:")
	fmt.Println("  go run ./scripts -action=<操作> [-config=<配置文件>]")
	fmt.Println("")
	fmt.Println("操作:")
	fmt.Println("  up      - 执行所有未应用的迁移")
	fmt.Println("  down    - 回滚最近一次迁移")
	fmt.Println("  status  - 显示迁移状态")
	fmt.Println("  reset   - 回滚全部迁移（删除所有表和数据）")
	fmt.Println("  seed    - 写入测试玩家")
	fmt.Println("  setup   - reset + up + seed")
	fmt.Println("  token   - 签发 WebSocket 令牌 (-player, -name, -mod)")
	fmt.Println("  help    - 显示此帮助信息")
	fmt.Println("")
	fmt.Println("示例:")
	fmt.Println("  go run ./scripts -action=setup")
	fmt.Println("  go run ./scripts -action=token -player=123456789 -name=Alice")
}
