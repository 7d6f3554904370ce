// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jacl-coder/BrawlLadder-Server/config"
	"github.com/jacl-coder/BrawlLadder-Server/internal/draft"
	"github.com/jacl-coder/BrawlLadder-Server/internal/gateway"
	"github.com/jacl-coder/BrawlLadder-Server/internal/leaderboard"
	"github.com/jacl-coder/BrawlLadder-Server/internal/match"
	"github.com/jacl-coder/BrawlLadder-Server/internal/metrics"
	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/jacl-coder/BrawlLadder-Server/internal/platform"
	"github.com/jacl-coder/BrawlLadder-Server/internal/rating"
	"github.com/jacl-coder/BrawlLadder-Server/internal/store"
	"github.com/jacl-coder/BrawlLadder-Server/internal/tier"
	"github.com/jacl-coder/BrawlLadder-Server/pkg/db"
	"github.com/jacl-coder/BrawlLadder-Server/pkg/logging"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// ladderStore 玩家存储与对局归档
type ladderStore interface {
	store.PlayerStore
	store.MatchArchive
}

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	storeType := flag.String("store", "postgres", "存储类型 (postgres, memory)")
	flag.Parse()

	// .env 不存在时只使用配置文件与环境变量
	_ = godotenv.Load()

	// 加载配置
	if err := config.LoadConfig(*configPath); err != nil {
		logrus.Fatalf("加载配置失败: %v", err)
	}
	cfg := config.GlobalConfig
	logging.Setup(cfg.Server.LogLevel, cfg.Server.Debug)
	log := logging.Component("server")

	// 初始化存储
	st, err := openStore(*storeType, cfg.Database)
	if err != nil {
		log.Fatalf("初始化存储失败: %v", err)
	}
	defer db.Close()

	// Redis 排行榜可选，连接失败时降级运行
	var (
		board     match.RatingBoard
		ranks     gateway.Ranks
		publisher tier.Publisher
		lb        *leaderboard.RedisLeaderboard
	)
	if err := db.InitRedis(cfg.Redis); err != nil {
		log.WithError(err).Warn("Redis不可用，排行榜功能已关闭")
	} else {
		lb = leaderboard.NewRedisLeaderboard(db.RedisClient)
		board, ranks, publisher = lb, lb, lb
		defer db.CloseRedis()
	}

	// 指标
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)

	loc := platform.NewLocalizer(cfg.Discord.Language)
	limiter := gateway.NewRateLimiter(cfg.Server.RequestsPerMinute)
	auth := gateway.NewAuthHandler(cfg.Auth)
	hub := gateway.NewHub(auth, nil, limiter, logging.Component("websocket"))

	// Discord 平台
	var (
		session  *discordgo.Session
		discord  *platform.Discord
		notifier platform.Notifier
	)
	notifier = platform.NewLogNotifier(logging.Component("notifier"))
	presences := gateway.Presences{hub}
	if cfg.Discord.Enabled {
		session, err = discordgo.New("Bot " + cfg.Discord.Token)
		if err != nil {
			log.Fatalf("创建Discord会话失败: %v", err)
		}
		discord = platform.NewDiscord(session, cfg.Discord.GuildID)
		notifier = discord
		presences = gateway.Presences{discord, hub}
	}

	// 匹配服务
	service := match.NewService(cfg.Match, match.Deps{
		Store:     st,
		Archive:   st,
		Board:     board,
		Engine:    rating.NewEngine(ratingConfig(cfg.Rating)),
		Notifier:  gateway.NewBroadcastNotifier(notifier, hub),
		Presence:  presences,
		Localizer: loc,
		ChannelID: cfg.Discord.MatchChannelID,
		Metrics:   m,
		Log:       logging.Component("match"),
	})
	service.AddObserver(hub)

	// 段位同步需要 Discord 角色
	var (
		scheduler *tier.Scheduler
		tiers     match.TierTrigger
	)
	if discord != nil {
		opts := []tier.Option{
			tier.WithMetrics(m),
			tier.WithConcurrency(cfg.Tier.Concurrency),
		}
		if publisher != nil {
			opts = append(opts, tier.WithPublisher(publisher))
		}
		syncer := tier.NewSyncer(st, discord, tierRoleIDs(cfg.Discord.TierRoles), logging.Component("tier"), opts...)
		scheduler = tier.NewScheduler(syncer, cfg.Tier.Schedule, logging.Component("tier"))
		tiers = scheduler
	}

	dispatcher := gateway.NewDispatcher(gateway.DispatcherDeps{
		Matches:   service,
		Drafts:    draft.NewManager(cfg.Draft.MetaProfile, m, logging.Component("draft")),
		Players:   st,
		Ranks:     ranks,
		Tiers:     tiers,
		Localizer: loc,
		Log:       logging.Component("dispatcher"),
	})
	hub.SetDispatcher(dispatcher)

	// HTTP 网关
	gw := gateway.NewGateway(cfg.Server, limiter, logging.Component("gateway"))
	gw.Register(match.NewHandler(service, tiers, logging.Component("match")))
	gw.Register(auth)
	if lb != nil {
		gw.Register(leaderboard.NewHandler(lb, logging.Component("leaderboard")))
	}
	gw.Handle("/ws", hub)
	gw.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	if err := service.Start(); err != nil {
		log.Fatalf("启动匹配服务失败: %v", err)
	}
	if scheduler != nil {
		if err := scheduler.Start(); err != nil {
			log.Fatalf("启动段位同步失败: %v", err)
		}
	}
	if session != nil {
		bot := gateway.NewDiscordBot(session, cfg.Discord, dispatcher, limiter, logging.Component("discord"))
		bot.Attach()
		if err := session.Open(); err != nil {
			log.Fatalf("连接Discord失败: %v", err)
		}
		log.Info("Discord机器人已上线")
	}

	if err := gw.Start(); err != nil {
		log.Fatalf("启动网关服务失败: %v", err)
	}
	log.WithField("port", cfg.Server.HTTPPort).Info("所有服务已启动")

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("接收到关闭信号，正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gw.Stop(ctx); err != nil {
		log.WithError(err).Warn("关闭网关服务时发生错误")
	}
	if session != nil {
		if err := session.Close(); err != nil {
			log.WithError(err).Warn("关闭Discord会话时发生错误")
		}
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	service.Stop()

	log.Info("服务器已安全关闭")
}

// openStore 按类型打开玩家存储，postgres 会先执行迁移
func openStore(kind string, cfg config.DatabaseConfig) (ladderStore, error) {
	switch kind {
	case "memory":
		return store.NewMemoryStore(), nil
	case "postgres":
		if err := db.InitPostgres(cfg); err != nil {
			return nil, err
		}
		if err := db.Migrate(db.DB); err != nil {
			return nil, err
		}
		return store.NewPostgresStore(db.DB), nil
	default:
		return nil, fmt.Errorf("未知的存储类型: %s", kind)
	}
}

func ratingConfig(cfg config.RatingConfig) rating.Config {
	return rating.Config{
		BaseK:           cfg.BaseK,
		StreakStep:      cfg.StreakStep,
		StreakThreshold: cfg.StreakThreshold,
		StreakCap:       cfg.StreakCap,
	}
}

// tierRoleIDs 段位到Discord角色ID的映射，忽略未配置的段位
// viper 会把键转为小写
func tierRoleIDs(roles map[string]string) map[models.Tier]string {
	ids := make(map[models.Tier]string, len(roles))
	for name, id := range roles {
		if id == "" {
			continue
		}
		ids[models.Tier(strings.ToUpper(name))] = id
	}
	return ids
}
