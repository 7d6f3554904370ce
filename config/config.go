// config.go

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 服务器配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Discord  DiscordConfig  `mapstructure:"discord"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Match    MatchConfig    `mapstructure:"match"`
	Rating   RatingConfig   `mapstructure:"rating"`
	Tier     TierConfig     `mapstructure:"tier"`
	Draft    DraftConfig    `mapstructure:"draft"`
}

// ServerConfig 服务器基本配置
type ServerConfig struct {
	HTTPPort          int    `mapstructure:"http_port"`
	Debug             bool   `mapstructure:"debug"`
	LogLevel          string `mapstructure:"log_level"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DiscordConfig Discord机器人配置
type DiscordConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	Token          string            `mapstructure:"token"`
	GuildID        string            `mapstructure:"guild_id"`
	MatchChannelID string            `mapstructure:"match_channel_id"`
	LogChannelID   string            `mapstructure:"log_channel_id"`
	Prefix         string            `mapstructure:"prefix"`
	Language       string            `mapstructure:"language"`
	ModeratorRoles []string          `mapstructure:"moderator_roles"`
	TierRoles      map[string]string `mapstructure:"tier_roles"`
}

// AuthConfig WebSocket客户端认证配置
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// MatchConfig 匹配与对局生命周期配置
type MatchConfig struct {
	Queues        []string      `mapstructure:"queues"`
	TeamSize      int           `mapstructure:"team_size"`
	MaxRatingGap  float64       `mapstructure:"max_rating_gap"`
	Balance       bool          `mapstructure:"balance"`
	ResultQuorum  int           `mapstructure:"result_quorum"`
	DodgeQuorum   int           `mapstructure:"dodge_quorum"`
	DodgePenalty  float64       `mapstructure:"dodge_penalty"`
	MatchTimeout  time.Duration `mapstructure:"match_timeout"`
	RoomTimeout   time.Duration `mapstructure:"room_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	BestOf        int           `mapstructure:"best_of"`
	MapChoices    int           `mapstructure:"map_choices"`
}

// RatingConfig 积分计算配置
type RatingConfig struct {
	BaseK           float64 `mapstructure:"base_k"`
	StreakStep      float64 `mapstructure:"streak_step"`
	StreakThreshold int     `mapstructure:"streak_threshold"`
	StreakCap       float64 `mapstructure:"streak_cap"`
}

// TierConfig 段位同步配置
type TierConfig struct {
	Schedule    string `mapstructure:"schedule"`
	Concurrency int    `mapstructure:"concurrency"`
}

// DraftConfig 选角模拟配置
type DraftConfig struct {
	MetaProfile string `mapstructure:"meta_profile"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig Config
)

// SetDefaults 注册默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.requests_per_minute", 120)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("discord.prefix", "!")
	v.SetDefault("discord.language", "fr")

	v.SetDefault("auth.issuer", "brawlladder")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("match.queues", []string{"general", "ranked"})
	v.SetDefault("match.team_size", 3)
	v.SetDefault("match.max_rating_gap", 175)
	v.SetDefault("match.balance", true)
	v.SetDefault("match.result_quorum", 4)
	v.SetDefault("match.dodge_quorum", 4)
	v.SetDefault("match.dodge_penalty", 30)
	v.SetDefault("match.match_timeout", 20*time.Minute)
	v.SetDefault("match.room_timeout", 20*time.Minute)
	v.SetDefault("match.sweep_interval", 30*time.Second)
	v.SetDefault("match.best_of", 1)
	v.SetDefault("match.map_choices", 3)

	v.SetDefault("rating.base_k", 100)
	v.SetDefault("rating.streak_step", 5)
	v.SetDefault("rating.streak_threshold", 3)
	v.SetDefault("rating.streak_cap", 20)

	v.SetDefault("tier.schedule", "@every 10m")
	v.SetDefault("tier.concurrency", 4)

	v.SetDefault("draft.meta_profile", "BUFFIES")
}

// Load 读取配置文件，configPath 为空时只使用默认值与环境变量
func Load(configPath string) (Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("无法读取配置文件: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("无法解析配置文件: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadConfig 从文件加载配置到 GlobalConfig
func LoadConfig(configPath string) error {
	cfg, err := Load(configPath)
	if err != nil {
		return err
	}
	GlobalConfig = cfg
	return nil
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	if c.Match.TeamSize <= 0 {
		return fmt.Errorf("match.team_size 必须大于0: %d", c.Match.TeamSize)
	}
	if c.Match.MaxRatingGap < 0 {
		return fmt.Errorf("match.max_rating_gap 不能为负数: %v", c.Match.MaxRatingGap)
	}
	if c.Match.ResultQuorum <= 0 || c.Match.DodgeQuorum <= 0 {
		return fmt.Errorf("投票法定人数必须大于0")
	}
	if c.Match.BestOf <= 0 || c.Match.BestOf%2 == 0 {
		return fmt.Errorf("match.best_of 必须是正奇数: %d", c.Match.BestOf)
	}
	if len(c.Match.Queues) == 0 {
		return fmt.Errorf("至少需要配置一个匹配队列")
	}
	if c.Discord.Enabled && c.Discord.Token == "" {
		return fmt.Errorf("启用Discord时必须配置 discord.token")
	}
	return nil
}

// GetDSN 获取PostgreSQL连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetRedisAddr 获取Redis连接地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
