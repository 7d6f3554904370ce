// Package leaderboard 积分排行榜与段位缓存（Redis）
package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
)

// 排行榜Redis键名
const (
	RatingKey = "leaderboard:rating"
	TiersKey  = "leaderboard:tiers"

	// 玩家详细信息键前缀
	PlayerInfoPrefix = "player:info:"

	// 玩家信息缓存时间
	PlayerInfoTTL = 30 * time.Minute
)

// Entry 排行榜条目
type Entry struct {
	PlayerID    string      `json:"player_id"`
	DisplayName string      `json:"display_name"`
	Rating      float64     `json:"rating"`
	Wins        int         `json:"wins"`
	Losses      int         `json:"losses"`
	Tier        models.Tier `json:"tier,omitempty"`
	Rank        int         `json:"rank"`
}

// RedisLeaderboard Redis排行榜管理器
type RedisLeaderboard struct {
	client *redis.Client
}

// NewRedisLeaderboard 创建Redis排行榜管理器
func NewRedisLeaderboard(client *redis.Client) *RedisLeaderboard {
	return &RedisLeaderboard{client: client}
}

// UpdateRatings 写入积分并缓存玩家信息
func (rl *RedisLeaderboard) UpdateRatings(ctx context.Context, players []models.Player) error {
	if len(players) == 0 {
		return nil
	}

	_, err := rl.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, p := range players {
			pipe.ZAdd(ctx, RatingKey, &redis.Z{Score: p.Rating, Member: p.ID})

			data, err := json.Marshal(entryFromPlayer(p))
			if err != nil {
				return err
			}
			pipe.Set(ctx, PlayerInfoPrefix+p.ID, data, PlayerInfoTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("更新排行榜失败: %w", err)
	}
	return nil
}

// ReplaceRatings 用完整快照重建积分榜
func (rl *RedisLeaderboard) ReplaceRatings(ctx context.Context, players []models.Player) error {
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, RatingKey)
		for _, p := range players {
			pipe.ZAdd(ctx, RatingKey, &redis.Z{Score: p.Rating, Member: p.ID})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("重建排行榜失败: %w", err)
	}
	return nil
}

// PublishTiers 发布本轮同步计算出的段位
func (rl *RedisLeaderboard) PublishTiers(ctx context.Context, tiers map[string]models.Tier) error {
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, TiersKey)
		if len(tiers) == 0 {
			return nil
		}
		values := make([]interface{}, 0, len(tiers)*2)
		for id, tier := range tiers {
			values = append(values, id, string(tier))
		}
		pipe.HSet(ctx, TiersKey, values...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("发布段位失败: %w", err)
	}
	return nil
}

// Rank 玩家排名（从1开始），不在榜上时返回 0
func (rl *RedisLeaderboard) Rank(ctx context.Context, playerID string) (int, error) {
	rank, err := rl.client.ZRevRank(ctx, RatingKey, playerID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("查询排名失败: %w", err)
	}
	return int(rank) + 1, nil
}

// Tier 最近一次同步的段位
func (rl *RedisLeaderboard) Tier(ctx context.Context, playerID string) (models.Tier, error) {
	tier, err := rl.client.HGet(ctx, TiersKey, playerID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("查询段位失败: %w", err)
	}
	return models.Tier(tier), nil
}

// Top 获取排行榜前 limit 名
func (rl *RedisLeaderboard) Top(ctx context.Context, limit int) ([]Entry, error) {
	members, err := rl.client.ZRevRangeWithScores(ctx, RatingKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(members))
	for i, member := range members {
		id, ok := member.Member.(string)
		if !ok {
			continue
		}

		entry, err := rl.playerInfo(ctx, id)
		if err != nil {
			// 缓存过期时只保留积分
			entry = Entry{PlayerID: id}
		}
		entry.Rating = member.Score
		entry.Rank = i + 1
		entries = append(entries, entry)
	}
	return entries, nil
}

func (rl *RedisLeaderboard) playerInfo(ctx context.Context, playerID string) (Entry, error) {
	data, err := rl.client.Get(ctx, PlayerInfoPrefix+playerID).Result()
	if err != nil {
		return Entry{}, err
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func entryFromPlayer(p models.Player) Entry {
	return Entry{
		PlayerID:    p.ID,
		DisplayName: p.DisplayName,
		Rating:      p.Rating,
		Wins:        p.Wins,
		Losses:      p.Losses,
		Tier:        p.Tier,
	}
}
