// seed.go

package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/jacl-coder/BrawlLadder-Server/internal/store"
	log "github.com/sirupsen/logrus"
)

// seedPlayer 测试玩家
type seedPlayer struct {
	id     string
	name   string
	rating float64
	wins   int
	losses int
}

var testPlayers = []seedPlayer{
	{id: "100000000000000001", name: "Spike", rating: 1320, wins: 24, losses: 9},
	{id: "100000000000000002", name: "Leon", rating: 1210, wins: 18, losses: 11},
	{id: "100000000000000003", name: "Crow", rating: 1150, wins: 15, losses: 12},
	{id: "100000000000000004", name: "Shelly", rating: 1080, wins: 12, losses: 10},
	{id: "100000000000000005", name: "Colt", rating: 1020, wins: 9, losses: 9},
	{id: "100000000000000006", name: "Bull", rating: 990, wins: 8, losses: 10},
	{id: "100000000000000007", name: "Nita", rating: 940, wins: 6, losses: 11},
	{id: "100000000000000008", name: "Poco", rating: 880, wins: 4, losses: 13},
}

// seedPlayers 写入测试玩家，已存在的玩家只更新积分与战绩
func seedPlayers(sqlDB *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st := store.NewPostgresStore(sqlDB)
	for _, sp := range testPlayers {
		if _, err := st.GetOrCreate(ctx, sp.id, sp.name); err != nil {
			return fmt.Errorf("创建玩家 %s 失败: %w", sp.name, err)
		}

		rating, wins, losses := sp.rating, sp.wins, sp.losses
		games := wins + losses
		if _, err := st.UpdateByID(ctx, sp.id, models.PlayerUpdate{
			Rating:      &rating,
			GamesPlayed: &games,
			Wins:        &wins,
			Losses:      &losses,
		}); err != nil {
			return fmt.Errorf("更新玩家 %s 失败: %w", sp.name, err)
		}
		log.WithFields(log.Fields{"player": sp.name, "rating": sp.rating}).Info("✓ 测试玩家")
	}

	log.Infof("🎉 已写入 %d 个测试玩家", len(testPlayers))
	return nil
}
