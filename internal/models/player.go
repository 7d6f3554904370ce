// player.go

package models

import (
	"time"
)

// DefaultRating 新玩家初始积分
const DefaultRating = 1000.0

// DefaultWeight 新玩家默认积分权重
const DefaultWeight = 1.0

// Player 玩家记录
type Player struct {
	ID          string    `json:"id"` // 平台用户ID
	DisplayName string    `json:"display_name"`
	Rating      float64   `json:"rating"`
	Weight      float64   `json:"weight"`
	GamesPlayed int       `json:"games_played"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	WinStreak   int       `json:"win_streak"`
	LoseStreak  int       `json:"lose_streak"`
	Tier        Tier      `json:"tier,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewPlayer 以默认值创建玩家
func NewPlayer(id, displayName string) Player {
	now := time.Now()
	return Player{
		ID:          id,
		DisplayName: displayName,
		Rating:      DefaultRating,
		Weight:      DefaultWeight,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// WinRate 胜率（百分比）
func (p Player) WinRate() float64 {
	total := p.Wins + p.Losses
	if total <= 0 {
		return 0
	}
	return float64(p.Wins) * 100 / float64(total)
}

// PlayerUpdate 玩家记录的部分更新，nil 字段保持不变
type PlayerUpdate struct {
	DisplayName *string
	Rating      *float64
	GamesPlayed *int
	Wins        *int
	Losses      *int
	WinStreak   *int
	LoseStreak  *int
	Tier        *Tier
}

// IsEmpty 是否没有任何字段需要更新
func (u PlayerUpdate) IsEmpty() bool {
	return u.DisplayName == nil && u.Rating == nil && u.GamesPlayed == nil &&
		u.Wins == nil && u.Losses == nil && u.WinStreak == nil &&
		u.LoseStreak == nil && u.Tier == nil
}

// Apply 把更新应用到玩家记录副本上
func (u PlayerUpdate) Apply(p Player) Player {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.Rating != nil {
		p.Rating = *u.Rating
	}
	if u.GamesPlayed != nil {
		p.GamesPlayed = *u.GamesPlayed
	}
	if u.Wins != nil {
		p.Wins = *u.Wins
	}
	if u.Losses != nil {
		p.Losses = *u.Losses
	}
	if u.WinStreak != nil {
		p.WinStreak = *u.WinStreak
	}
	if u.LoseStreak != nil {
		p.LoseStreak = *u.LoseStreak
	}
	if u.Tier != nil {
		p.Tier = *u.Tier
	}
	return p
}
