// Package rating 实现赛后积分计算，全部为纯函数
package rating

import (
	"math"

	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
)

// NeutralRating 总权重为0时队伍的中性积分
const NeutralRating = 1000.0

// 比赛结果分
const (
	ScoreWin  = 1.0
	ScoreDraw = 0.5
	ScoreLoss = 0.0
)

// Config 积分计算参数
type Config struct {
	BaseK           float64
	StreakStep      float64
	StreakThreshold int
	StreakCap       float64
	Volatility      []Bracket
}

// DefaultConfig 默认参数
func DefaultConfig() Config {
	return Config{
		BaseK:           100,
		StreakStep:      5,
		StreakThreshold: 3,
		StreakCap:       20,
		Volatility:      DefaultVolatility(),
	}
}

// Result 单个玩家的积分变化
type Result struct {
	PlayerID    string  `json:"player_id"`
	OldRating   float64 `json:"old_rating"`
	NewRating   float64 `json:"new_rating"`
	Delta       float64 `json:"delta"`
	Expected    float64 `json:"expected"`
	K           float64 `json:"k"`
	GamesPlayed int     `json:"games_played"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinStreak   int     `json:"win_streak"`
	LoseStreak  int     `json:"lose_streak"`
}

// Update 转换为玩家记录的部分更新
func (r Result) Update() models.PlayerUpdate {
	rating := r.NewRating
	games, wins, losses := r.GamesPlayed, r.Wins, r.Losses
	ws, ls := r.WinStreak, r.LoseStreak
	return models.PlayerUpdate{
		Rating:      &rating,
		GamesPlayed: &games,
		Wins:        &wins,
		Losses:      &losses,
		WinStreak:   &ws,
		LoseStreak:  &ls,
	}
}

// Engine 积分计算器
type Engine struct {
	cfg Config
}

// NewEngine 创建积分计算器
func NewEngine(cfg Config) *Engine {
	if len(cfg.Volatility) == 0 {
		cfg.Volatility = DefaultVolatility()
	}
	return &Engine{cfg: cfg}
}

// TeamRating 按权重加权的队伍积分
func TeamRating(team []models.Player) float64 {
	var sum, weights float64
	for _, p := range team {
		sum += p.Rating * p.Weight
		weights += p.Weight
	}
	if weights <= 0 {
		return NeutralRating
	}
	return sum / weights
}

// ExpectedScore 逻辑斯蒂期望得分
func ExpectedScore(own, opponent float64) float64 {
	return 1 / (1 + math.Pow(10, (opponent-own)/400))
}

// StreakBonus 连胜或连败带来的K值加成
func (e *Engine) StreakBonus(p models.Player) float64 {
	streak := p.WinStreak
	if p.LoseStreak > streak {
		streak = p.LoseStreak
	}
	if e.cfg.StreakThreshold <= 0 || streak < e.cfg.StreakThreshold {
		return 0
	}
	bonus := e.cfg.StreakStep * float64(streak-e.cfg.StreakThreshold+1)
	return math.Min(bonus, e.cfg.StreakCap)
}

// KFactor 玩家当前的K值
func (e *Engine) KFactor(p models.Player) float64 {
	return e.cfg.BaseK*Multiplier(e.cfg.Volatility, p.Rating) + e.StreakBonus(p)
}

// PlayerResult 单个玩家对阵对手队伍积分的结算
func (e *Engine) PlayerResult(p models.Player, opponentRating, score float64) Result {
	expected := ExpectedScore(p.Rating, opponentRating)
	k := e.KFactor(p)
	delta := k * p.Weight * (score - expected)

	newRating := math.Max(0, math.Round(p.Rating+delta))

	res := Result{
		PlayerID:   p.ID,
		OldRating:  p.Rating,
		NewRating:  newRating,
		Delta:      newRating - p.Rating,
		Expected:   expected,
		K:          k,
		Wins:       p.Wins,
		Losses:     p.Losses,
		WinStreak:  p.WinStreak,
		LoseStreak: p.LoseStreak,
	}

	switch score {
	case ScoreWin:
		res.Wins++
		res.WinStreak++
		res.LoseStreak = 0
	case ScoreLoss:
		res.Losses++
		res.LoseStreak++
		res.WinStreak = 0
	default:
		res.WinStreak = 0
		res.LoseStreak = 0
	}
	res.GamesPlayed = res.Wins + res.Losses

	return res
}

// Match 结算整场对局，winnerScore 为胜方得分（平局传 ScoreDraw）
func (e *Engine) Match(winners, losers []models.Player, winnerScore float64) []Result {
	winnerRating := TeamRating(winners)
	loserRating := TeamRating(losers)
	loserScore := 1 - winnerScore

	results := make([]Result, 0, len(winners)+len(losers))
	for _, p := range winners {
		results = append(results, e.PlayerResult(p, loserRating, winnerScore))
	}
	for _, p := range losers {
		results = append(results, e.PlayerResult(p, winnerRating, loserScore))
	}
	return results
}
