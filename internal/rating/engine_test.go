package rating

import (
	"testing"

	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func player(id string, rating float64) models.Player {
	return models.Player{ID: id, Rating: rating, Weight: 1}
}

func TestExpectedScore(t *testing.T) {
	tests := []struct {
		name     string
		own, opp float64
		want     float64
	}{
		{name: "equal ratings", own: 1000, opp: 1000, want: 0.5},
		{name: "400 above", own: 1400, opp: 1000, want: 10.0 / 11.0},
		{name: "400 below", own: 1000, opp: 1400, want: 1.0 / 11.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ExpectedScore(tt.own, tt.opp), 1e-9)
		})
	}
}

func TestTeamRating(t *testing.T) {
	team := []models.Player{
		{Rating: 1200, Weight: 1},
		{Rating: 1000, Weight: 3},
	}
	assert.InDelta(t, 1050, TeamRating(team), 1e-9)

	zero := []models.Player{{Rating: 1800, Weight: 0}, {Rating: 1600, Weight: 0}}
	assert.Equal(t, NeutralRating, TeamRating(zero))
	assert.Equal(t, NeutralRating, TeamRating(nil))
}

func TestMultiplier(t *testing.T) {
	table := DefaultVolatility()
	tests := []struct {
		rating float64
		want   float64
	}{
		{rating: 0, want: 1.0},
		{rating: 1524, want: 1.0},
		{rating: 1525, want: 1.25},
		{rating: 1900, want: 1.5},
		{rating: 2000, want: 1.75},
		{rating: 2699, want: 2.25},
		{rating: 2700, want: 2.5},
		{rating: 4000, want: 2.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Multiplier(table, tt.rating), "rating %v", tt.rating)
	}
}

func TestEvenOneVersusOne(t *testing.T) {
	e := NewEngine(DefaultConfig())

	results := e.Match([]models.Player{player("w", 1000)}, []models.Player{player("l", 1000)}, ScoreWin)
	require.Len(t, results, 2)

	assert.Equal(t, 1050.0, results[0].NewRating)
	assert.Equal(t, 50.0, results[0].Delta)
	assert.Equal(t, 950.0, results[1].NewRating)
	assert.Equal(t, -50.0, results[1].Delta)
}

func TestCountersAndStreaks(t *testing.T) {
	e := NewEngine(DefaultConfig())

	winner := models.Player{ID: "w", Rating: 1000, Weight: 1, Wins: 2, Losses: 3, GamesPlayed: 5, LoseStreak: 2}
	loser := models.Player{ID: "l", Rating: 1000, Weight: 1, Wins: 4, Losses: 1, GamesPlayed: 5, WinStreak: 1}

	results := e.Match([]models.Player{winner}, []models.Player{loser}, ScoreWin)

	w, l := results[0], results[1]
	assert.Equal(t, 3, w.Wins)
	assert.Equal(t, 3, w.Losses)
	assert.Equal(t, 6, w.GamesPlayed)
	assert.Equal(t, 1, w.WinStreak)
	assert.Equal(t, 0, w.LoseStreak)

	assert.Equal(t, 4, l.Wins)
	assert.Equal(t, 2, l.Losses)
	assert.Equal(t, 6, l.GamesPlayed)
	assert.Equal(t, 0, l.WinStreak)
	assert.Equal(t, 1, l.LoseStreak)
}

func TestStreakBonus(t *testing.T) {
	e := NewEngine(DefaultConfig())
	tests := []struct {
		name   string
		player models.Player
		want   float64
	}{
		{name: "no streak", player: models.Player{}, want: 0},
		{name: "below threshold", player: models.Player{WinStreak: 2}, want: 0},
		{name: "at threshold", player: models.Player{WinStreak: 3}, want: 5},
		{name: "lose streak", player: models.Player{LoseStreak: 5}, want: 15},
		{name: "capped", player: models.Player{WinStreak: 12}, want: 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.StreakBonus(tt.player))
		})
	}
}

func TestVolatilityScalesDelta(t *testing.T) {
	e := NewEngine(DefaultConfig())

	high := player("h", 2000)
	res := e.PlayerResult(high, 2000, ScoreWin)
	// K = 100 * 1.75
	assert.Equal(t, 175.0, res.K)
	assert.Equal(t, 2088.0, res.NewRating)
}

func TestPersonalizedExpectation(t *testing.T) {
	e := NewEngine(DefaultConfig())

	blue := []models.Player{player("b1", 1300), player("b2", 900)}
	red := []models.Player{player("r1", 1100), player("r2", 1100)}

	results := e.Match(blue, red, ScoreWin)
	require.Len(t, results, 4)

	// 同队玩家因自身积分不同而期望不同
	assert.Greater(t, results[0].Expected, results[1].Expected)
	assert.Less(t, results[0].Delta, results[1].Delta)
}

func TestWeight(t *testing.T) {
	e := NewEngine(DefaultConfig())

	heavy := models.Player{ID: "h", Rating: 1000, Weight: 2}
	idle := models.Player{ID: "i", Rating: 1000, Weight: 0}

	assert.Equal(t, 1100.0, e.PlayerResult(heavy, 1000, ScoreWin).NewRating)
	assert.Equal(t, 1000.0, e.PlayerResult(idle, 1000, ScoreWin).NewRating)
}

func TestFloorAtZero(t *testing.T) {
	e := NewEngine(DefaultConfig())

	res := e.PlayerResult(player("p", 20), 20, ScoreLoss)
	assert.Equal(t, 0.0, res.NewRating)
	assert.Equal(t, -20.0, res.Delta)
}

func TestDraw(t *testing.T) {
	e := NewEngine(DefaultConfig())

	p := models.Player{ID: "p", Rating: 1000, Weight: 1, Wins: 1, WinStreak: 1}
	res := e.PlayerResult(p, 1000, ScoreDraw)

	assert.Equal(t, 1000.0, res.NewRating)
	assert.Equal(t, 1, res.Wins)
	assert.Equal(t, 0, res.Losses)
	assert.Equal(t, 0, res.WinStreak)
}

func TestDeterministic(t *testing.T) {
	e := NewEngine(DefaultConfig())
	blue := []models.Player{player("a", 1210), player("b", 1333), {ID: "c", Rating: 987, Weight: 0.5}}
	red := []models.Player{player("d", 1101), player("e", 1290), player("f", 1050)}

	first := e.Match(blue, red, ScoreWin)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Match(blue, red, ScoreWin))
	}
}

func TestResultUpdate(t *testing.T) {
	res := Result{NewRating: 1042, GamesPlayed: 7, Wins: 4, Losses: 3, WinStreak: 2}
	upd := res.Update()

	applied := upd.Apply(models.Player{ID: "x", Rating: 1000})
	assert.Equal(t, 1042.0, applied.Rating)
	assert.Equal(t, 7, applied.GamesPlayed)
	assert.Equal(t, 2, applied.WinStreak)
	assert.Equal(t, "x", applied.ID)
}
