package match

import (
	"math/rand"

	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
)

// MapMode 一个模式及其地图池
type MapMode struct {
	Mode  string
	Emoji string
	Maps  []string
}

// MapRotation 当前轮换
var MapRotation = []MapMode{
	{Mode: "Brawl Ball", Emoji: "⚽", Maps: []string{"Pinball Dreams", "Sneaky Fields", "Super Stadium"}},
	{Mode: "Gem Grab", Emoji: "💎", Maps: []string{"Crystal Arcade", "Hard Rock Mine", "Flooded Mine"}},
	{Mode: "Heist", Emoji: "🧨", Maps: []string{"Hot Potato", "Safe Zone", "Bridge Too Far"}},
	{Mode: "Hot Zone", Emoji: "🔥", Maps: []string{"Parallel Plays", "Split", "Dueling Beetles"}},
	{Mode: "Bounty", Emoji: "🎯", Maps: []string{"Shooting Star", "Canal Grande", "Dry Season"}},
	{Mode: "Knockout", Emoji: "💥", Maps: []string{"Belle's Rock", "Out in the Open", "Goldarm Gulch"}},
}

// PickMaps 从不同模式中随机选出 n 张地图
func PickMaps(n int, rng *rand.Rand) []models.MapChoice {
	if n <= 0 {
		return nil
	}
	if n > len(MapRotation) {
		n = len(MapRotation)
	}

	order := rng.Perm(len(MapRotation))
	choices := make([]models.MapChoice, 0, n)
	for _, i := range order[:n] {
		mode := MapRotation[i]
		choices = append(choices, models.MapChoice{
			Mode:  mode.Mode,
			Map:   mode.Maps[rng.Intn(len(mode.Maps))],
			Emoji: mode.Emoji,
		})
	}
	return choices
}
