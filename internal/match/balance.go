package match

import (
	"math"
	"math/rand"

	"github.com/elliotchance/pie/v2"
	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"gonum.org/v1/gonum/stat/combin"
)

// averageRating 平均积分
func averageRating(entries []models.QueueEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range entries {
		sum += e.Rating
	}
	return sum / float64(len(entries))
}

// SplitBalanced 枚举所有 C(n, n/2) 种分法，取两队平均积分差最小的一种，同差取先出现者
func SplitBalanced(entries []models.QueueEntry) (blue, red []models.QueueEntry) {
	n := len(entries)
	half := n / 2

	bestDiff := math.Inf(1)
	var best []int
	for _, indexes := range combin.Combinations(n, half) {
		a, b := partition(entries, indexes)
		diff := math.Abs(averageRating(a) - averageRating(b))
		if diff < bestDiff {
			bestDiff = diff
			best = indexes
		}
	}

	blue, red = partition(entries, best)
	return sortTeam(blue), sortTeam(red)
}

// ShuffleSplit 打乱后对半分
func ShuffleSplit(entries []models.QueueEntry, rng *rand.Rand) (blue, red []models.QueueEntry) {
	shuffled := append([]models.QueueEntry(nil), entries...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	half := len(shuffled) / 2
	return sortTeam(shuffled[:half]), sortTeam(shuffled[half:])
}

func partition(entries []models.QueueEntry, indexes []int) (in, out []models.QueueEntry) {
	chosen := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		chosen[i] = true
	}
	for i, e := range entries {
		if chosen[i] {
			in = append(in, e)
		} else {
			out = append(out, e)
		}
	}
	return in, out
}

// sortTeam 队内按积分降序
func sortTeam(team []models.QueueEntry) []models.QueueEntry {
	return pie.SortStableUsing(team, func(a, b models.QueueEntry) bool {
		return a.Rating > b.Rating
	})
}

// playerIDs 提取玩家ID
func playerIDs(entries []models.QueueEntry) []string {
	return pie.Map(entries, func(e models.QueueEntry) string { return e.PlayerID })
}
