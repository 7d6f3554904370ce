// Package tier 按排名百分位计算段位并同步平台角色
package tier

import "github.com/jacl-coder/BrawlLadder-Server/internal/models"

// Distribution 段位目标占比
type Distribution struct {
	Tier     models.Tier
	Ratio    float64
	MinCount int
}

// DefaultDistribution S/A/B/C/D/E 固定占比，E 取剩余
var DefaultDistribution = []Distribution{
	{Tier: models.TierS, Ratio: 0.005, MinCount: 1},
	{Tier: models.TierA, Ratio: 0.02, MinCount: 1},
	{Tier: models.TierB, Ratio: 0.04, MinCount: 1},
	{Tier: models.TierC, Ratio: 0.10, MinCount: 1},
	{Tier: models.TierD, Ratio: 0.28, MinCount: 1},
	{Tier: models.TierE, Ratio: 0.555, MinCount: 1},
}

// Boundary 段位截止排名（含）
type Boundary struct {
	Tier    models.Tier `json:"tier"`
	EndRank int         `json:"end_rank"`
}

// ComputeBoundaries 按总人数计算段位边界
func ComputeBoundaries(total int, dist []Distribution) []Boundary {
	if total <= 0 || len(dist) == 0 {
		return nil
	}

	remaining := total
	boundaries := make([]Boundary, 0, len(dist))

	for i, d := range dist {
		if remaining <= 0 {
			break
		}

		futureMin := 0
		for _, next := range dist[i+1:] {
			futureMin += next.MinCount
		}

		var count int
		if i == len(dist)-1 {
			count = remaining
		} else {
			count = int(float64(total) * d.Ratio)
			if count < d.MinCount {
				count = d.MinCount
			}
			maxAllowed := remaining - futureMin
			if maxAllowed < 0 {
				maxAllowed = 0
			}
			if count > maxAllowed {
				count = max(d.MinCount, maxAllowed)
			}
		}

		if count > remaining {
			count = remaining
		}
		if count <= 0 {
			continue
		}

		remaining -= count
		boundaries = append(boundaries, Boundary{Tier: d.Tier, EndRank: total - remaining})
	}

	return boundaries
}

// ForRank 返回排名（从1开始）对应的段位
func ForRank(rank int, boundaries []Boundary) (models.Tier, bool) {
	if rank <= 0 {
		return "", false
	}
	for _, b := range boundaries {
		if rank <= b.EndRank {
			return b.Tier, true
		}
	}
	return "", false
}
