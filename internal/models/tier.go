package models

import "strings"

// Tier 段位标签，按排名百分位计算
type Tier string

const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
	TierE Tier = "E"
)

// AllTiers 从高到低的段位
var AllTiers = []Tier{TierS, TierA, TierB, TierC, TierD, TierE}

// ParseTier 解析段位标签，大小写不敏感
func ParseTier(s string) (Tier, bool) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllTiers {
		if t == known {
			return t, true
		}
	}
	return "", false
}
