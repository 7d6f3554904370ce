package draft

import (
	"math"
	"sort"
	"strings"

	"github.com/elliotchance/pie/v2"
)

func metaPowerOf(brawler, profile string) float64 {
	return metaPower[profile][brawler]
}

// archetypeBonus 按原型给出的血量加成
func archetypeBonus(brawler string) float64 {
	switch {
	case brawler == "Mina":
		return 0
	case melees[brawler]:
		return 0.6
	case supports[brawler]:
		return 0.4
	case snipersPoke[brawler]:
		return 0.2
	default:
		return 0.3
	}
}

// baseScore 单个英雄的静态分
func baseScore(brawler, profile string) float64 {
	return mapPriority[brawler] + metaPowerOf(brawler, profile) + archetypeBonus(brawler)
}

// EvaluateDraft 计算一套阵容的评分
func EvaluateDraft(picks []string, profile string) float64 {
	cfg := DefaultTuning

	score := 0.0
	for _, b := range picks {
		score += baseScore(b, profile)
	}

	has := func(b string) bool { return pie.Contains(picks, b) }
	hasAny := func(list []string) bool {
		for _, b := range list {
			if has(b) {
				return true
			}
		}
		return false
	}
	count := func(list []string) int {
		return len(pie.Filter(list, has))
	}

	if hasAny(controlPicks) {
		score += 1
	}
	if hasAny(damagePicks) {
		score += 1
	}

	for _, c := range combos {
		if pie.All(c.members, has) {
			score += c.score
		}
	}

	if hasAny(bruiserPicks) {
		score += 1
	}

	dives := count(diveUnits)
	hasDive := dives > 0
	if hasDive {
		score += 1
	}
	if dives >= 2 && !hasAny(hardStops) {
		score -= cfg.DoubleDiveNoStopPenalty
	}

	if hasAny(supportUnits) {
		score += 0.5
	}

	hasDisable := hasAny(disablePicks)
	if hasDisable {
		score += 1
	}
	if hasDive && hasDisable {
		score += cfg.ComebackBonus
	}
	if hasAny(zonePicks) && hasDive {
		score += 1
	}

	if has("Bull") {
		score -= 1.5
	}
	if has("Hank") {
		score -= cfg.HankPenalty
	}
	if has("Frank") {
		score -= cfg.FrankPenalty
	}
	if has("Ash") {
		score -= 0.5
	}
	if has("Kenji") {
		score -= cfg.KenjiPenalty
	}

	if count(supportUnits) >= 2 {
		score -= cfg.SupportPressurePenalty
	}
	if count(countedMelees) >= 2 {
		score -= 1.5
	}

	return score
}

// FirstPickScore 空阵容下单个英雄的总分
func FirstPickScore(brawler, profile string) float64 {
	return baseScore(brawler, profile) + EvaluateDraft([]string{brawler}, profile)
}

// ComputeAIBans 取首选分最高的三个英雄作为 AI 禁用，同分保持列表顺序
func ComputeAIBans(profile string) []string {
	type ranked struct {
		name  string
		score float64
	}
	list := make([]ranked, 0, len(Brawlers))
	for _, b := range Brawlers {
		list = append(list, ranked{name: b, score: FirstPickScore(b, profile)})
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].score > list[j].score
	})

	bans := make([]string, 0, BanCount)
	for _, r := range list[:BanCount] {
		bans = append(bans, r.name)
	}
	return bans
}

// PickAI 在可选英雄中选出评分最高者，同分取先出现的
func PickAI(available []string, lastUserPick string, aiPicks []string, profile string) string {
	if len(available) == 0 {
		return ""
	}

	best := available[0]
	bestScore := math.Inf(-1)
	counters := countersByUserPick[lastUserPick]

	for _, candidate := range available {
		score := baseScore(candidate, profile)
		if lastUserPick != "" && pie.Contains(counters, candidate) {
			score += 2
		}

		hypothetical := append(append([]string{}, aiPicks...), candidate)
		score += EvaluateDraft(hypothetical, profile)

		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	return best
}

// WinChance 用户胜率百分比估计
func WinChance(userScore, aiScore float64) int {
	diff := userScore - aiScore
	p := 1 / (1 + math.Exp(-diff))
	return int(math.Floor(p*100 + 0.5))
}

var nameLookup = map[string]string{}

// byLongest 按规范化长度降序
var byLongest []normalizedName

type normalizedName struct {
	name       string
	normalized string
}

func init() {
	for _, b := range Brawlers {
		n := normalizeName(b)
		nameLookup[n] = b
		byLongest = append(byLongest, normalizedName{name: b, normalized: n})
	}
	sort.SliceStable(byLongest, func(i, j int) bool {
		return len(byLongest[i].normalized) > len(byLongest[j].normalized)
	})
}

// normalizeName 小写并只保留字母数字
func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResolveBrawler 把用户输入解析为英雄名
func ResolveBrawler(input string) (string, bool) {
	name, ok := nameLookup[normalizeName(input)]
	return name, ok
}

// FindBrawlerInText 在自由文本中查找英雄名，优先匹配更长的名字
func FindBrawlerInText(text string) (string, bool) {
	n := normalizeName(text)
	if n == "" {
		return "", false
	}
	for _, e := range byLongest {
		if strings.Contains(n, e.normalized) {
			return e.name, true
		}
	}
	return "", false
}
