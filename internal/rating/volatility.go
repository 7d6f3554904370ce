package rating

import "sort"

// Bracket 积分段与对应的波动系数
type Bracket struct {
	MinRating  float64
	Multiplier float64
}

// DefaultVolatility 高分段波动更大
func DefaultVolatility() []Bracket {
	return []Bracket{
		{MinRating: 1525, Multiplier: 1.25},
		{MinRating: 1750, Multiplier: 1.5},
		{MinRating: 2000, Multiplier: 1.75},
		{MinRating: 2250, Multiplier: 2.0},
		{MinRating: 2500, Multiplier: 2.25},
		{MinRating: 2700, Multiplier: 2.5},
	}
}

// Multiplier 查表获得积分对应的系数，低于最低分段时为 1.0
func Multiplier(table []Bracket, rating float64) float64 {
	// 表按 MinRating 升序
	i := sort.Search(len(table), func(i int) bool { return table[i].MinRating > rating })
	if i == 0 {
		return 1.0
	}
	return table[i-1].Multiplier
}
