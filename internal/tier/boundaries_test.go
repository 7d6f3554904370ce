package tier

import (
	"testing"

	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestComputeBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		total int
		want  []Boundary
	}{
		{name: "empty", total: 0, want: nil},
		{
			name:  "single player",
			total: 1,
			want:  []Boundary{{Tier: models.TierS, EndRank: 1}},
		},
		{
			name:  "three players",
			total: 3,
			want: []Boundary{
				{Tier: models.TierS, EndRank: 1},
				{Tier: models.TierA, EndRank: 2},
				{Tier: models.TierB, EndRank: 3},
			},
		},
		{
			name:  "six players",
			total: 6,
			want: []Boundary{
				{Tier: models.TierS, EndRank: 1},
				{Tier: models.TierA, EndRank: 2},
				{Tier: models.TierB, EndRank: 3},
				{Tier: models.TierC, EndRank: 4},
				{Tier: models.TierD, EndRank: 5},
				{Tier: models.TierE, EndRank: 6},
			},
		},
		{
			name:  "ten players",
			total: 10,
			want: []Boundary{
				{Tier: models.TierS, EndRank: 1},
				{Tier: models.TierA, EndRank: 2},
				{Tier: models.TierB, EndRank: 3},
				{Tier: models.TierC, EndRank: 4},
				{Tier: models.TierD, EndRank: 6},
				{Tier: models.TierE, EndRank: 10},
			},
		},
		{
			name:  "thousand players",
			total: 1000,
			want: []Boundary{
				{Tier: models.TierS, EndRank: 5},
				{Tier: models.TierA, EndRank: 25},
				{Tier: models.TierB, EndRank: 65},
				{Tier: models.TierC, EndRank: 165},
				{Tier: models.TierD, EndRank: 445},
				{Tier: models.TierE, EndRank: 1000},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeBoundaries(tt.total, DefaultDistribution))
		})
	}
}

func TestBoundariesCoverEveryRank(t *testing.T) {
	for total := 1; total <= 500; total++ {
		b := ComputeBoundaries(total, DefaultDistribution)
		if assert.NotEmpty(t, b) {
			assert.Equal(t, total, b[len(b)-1].EndRank, "total %d", total)
		}
		for i := 1; i < len(b); i++ {
			assert.Greater(t, b[i].EndRank, b[i-1].EndRank)
		}
	}
}

func TestForRank(t *testing.T) {
	b := ComputeBoundaries(10, DefaultDistribution)

	tests := []struct {
		rank int
		want models.Tier
		ok   bool
	}{
		{rank: 0, ok: false},
		{rank: 1, want: models.TierS, ok: true},
		{rank: 5, want: models.TierD, ok: true},
		{rank: 6, want: models.TierD, ok: true},
		{rank: 7, want: models.TierE, ok: true},
		{rank: 10, want: models.TierE, ok: true},
		{rank: 11, ok: false},
	}
	for _, tt := range tests {
		got, ok := ForRank(tt.rank, b)
		assert.Equal(t, tt.ok, ok, "rank %d", tt.rank)
		assert.Equal(t, tt.want, got, "rank %d", tt.rank)
	}
}
