package store

import (
	"context"
	"testing"

	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlayerUpdate(t *testing.T) {
	rating := 1042.0
	wins := 3
	tier := models.TierA

	set, args := buildPlayerUpdate(models.PlayerUpdate{Rating: &rating, Wins: &wins, Tier: &tier})

	assert.Equal(t, "rating = $1, wins = $2, tier = $3", set)
	assert.Equal(t, []any{1042.0, 3, "A"}, args)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(
		models.Player{ID: "a", Rating: 1200, Active: true},
		models.Player{ID: "b", Rating: 1500, Active: true},
		models.Player{ID: "c", Rating: 1300, Active: false},
		models.Player{ID: "d", Rating: 1200, Active: true},
	)

	_, err := s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.ListActiveOrderedByRatingDesc(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"b", "a", "d"}, ids)

	many, err := s.GetManyByID(ctx, []string{"a", "zz", "c"})
	require.NoError(t, err)
	assert.Len(t, many, 2)

	rating := 1600.0
	p, err := s.UpdateByID(ctx, "a", models.PlayerUpdate{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 1600.0, p.Rating)

	_, err = s.UpdateByID(ctx, "zz", models.PlayerUpdate{Rating: &rating})
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := s.GetOrCreate(ctx, "new", "Newbie")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRating, created.Rating)
	assert.Equal(t, models.DefaultWeight, created.Weight)
	assert.True(t, created.Active)

	again, err := s.GetOrCreate(ctx, "new", "Other")
	require.NoError(t, err)
	assert.Equal(t, "Other", again.DisplayName)
	assert.Equal(t, created.CreatedAt, again.CreatedAt)
}
