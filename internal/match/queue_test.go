package match

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/jacl-coder/BrawlLadder-Server/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func entry(id string, rating float64, joined time.Duration) models.QueueEntry {
	return models.QueueEntry{PlayerID: id, Rating: rating, JoinedAt: t0.Add(joined)}
}

func TestSelectWindow(t *testing.T) {
	tests := []struct {
		name    string
		entries []models.QueueEntry
		want    []string
		ok      bool
	}{
		{
			name: "not enough players",
			entries: []models.QueueEntry{
				entry("a", 1000, 0), entry("b", 1000, 1),
			},
			ok: false,
		},
		{
			name: "spread too wide",
			entries: []models.QueueEntry{
				entry("a", 1000, 0), entry("b", 1100, 1), entry("c", 1176, 2), entry("d", 900, 3),
			},
			ok: false,
		},
		{
			name: "exact gap is allowed",
			entries: []models.QueueEntry{
				entry("a", 1000, 0), entry("b", 1175, 1), entry("c", 1100, 2), entry("d", 1050, 3),
			},
			want: []string{"a", "d", "c", "b"},
			ok:   true,
		},
		{
			name: "window holding the oldest entry wins",
			entries: []models.QueueEntry{
				entry("new1", 1000, 10), entry("new2", 1010, 11), entry("new3", 1020, 12), entry("new4", 1030, 13),
				entry("old", 1500, 0), entry("x1", 1510, 14), entry("x2", 1600, 15), entry("x3", 1650, 16),
			},
			want: []string{"old", "x1", "x2", "x3"},
			ok:   true,
		},
		{
			name: "tie on oldest prefers smaller spread",
			entries: []models.QueueEntry{
				entry("a", 1000, 5), entry("b", 1100, 5), entry("old", 1150, 0), entry("c", 1160, 5), entry("d", 1170, 5),
			},
			want: []string{"b", "old", "c", "d"},
			ok:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, ok := SelectWindow(tt.entries, 4, 175)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.want, playerIDs(window))
		})
	}
}

func TestSelectWindowSpreadInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		var entries []models.QueueEntry
		n := 6 + rng.Intn(10)
		for i := 0; i < n; i++ {
			entries = append(entries, entry(fmt.Sprintf("p%d", i), float64(800+rng.Intn(800)), time.Duration(rng.Intn(100))*time.Second))
		}

		window, ok := SelectWindow(entries, 6, 175)
		if !ok {
			continue
		}
		require.Len(t, window, 6)

		lo, hi := math.Inf(1), math.Inf(-1)
		for _, e := range window {
			lo = math.Min(lo, e.Rating)
			hi = math.Max(hi, e.Rating)
		}
		assert.LessOrEqual(t, hi-lo, 175.0)
	}
}

func TestSplitBalanced(t *testing.T) {
	entries := []models.QueueEntry{
		entry("a", 1200, 0), entry("b", 1100, 0), entry("c", 1000, 0),
		entry("d", 900, 0), entry("e", 800, 0), entry("f", 700, 0),
	}

	blue, red := SplitBalanced(entries)
	require.Len(t, blue, 3)
	require.Len(t, red, 3)
	assert.InDelta(t, 100.0/3, math.Abs(averageRating(blue)-averageRating(red)), 1e-9)

	for _, team := range [][]models.QueueEntry{blue, red} {
		for i := 1; i < len(team); i++ {
			assert.GreaterOrEqual(t, team[i-1].Rating, team[i].Rating)
		}
	}

	seen := map[string]bool{}
	for _, e := range append(blue, red...) {
		seen[e.PlayerID] = true
	}
	assert.Len(t, seen, 6)
}

func TestShuffleSplit(t *testing.T) {
	entries := []models.QueueEntry{
		entry("a", 1200, 0), entry("b", 1100, 0), entry("c", 1000, 0), entry("d", 900, 0),
	}
	blue, red := ShuffleSplit(entries, rand.New(rand.NewSource(1)))
	assert.Len(t, blue, 2)
	assert.Len(t, red, 2)
	assert.GreaterOrEqual(t, blue[0].Rating, blue[1].Rating)
	assert.GreaterOrEqual(t, red[0].Rating, red[1].Rating)
	assert.Equal(t, "a", entries[0].PlayerID)
}

func TestPickMaps(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	maps := PickMaps(3, rng)
	require.Len(t, maps, 3)

	modes := map[string]bool{}
	for _, m := range maps {
		modes[m.Mode] = true
		assert.NotEmpty(t, m.Map)
		assert.NotEmpty(t, m.Emoji)
	}
	assert.Len(t, modes, 3)

	assert.Len(t, PickMaps(10, rng), len(MapRotation))
	assert.Nil(t, PickMaps(0, rng))
}

type fakePresence struct {
	offline map[string]bool
}

func (f fakePresence) IsOffline(id string) (bool, bool) {
	off, known := f.offline[id]
	return off, known
}

func newTestQueues(t *testing.T, st store.PlayerStore, presence Presence) (*QueueManager, *Registry) {
	t.Helper()
	reg := NewRegistry()
	settings := QueueSettings{
		TeamSize:     3,
		MaxRatingGap: 175,
		Balance:      true,
		BestOf:       1,
		MapChoices:   3,
		RoomTimeout:  20 * time.Minute,
	}
	return NewQueueManager([]string{"general", "ranked"}, settings, reg, st, presence, nil, quietLog()), reg
}

func TestEnqueueFormsMatch(t *testing.T) {
	ctx := context.Background()
	qm, reg := newTestQueues(t, store.NewMemoryStore(), nil)

	for i := 1; i <= 5; i++ {
		m, err := qm.Enqueue(ctx, fmt.Sprintf("p%d", i), fmt.Sprintf("P%d", i), "general")
		require.NoError(t, err)
		assert.Nil(t, m)
	}

	m, err := qm.Enqueue(ctx, "p6", "P6", "general")
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, models.StateRoomPending, m.State)
	assert.Len(t, m.Blue, 3)
	assert.Len(t, m.Red, 3)
	assert.Len(t, m.Maps, 3)
	assert.Equal(t, models.QueueID("general"), m.QueueID)
	assert.Equal(t, 0, qm.Sizes()["general"])

	id, ok := reg.ActiveMatchOf("p3")
	assert.True(t, ok)
	assert.Equal(t, m.ID, id)
}

func TestEnqueueRejections(t *testing.T) {
	ctx := context.Background()
	qm, reg := newTestQueues(t, store.NewMemoryStore(), nil)

	_, err := qm.Enqueue(ctx, "p1", "P1", "casual")
	assert.ErrorIs(t, err, ErrUnknownQueue)

	_, err = qm.Enqueue(ctx, "p1", "P1", "general")
	require.NoError(t, err)
	_, err = qm.Enqueue(ctx, "p1", "P1", "general")
	assert.ErrorIs(t, err, ErrAlreadyQueued)

	// 同一玩家可以同时在另一个队列
	_, err = qm.Enqueue(ctx, "p1", "P1", "ranked")
	assert.NoError(t, err)

	reg.Claim(models.Match{ID: "busy", Blue: []string{"p9"}, Red: []string{"p10"}})
	_, err = qm.Enqueue(ctx, "p9", "P9", "general")
	assert.ErrorIs(t, err, ErrInActiveMatch)
}

func TestDequeue(t *testing.T) {
	ctx := context.Background()
	qm, _ := newTestQueues(t, store.NewMemoryStore(), nil)

	assert.ErrorIs(t, qm.Dequeue("p1", ""), ErrNotQueued)

	_, err := qm.Enqueue(ctx, "p1", "P1", "general")
	require.NoError(t, err)
	_, err = qm.Enqueue(ctx, "p1", "P1", "ranked")
	require.NoError(t, err)

	require.NoError(t, qm.Dequeue("p1", "ranked"))
	assert.Equal(t, 1, qm.Sizes()["general"])
	assert.Equal(t, 0, qm.Sizes()["ranked"])

	require.NoError(t, qm.Dequeue("p1", ""))
	assert.Equal(t, 0, qm.Sizes()["general"])
	assert.ErrorIs(t, qm.Dequeue("p1", "general"), ErrNotQueued)
	assert.ErrorIs(t, qm.Dequeue("p1", "casual"), ErrUnknownQueue)
}

func TestQueuesNeverCrossMatch(t *testing.T) {
	ctx := context.Background()
	qm, _ := newTestQueues(t, store.NewMemoryStore(), nil)

	for i := 1; i <= 3; i++ {
		_, err := qm.Enqueue(ctx, fmt.Sprintf("g%d", i), "", "general")
		require.NoError(t, err)
		_, err = qm.Enqueue(ctx, fmt.Sprintf("r%d", i), "", "ranked")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, qm.Sizes()["general"])
	assert.Equal(t, 3, qm.Sizes()["ranked"])
}

func TestFormationRemovesPlayersFromOtherQueues(t *testing.T) {
	ctx := context.Background()
	qm, _ := newTestQueues(t, store.NewMemoryStore(), nil)

	_, err := qm.Enqueue(ctx, "p1", "P1", "ranked")
	require.NoError(t, err)
	for i := 1; i <= 6; i++ {
		_, err := qm.Enqueue(ctx, fmt.Sprintf("p%d", i), "", "general")
		require.NoError(t, err)
	}
	assert.Equal(t, 0, qm.Sizes()["ranked"])
}

func TestRatingGapKeepsPlayersWaiting(t *testing.T) {
	ctx := context.Background()
	var players []models.Player
	for i := 1; i <= 6; i++ {
		p := models.NewPlayer(fmt.Sprintf("p%d", i), "")
		p.Rating = float64(1000 + i*50)
		players = append(players, p)
	}
	qm, _ := newTestQueues(t, store.NewMemoryStore(players...), nil)

	for _, p := range players {
		m, err := qm.Enqueue(ctx, p.ID, "", "general")
		require.NoError(t, err)
		assert.Nil(t, m)
	}
	assert.Equal(t, 6, qm.Sizes()["general"])
}

func TestOfflinePlayersAreDropped(t *testing.T) {
	ctx := context.Background()
	presence := fakePresence{offline: map[string]bool{"p2": true, "p3": false}}
	qm, _ := newTestQueues(t, store.NewMemoryStore(), presence)

	for i := 1; i <= 6; i++ {
		m, err := qm.Enqueue(ctx, fmt.Sprintf("p%d", i), "", "general")
		require.NoError(t, err)
		assert.Nil(t, m)
	}

	entries, err := qm.Entries("general")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3", "p4", "p5", "p6"}, playerIDs(entries))
}

func TestConcurrentEnqueueClaimsOnce(t *testing.T) {
	ctx := context.Background()
	qm, reg := newTestQueues(t, store.NewMemoryStore(), nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var formed []*models.Match
	for i := 0; i < 24; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			queue := models.QueueID("general")
			if i%2 == 1 {
				queue = "ranked"
			}
			m, err := qm.Enqueue(ctx, fmt.Sprintf("p%d", i%12), "", queue)
			if err == nil && m != nil {
				mu.Lock()
				formed = append(formed, m)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]string{}
	for _, m := range formed {
		for _, id := range m.Participants() {
			prev, dup := seen[id]
			assert.False(t, dup, "player %s in %s and %s", id, prev, m.ID)
			seen[id] = m.ID
		}
	}
	assert.Equal(t, len(formed), reg.Count())
}
