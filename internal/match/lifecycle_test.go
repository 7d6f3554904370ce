package match

import (
	"testing"
	"time"

	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0        = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	testRules = Rules{
		ResultQuorum: 4,
		DodgeQuorum:  4,
		DodgePenalty: 30,
		MatchTimeout: 20 * time.Minute,
		RoomTimeout:  20 * time.Minute,
	}
)

func pendingMatch() models.Match {
	return models.Match{
		ID:        "m1",
		QueueID:   "general",
		Blue:      []string{"b1", "b2", "b3"},
		Red:       []string{"r1", "r2", "r3"},
		State:     models.StateRoomPending,
		CreatedAt: t0,
		Deadline:  t0.Add(testRules.RoomTimeout),
		Votes:     map[string]models.Vote{},
		BestOf:    1,
	}
}

func inProgress(t *testing.T) models.Match {
	t.Helper()
	m, _, err := Transition(pendingMatch(), RoomCodeSubmitted{PlayerID: "b1", Code: "abc"}, t0, testRules)
	require.NoError(t, err)
	return m
}

func vote(id string, kind models.VoteKind, side models.Side) VoteCast {
	return VoteCast{PlayerID: id, Kind: kind, Side: side}
}

// castAll 依次投票，返回最后一次转换的结果
func castAll(t *testing.T, m models.Match, now time.Time, votes ...VoteCast) (models.Match, []Effect) {
	t.Helper()
	var effects []Effect
	var err error
	for _, v := range votes {
		m, effects, err = Transition(m, v, now, testRules)
		require.NoError(t, err)
	}
	return m, effects
}

func TestRoomCode(t *testing.T) {
	tests := []struct {
		name    string
		match   func(t *testing.T) models.Match
		event   RoomCodeSubmitted
		wantErr error
	}{
		{"non participant", func(*testing.T) models.Match { return pendingMatch() }, RoomCodeSubmitted{PlayerID: "x", Code: "ABC"}, ErrNotParticipant},
		{"empty code", func(*testing.T) models.Match { return pendingMatch() }, RoomCodeSubmitted{PlayerID: "b1", Code: "   "}, ErrInvalidRoomCode},
		{"second code", inProgress, RoomCodeSubmitted{PlayerID: "r1", Code: "XYZ"}, ErrRoomAlreadySet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.match(t)
			after, effects, err := Transition(before, tt.event, t0, testRules)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, effects)
			assert.Equal(t, before.State, after.State)
			assert.Equal(t, before.RoomCode, after.RoomCode)
		})
	}

	t.Run("accepted", func(t *testing.T) {
		now := t0.Add(time.Minute)
		m, effects, err := Transition(pendingMatch(), RoomCodeSubmitted{PlayerID: "r2", Code: "  x7kq9  "}, now, testRules)
		require.NoError(t, err)
		assert.Equal(t, models.StateInProgress, m.State)
		assert.Equal(t, "X7KQ9", m.RoomCode)
		assert.Equal(t, now.Add(20*time.Minute), m.Deadline)
		assert.Equal(t, []Effect{Announce{Notice: NoticeRoomReady}, EditAnnouncement{}}, effects)
	})
}

func TestVoteValidation(t *testing.T) {
	_, _, err := Transition(pendingMatch(), vote("b1", models.VoteResult, models.SideBlue), t0, testRules)
	assert.ErrorIs(t, err, ErrRoomNotReady)

	m := inProgress(t)
	_, _, err = Transition(m, vote("x", models.VoteResult, models.SideBlue), t0, testRules)
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, _, err = Transition(m, vote("b1", "forfeit", models.SideBlue), t0, testRules)
	assert.ErrorIs(t, err, ErrInvalidVote)

	_, _, err = Transition(m, vote("b1", models.VoteResult, "green"), t0, testRules)
	assert.ErrorIs(t, err, ErrInvalidVote)
}

func TestResultQuorum(t *testing.T) {
	m := inProgress(t)

	m, effects := castAll(t, m, t0,
		vote("b1", models.VoteResult, models.SideBlue),
		vote("b2", models.VoteResult, models.SideBlue),
		vote("r1", models.VoteResult, models.SideBlue),
	)
	assert.Equal(t, models.StateAwaitingResult, m.State)
	assert.Equal(t, []Effect{EditAnnouncement{}}, effects)

	now := t0.Add(5 * time.Minute)
	m, effects, err := Transition(m, vote("r2", models.VoteResult, models.SideBlue), now, testRules)
	require.NoError(t, err)
	assert.Equal(t, models.StateResolved, m.State)
	assert.Equal(t, models.SideBlue, m.Winner)
	assert.Equal(t, 1, m.BlueWins)
	assert.Equal(t, now, m.ClosedAt)
	assert.Equal(t, []Effect{
		ApplyResult{Winner: models.SideBlue},
		Announce{Notice: NoticeResolved},
		EditAnnouncement{},
		Release{},
		Archive{},
	}, effects)
}

func TestConflictingVotesWait(t *testing.T) {
	m, _ := castAll(t, inProgress(t), t0,
		vote("b1", models.VoteResult, models.SideBlue),
		vote("b2", models.VoteResult, models.SideBlue),
		vote("b3", models.VoteResult, models.SideBlue),
		vote("r1", models.VoteResult, models.SideRed),
		vote("r2", models.VoteResult, models.SideRed),
		vote("r3", models.VoteResult, models.SideRed),
	)
	assert.Equal(t, models.StateAwaitingResult, m.State)
	assert.Equal(t, map[models.Side]int{models.SideBlue: 3, models.SideRed: 3}, m.Tally(models.VoteResult))
}

func TestVoteChangeReplacesPrevious(t *testing.T) {
	m, _ := castAll(t, inProgress(t), t0,
		vote("b1", models.VoteResult, models.SideRed),
		vote("b1", models.VoteResult, models.SideBlue),
		vote("b2", models.VoteDodge, models.SideRed),
		vote("b2", models.VoteResult, models.SideBlue),
	)
	assert.Len(t, m.Votes, 2)
	assert.Equal(t, map[models.Side]int{models.SideBlue: 2, models.SideRed: 0}, m.Tally(models.VoteResult))
	assert.Equal(t, map[models.Side]int{models.SideBlue: 0, models.SideRed: 0}, m.Tally(models.VoteDodge))
}

func TestDodgeQuorum(t *testing.T) {
	m, effects := castAll(t, inProgress(t), t0,
		vote("b1", models.VoteDodge, models.SideRed),
		vote("b2", models.VoteDodge, models.SideRed),
		vote("b3", models.VoteDodge, models.SideRed),
		vote("r1", models.VoteDodge, models.SideRed),
	)
	assert.Equal(t, models.StateDodged, m.State)
	assert.Equal(t, models.SideRed, m.DodgedBy)
	assert.Contains(t, effects, ApplyDodgePenalty{Side: models.SideRed, Penalty: 30})
	assert.NotContains(t, effects, ApplyResult{Winner: models.SideBlue})
}

func TestPartialDodgeThenTimeout(t *testing.T) {
	m, _ := castAll(t, inProgress(t), t0,
		vote("b1", models.VoteDodge, models.SideRed),
		vote("b2", models.VoteDodge, models.SideRed),
		vote("b3", models.VoteDodge, models.SideRed),
	)
	require.Equal(t, models.StateAwaitingResult, m.State)

	// 截止前的检查不改变状态
	same, effects, err := Transition(m, Tick{}, t0.Add(19*time.Minute), testRules)
	require.NoError(t, err)
	assert.Empty(t, effects)
	assert.Equal(t, models.StateAwaitingResult, same.State)

	done, effects, err := Transition(m, Tick{}, t0.Add(20*time.Minute), testRules)
	require.NoError(t, err)
	assert.Equal(t, models.StateTimedOut, done.State)
	assert.Equal(t, []Effect{Announce{Notice: NoticeTimedOut}, EditAnnouncement{}, Release{}, Archive{}}, effects)
}

func TestRoomPendingTimeout(t *testing.T) {
	m, effects, err := Transition(pendingMatch(), Tick{}, t0.Add(testRules.RoomTimeout), testRules)
	require.NoError(t, err)
	assert.Equal(t, models.StateTimedOut, m.State)
	assert.Contains(t, effects, Release{})
}

func TestTerminalRejectsEverything(t *testing.T) {
	m, _ := castAll(t, inProgress(t), t0,
		vote("b1", models.VoteResult, models.SideRed),
		vote("b2", models.VoteResult, models.SideRed),
		vote("r1", models.VoteResult, models.SideRed),
		vote("r2", models.VoteResult, models.SideRed),
	)
	require.Equal(t, models.StateResolved, m.State)

	events := []Event{
		vote("r3", models.VoteResult, models.SideBlue),
		VoteCast{PlayerID: "mod", Kind: models.VoteDodge, Side: models.SideRed, Moderator: true},
		RoomCodeSubmitted{PlayerID: "b1", Code: "NEW"},
		Tick{},
	}
	for _, ev := range events {
		after, effects, err := Transition(m, ev, t0.Add(time.Hour), testRules)
		assert.ErrorIs(t, err, ErrMatchClosed)
		assert.Empty(t, effects)
		assert.Equal(t, m, after)
	}
}

func TestModeratorOverride(t *testing.T) {
	m, effects, err := Transition(pendingMatch(), VoteCast{PlayerID: "mod", Kind: models.VoteResult, Side: models.SideRed, Moderator: true}, t0, testRules)
	require.NoError(t, err)
	assert.Equal(t, models.StateResolved, m.State)
	assert.Equal(t, models.SideRed, m.Winner)
	assert.Contains(t, effects, ApplyResult{Winner: models.SideRed})

	m, _, err = Transition(inProgress(t), VoteCast{PlayerID: "mod", Kind: models.VoteDodge, Side: models.SideBlue, Moderator: true}, t0, testRules)
	require.NoError(t, err)
	assert.Equal(t, models.StateDodged, m.State)
	assert.Equal(t, models.SideBlue, m.DodgedBy)
}

func TestBestOfSeries(t *testing.T) {
	m := pendingMatch()
	m.BestOf = 3
	m, _, err := Transition(m, RoomCodeSubmitted{PlayerID: "b1", Code: "abc"}, t0, testRules)
	require.NoError(t, err)

	later := t0.Add(10 * time.Minute)
	m, effects := castAll(t, m, later,
		vote("b1", models.VoteResult, models.SideBlue),
		vote("b2", models.VoteResult, models.SideBlue),
		vote("r1", models.VoteResult, models.SideBlue),
		vote("r2", models.VoteResult, models.SideBlue),
	)
	assert.Equal(t, models.StateInProgress, m.State)
	assert.Equal(t, 1, m.BlueWins)
	assert.Empty(t, m.Votes)
	assert.Equal(t, later.Add(20*time.Minute), m.Deadline)
	assert.Equal(t, []Effect{Announce{Notice: NoticeGameWon, Side: models.SideBlue}, EditAnnouncement{}}, effects)

	m, _ = castAll(t, m, later,
		vote("b1", models.VoteResult, models.SideRed),
		vote("b2", models.VoteResult, models.SideRed),
		vote("r1", models.VoteResult, models.SideRed),
		vote("r2", models.VoteResult, models.SideRed),
	)
	assert.Equal(t, models.StateInProgress, m.State)
	assert.Equal(t, 1, m.RedWins)

	m, effects = castAll(t, m, later,
		vote("b1", models.VoteResult, models.SideBlue),
		vote("b2", models.VoteResult, models.SideBlue),
		vote("b3", models.VoteResult, models.SideBlue),
		vote("r3", models.VoteResult, models.SideBlue),
	)
	assert.Equal(t, models.StateResolved, m.State)
	assert.Equal(t, 2, m.BlueWins)
	assert.Equal(t, models.SideBlue, m.Winner)
	assert.Contains(t, effects, ApplyResult{Winner: models.SideBlue})
}

func TestQuorumClampedToParticipants(t *testing.T) {
	m := models.Match{
		ID:     "duel",
		Blue:   []string{"a"},
		Red:    []string{"b"},
		State:  models.StateInProgress,
		BestOf: 1,
	}
	m, _, err := Transition(m, vote("a", models.VoteResult, models.SideRed), t0, testRules)
	require.NoError(t, err)
	assert.Equal(t, models.StateAwaitingResult, m.State)

	m, _, err = Transition(m, vote("b", models.VoteResult, models.SideRed), t0, testRules)
	require.NoError(t, err)
	assert.Equal(t, models.StateResolved, m.State)
}

func TestTransitionDoesNotMutateInput(t *testing.T) {
	m := inProgress(t)
	_, _, err := Transition(m, vote("b1", models.VoteResult, models.SideBlue), t0, testRules)
	require.NoError(t, err)
	assert.Empty(t, m.Votes)
	assert.Equal(t, models.StateInProgress, m.State)
}

func TestWinsNeeded(t *testing.T) {
	assert.Equal(t, 1, WinsNeeded(0))
	assert.Equal(t, 1, WinsNeeded(1))
	assert.Equal(t, 2, WinsNeeded(3))
	assert.Equal(t, 3, WinsNeeded(5))
}
