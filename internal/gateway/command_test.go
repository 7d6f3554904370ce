package gateway

import (
	"testing"

	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseText(t *testing.T) {
	tests := []struct {
		input string
		want  Command
		err   error
	}{
		{"!join", EnqueueCmd{}, nil},
		{"!join Ranked", EnqueueCmd{Queue: "ranked"}, nil},
		{"!leave", DequeueCmd{}, nil},
		{"!queue general", QueueStatusCmd{Queue: "general"}, nil},
		{"!code #ABC123", SubmitRoomCodeCmd{Code: "#ABC123"}, nil},
		{"!code", nil, ErrMissingArgument},
		{"!win blue", VoteCmd{Kind: models.VoteResult, Side: models.SideBlue}, nil},
		{"!win rouge m-42", VoteCmd{Kind: models.VoteResult, Side: models.SideRed, MatchID: "m-42"}, nil},
		{"!dodge bleu", VoteCmd{Kind: models.VoteDodge, Side: models.SideBlue}, nil},
		{"!win purple", nil, ErrInvalidSide},
		{"!win", nil, ErrMissingArgument},
		{"!draft", DraftStartCmd{}, nil},
		{"!ban el primo", DraftBanCmd{Brawler: "el primo"}, nil},
		{"!pick Mr. P", DraftPickCmd{Brawler: "Mr. P"}, nil},
		{"!pick", nil, ErrMissingArgument},
		{"!draftcancel", DraftCancelCmd{}, nil},
		{"!elo", RatingQueryCmd{}, nil},
		{"!elo <@!1234>", RatingQueryCmd{PlayerID: "1234"}, nil},
		{"!elo <@99>", RatingQueryCmd{PlayerID: "99"}, nil},
		{"!TIERSYNC", TierSyncCmd{}, nil},
		{"  !join  ", EnqueueCmd{}, nil},
		{"!dance", nil, ErrUnknownCommand},
		{"hello !join", nil, ErrNotCommand},
		{"!", nil, ErrNotCommand},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd, err := ParseText("!", tt.input)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestParseTextCustomPrefix(t *testing.T) {
	cmd, err := ParseText("$", "$join")
	require.NoError(t, err)
	assert.Equal(t, EnqueueCmd{}, cmd)

	_, err = ParseText("$", "!join")
	assert.ErrorIs(t, err, ErrNotCommand)
}

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  Command
		err   error
	}{
		{"enqueue", `{"type":"enqueue","payload":{"queue":"ranked"}}`, EnqueueCmd{Queue: "ranked"}, nil},
		{"enqueue without payload", `{"type":"enqueue"}`, EnqueueCmd{}, nil},
		{"dequeue", `{"type":"dequeue","payload":{}}`, DequeueCmd{}, nil},
		{"room code", `{"type":"room_code","payload":{"code":"xyz"}}`, SubmitRoomCodeCmd{Code: "xyz"}, nil},
		{"vote", `{"type":"vote","payload":{"match_id":"m1","kind":"dodge","side":"red"}}`, VoteCmd{MatchID: "m1", Kind: models.VoteDodge, Side: models.SideRed}, nil},
		{"draft start", `{"type":"draft_start"}`, DraftStartCmd{}, nil},
		{"draft ban", `{"type":"draft_ban","payload":{"brawler":"Spike"}}`, DraftBanCmd{Brawler: "Spike"}, nil},
		{"draft pick", `{"type":"draft_pick","payload":{"brawler":"Crow"}}`, DraftPickCmd{Brawler: "Crow"}, nil},
		{"draft cancel", `{"type":"draft_cancel"}`, DraftCancelCmd{}, nil},
		{"rating", `{"type":"rating","payload":{"player_id":"42"}}`, RatingQueryCmd{PlayerID: "42"}, nil},
		{"tier sync", `{"type":"tier_sync"}`, TierSyncCmd{}, nil},
		{"queue status", `{"type":"queue_status","payload":{"queue":"general"}}`, QueueStatusCmd{Queue: "general"}, nil},
		{"unknown", `{"type":"teleport"}`, nil, ErrUnknownCommand},
		{"not json", `join`, nil, ErrMalformedFrame},
		{"bad payload", `{"type":"vote","payload":"blue"}`, nil, ErrMalformedFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := DecodeFrame([]byte(tt.frame))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}
