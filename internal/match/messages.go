package match

import (
	"fmt"
	"strings"

	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/jacl-coder/BrawlLadder-Server/internal/platform"
	"github.com/jacl-coder/BrawlLadder-Server/internal/rating"
)

var (
	textFormed = platform.Text{
		FR: "🎮 **Match {id}** ({queue}) • BO{bestof}\n🔵 Équipe bleue : {blue}\n🔴 Équipe rouge : {red}\n🗺️ Maps : {maps}\nUn joueur crée la room puis envoie `!code <CODE>`.",
		EN: "🎮 **Match {id}** ({queue}) • BO{bestof}\n🔵 Blue team: {blue}\n🔴 Red team: {red}\n🗺️ Maps: {maps}\nOne player creates the room then sends `!code <CODE>`.",
	}
	textRoomReady = platform.Text{
		FR: "🔑 Match {id} : code de la room **{code}**. Votez le résultat avec `!win blue|red` ou `!dodge blue|red`.",
		EN: "🔑 Match {id}: room code **{code}**. Vote the result with `!win blue|red` or `!dodge blue|red`.",
	}
	textGameWon = platform.Text{
		FR: "Manche remportée par l'équipe {side}. Score actuel : {blue_wins}-{red_wins}.",
		EN: "Game won by the {side} team. Current score: {blue_wins}-{red_wins}.",
	}
	textResolved = platform.Text{
		FR: "🏆 Match {id} terminé : victoire de l'équipe {side} ({blue_wins}-{red_wins}).\n{deltas}",
		EN: "🏆 Match {id} finished: {side} team wins ({blue_wins}-{red_wins}).\n{deltas}",
	}
	textDodged = platform.Text{
		FR: "🚫 Match {id} annulé : l'équipe {side} ne s'est pas présentée (-{penalty} points).",
		EN: "🚫 Match {id} cancelled: the {side} team did not show up (-{penalty} points).",
	}
	textTimedOut = platform.Text{
		FR: "⌛ Match {id} expiré sans résultat. Aucun changement de classement.",
		EN: "⌛ Match {id} expired without a result. No rating change.",
	}
	textStatus = platform.Text{
		FR: "Match {id} • {state} • {blue_wins}-{red_wins} • votes : {votes}",
		EN: "Match {id} • {state} • {blue_wins}-{red_wins} • votes: {votes}",
	}
)

var sideNames = map[string]map[models.Side]string{
	"fr": {models.SideBlue: "bleue", models.SideRed: "rouge"},
	"en": {models.SideBlue: "blue", models.SideRed: "red"},
}

// ShortID 对局ID的前8位，用于展示
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func mentions(ids []string) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, platform.Mention(id))
	}
	return strings.Join(out, " ")
}

func formatMaps(maps []models.MapChoice) string {
	out := make([]string, 0, len(maps))
	for _, mp := range maps {
		out = append(out, fmt.Sprintf("%s %s (%s)", mp.Emoji, mp.Map, mp.Mode))
	}
	return strings.Join(out, ", ")
}

func baseVars(m models.Match) map[string]string {
	return map[string]string{
		"id":        ShortID(m.ID),
		"queue":     string(m.QueueID),
		"bestof":    fmt.Sprint(m.BestOf),
		"blue_wins": fmt.Sprint(m.BlueWins),
		"red_wins":  fmt.Sprint(m.RedWins),
	}
}

func sideName(loc platform.Localizer, side models.Side) string {
	return sideNames[loc.Lang()][side]
}

// FormatFormed 组队成功的公告
func FormatFormed(loc platform.Localizer, m models.Match) string {
	vars := baseVars(m)
	vars["blue"] = mentions(m.Blue)
	vars["red"] = mentions(m.Red)
	vars["maps"] = formatMaps(m.Maps)
	return loc.Format(textFormed, vars)
}

// FormatStatus 对局消息的状态行
func FormatStatus(loc platform.Localizer, m models.Match) string {
	vars := baseVars(m)
	vars["state"] = string(m.State)
	vars["votes"] = fmt.Sprint(len(m.Votes))
	return loc.Format(textStatus, vars)
}

// FormatNotice 渲染生命周期公告，deltas 仅在结算时使用
func FormatNotice(loc platform.Localizer, a Announce, m models.Match, penalty float64, deltas []rating.Result) string {
	vars := baseVars(m)
	switch a.Notice {
	case NoticeRoomReady:
		vars["code"] = m.RoomCode
		return loc.Format(textRoomReady, vars)
	case NoticeGameWon:
		vars["side"] = sideName(loc, a.Side)
		return loc.Format(textGameWon, vars)
	case NoticeResolved:
		vars["side"] = sideName(loc, m.Winner)
		vars["deltas"] = formatDeltas(deltas)
		return loc.Format(textResolved, vars)
	case NoticeDodged:
		vars["side"] = sideName(loc, m.DodgedBy)
		vars["penalty"] = fmt.Sprint(penalty)
		return loc.Format(textDodged, vars)
	case NoticeTimedOut:
		return loc.Format(textTimedOut, vars)
	default:
		return ""
	}
}

func formatDeltas(results []rating.Result) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("%s %.0f → %.0f (%+.0f)", platform.Mention(r.PlayerID), r.OldRating, r.NewRating, r.NewRating-r.OldRating))
	}
	return strings.Join(lines, "\n")
}
