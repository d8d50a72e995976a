package response

import (
	"time"

	"github.com/mcoot/tichu/internal/model"
)

// Health is the health check response
type Health struct {
	Status string `json:"status"`
}

// Stats reports live server counts
type Stats struct {
	Connections int `json:"connections"`
	Connected   int `json:"connected"`
	Games       int `json:"games"`
}

// SummaryPlayer is a player in a completed game
type SummaryPlayer struct {
	UserID           string `json:"user_id"`
	DisplayName      string `json:"display_name"`
	Seat             int    `json:"seat"`
	Team             int    `json:"team"`
	GrandTichu       string `json:"grand_tichu"`
	FinishedPosition int    `json:"finished_position"`
	Bot              bool   `json:"bot"`
}

// GameSummary is a completed game
type GameSummary struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Players     []SummaryPlayer `json:"players"`
	TeamScores  [2]int          `json:"team_scores"`
	CompletedAt time.Time       `json:"completed_at"`
}

// GameSummaryFromModel converts a model.GameSummary
func GameSummaryFromModel(s *model.GameSummary) GameSummary {
	players := make([]SummaryPlayer, len(s.Players))
	for i, p := range s.Players {
		players[i] = SummaryPlayer{
			UserID:           string(p.UserID),
			DisplayName:      p.DisplayName,
			Seat:             p.Seat,
			Team:             model.Team(p.Seat),
			GrandTichu:       string(p.GrandTichu),
			FinishedPosition: p.FinishedPosition,
			Bot:              p.Bot,
		}
	}
	return GameSummary{
		ID:          string(s.ID),
		Code:        string(s.Code),
		Players:     players,
		TeamScores:  s.TeamScores,
		CompletedAt: s.CompletedAt,
	}
}

// RecentGames lists completed games, newest first
type RecentGames struct {
	Games []GameSummary `json:"games"`
}
