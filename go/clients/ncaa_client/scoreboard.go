package ncaa_client

import (
	"context"
	"encoding/json"
	"fmt"
)

// ScoreboardResponse is the month scoreboard payload.
type ScoreboardResponse struct {
	Games []GameWrapper `json:"games"`
}

type GameWrapper struct {
	Game Game `json:"game"`
}

// Game is a single game record. BracketRound is empty for regular-season
// games and "1".."6" for tournament rounds.
type Game struct {
	GameID       string   `json:"gameID"`
	GameState    string   `json:"gameState"`
	Home         GameTeam `json:"home"`
	Away         GameTeam `json:"away"`
	BracketRound string   `json:"bracketRound"`
	StartDate    string   `json:"startDate"`
}

type GameTeam struct {
	Names  TeamNames `json:"names"`
	Winner bool      `json:"winner"`
	Seed   string    `json:"seed"`
}

type TeamNames struct {
	Full string `json:"full"`
}

// WinnerName returns the full name of the winning side, or "" for games
// without a decided winner.
func (g *Game) WinnerName() string {
	switch {
	case g.Home.Winner:
		return g.Home.Names.Full
	case g.Away.Winner:
		return g.Away.Names.Full
	default:
		return ""
	}
}

// GetScoreboard fetches the month's games for men's D1 basketball.
func (c *NCAAClient) GetScoreboard(ctx context.Context, year, month int) (*ScoreboardResponse, error) {
	body, err := c.Get(ctx, fmt.Sprintf(scoreboardPath, year, month))
	if err != nil {
		return nil, fmt.Errorf("fetch scoreboard %d-%02d: %w", year, month, err)
	}

	var resp ScoreboardResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode scoreboard %d-%02d: %w", year, month, err)
	}
	return &resp, nil
}
