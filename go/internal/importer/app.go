package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/bracketpool/calcutta/go/clients/ncaa_client"
	"github.com/bracketpool/calcutta/go/internal/models"
)

// ErrNoGamesFound means the scoreboard had no completed bracket games for
// the requested year.
var ErrNoGamesFound = errors.New("no tournament games found for this year")

// Tournament months: the bracket runs mid-March to early April.
var tournamentMonths = []int{3, 4}

// roundMap maps the scoreboard's bracketRound codes onto round flags.
var roundMap = map[string]models.Round{
	"1": models.Round64,
	"2": models.Round32,
	"3": models.Sweet16,
	"4": models.Elite8,
	"5": models.Final4,
	"6": models.Championship,
}

// ScoreboardFetcher is the slice of the NCAA client the importer uses.
type ScoreboardFetcher interface {
	GetScoreboard(ctx context.Context, year, month int) (*ncaa_client.ScoreboardResponse, error)
}

// TeamsRepo is the catalog surface the importer writes through.
type TeamsRepo interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	SetRoundWon(ctx context.Context, id uuid.UUID, round models.Round) error
	ClearRoundFlags(ctx context.Context) error
}

// ImportReport summarizes one import run.
type ImportReport struct {
	Success         bool     `json:"success"`
	Message         string   `json:"message"`
	TournamentGames int      `json:"tournamentGames"`
	UpdatedTeams    int      `json:"updatedTeams"`
	Updates         []string `json:"updates"`
	Unmatched       []string `json:"unmatched,omitempty"`
	Ambiguous       []string `json:"ambiguous,omitempty"`
}

// App imports tournament results into the team catalog.
type App struct {
	client ScoreboardFetcher
	teams  TeamsRepo
}

func NewApp(client ScoreboardFetcher, teams TeamsRepo) *App {
	return &App{client: client, teams: teams}
}

// ImportYear pulls the year's bracket results and flags each winner's round.
// A scoreboard name that matches more than one catalog team is never
// applied: ambiguous matches are reported and skipped rather than guessing.
func (a *App) ImportYear(ctx context.Context, year int) (*ImportReport, error) {
	var games []ncaa_client.GameWrapper
	for _, month := range tournamentMonths {
		resp, err := a.client.GetScoreboard(ctx, year, month)
		if err != nil {
			return nil, fmt.Errorf("fetch tournament data: %w", err)
		}
		games = append(games, resp.Games...)
	}

	var tournamentGames []ncaa_client.Game
	for _, wrapper := range games {
		if wrapper.Game.BracketRound != "" && wrapper.Game.GameState == "final" {
			tournamentGames = append(tournamentGames, wrapper.Game)
		}
	}
	if len(tournamentGames) == 0 {
		return nil, ErrNoGamesFound
	}

	teams, err := a.teams.ListTeams(ctx)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{
		Success:         true,
		Message:         fmt.Sprintf("Successfully imported %d tournament results", year),
		TournamentGames: len(tournamentGames),
	}

	for _, game := range tournamentGames {
		round, ok := roundMap[game.BracketRound]
		if !ok {
			continue
		}
		winnerName := game.WinnerName()
		if winnerName == "" {
			continue
		}

		matches := matchTeams(teams, winnerName)
		switch len(matches) {
		case 0:
			report.Unmatched = appendUnique(report.Unmatched, winnerName)
		case 1:
			team := matches[0]
			if err := a.teams.SetRoundWon(ctx, team.ID, round); err != nil {
				return nil, fmt.Errorf("record %s win for %s: %w", round, team.Name, err)
			}
			report.UpdatedTeams++
			report.Updates = append(report.Updates, fmt.Sprintf("%s won %s", team.Name, round))
		default:
			names := make([]string, len(matches))
			for i, t := range matches {
				names[i] = t.Name
			}
			log.Warn().
				Str("winner", winnerName).
				Strs("candidates", names).
				Msg("ambiguous team match, skipping")
			report.Ambiguous = appendUnique(report.Ambiguous,
				fmt.Sprintf("%s (candidates: %s)", winnerName, strings.Join(names, ", ")))
		}
	}

	return report, nil
}

// ResetResults clears every round flag.
func (a *App) ResetResults(ctx context.Context) error {
	return a.teams.ClearRoundFlags(ctx)
}

// matchTeams returns every catalog team whose name matches winnerName
// case-insensitively, exactly or by containment in either direction.
func matchTeams(teams []models.Team, winnerName string) []models.Team {
	winner := strings.ToLower(winnerName)

	var matches []models.Team
	for _, team := range teams {
		name := strings.ToLower(team.Name)
		if name == winner || strings.Contains(name, winner) || strings.Contains(winner, name) {
			matches = append(matches, team)
		}
	}
	return matches
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
