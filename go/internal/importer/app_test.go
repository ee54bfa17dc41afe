package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/check"

	"github.com/bracketpool/calcutta/go/clients/ncaa_client"
	"github.com/bracketpool/calcutta/go/internal/models"
)

type fakeFetcher struct {
	byMonth map[int][]ncaa_client.GameWrapper
	err     error
}

func (f *fakeFetcher) GetScoreboard(ctx context.Context, year, month int) (*ncaa_client.ScoreboardResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ncaa_client.ScoreboardResponse{Games: f.byMonth[month]}, nil
}

type fakeTeamsRepo struct {
	teams   []models.Team
	wins    map[uuid.UUID][]models.Round
	cleared bool
}

func (f *fakeTeamsRepo) ListTeams(ctx context.Context) ([]models.Team, error) {
	return f.teams, nil
}

func (f *fakeTeamsRepo) SetRoundWon(ctx context.Context, id uuid.UUID, round models.Round) error {
	if f.wins == nil {
		f.wins = map[uuid.UUID][]models.Round{}
	}
	f.wins[id] = append(f.wins[id], round)
	return nil
}

func (f *fakeTeamsRepo) ClearRoundFlags(ctx context.Context) error {
	f.cleared = true
	return nil
}

func finalGame(round, winner string) ncaa_client.GameWrapper {
	return ncaa_client.GameWrapper{Game: ncaa_client.Game{
		GameState:    "final",
		BracketRound: round,
		Home: ncaa_client.GameTeam{
			Names:  ncaa_client.TeamNames{Full: winner},
			Winner: true,
		},
		Away: ncaa_client.GameTeam{
			Names: ncaa_client.TeamNames{Full: "Loser U"},
		},
	}}
}

func TestImportYear_FlagsWinners(t *testing.T) {
	duke := models.Team{ID: uuid.New(), Name: "Duke"}
	gonzaga := models.Team{ID: uuid.New(), Name: "Gonzaga"}
	repo := &fakeTeamsRepo{teams: []models.Team{duke, gonzaga}}

	fetcher := &fakeFetcher{byMonth: map[int][]ncaa_client.GameWrapper{
		3: {
			finalGame("1", "Duke Blue Devils"), // containment match
			finalGame("1", "gonzaga"),          // case-insensitive match
		},
		4: {
			finalGame("6", "Duke Blue Devils"),
		},
	}}

	report, err := NewApp(fetcher, repo).ImportYear(context.Background(), 2026)
	check.Nil(t, err)
	check.True(t, report.Success)
	check.Equal(t, 3, report.TournamentGames)
	check.Equal(t, 3, report.UpdatedTeams)
	check.Equal(t, []models.Round{models.Round64, models.Championship}, repo.wins[duke.ID])
	check.Equal(t, []models.Round{models.Round64}, repo.wins[gonzaga.ID])
	check.Equal(t, 0, len(report.Unmatched))
}

func TestImportYear_SkipsNonTournamentAndUnfinished(t *testing.T) {
	repo := &fakeTeamsRepo{teams: []models.Team{{ID: uuid.New(), Name: "Duke"}}}

	regularSeason := finalGame("", "Duke")
	inProgress := finalGame("1", "Duke")
	inProgress.Game.GameState = "live"

	fetcher := &fakeFetcher{byMonth: map[int][]ncaa_client.GameWrapper{
		3: {regularSeason, inProgress},
	}}

	_, err := NewApp(fetcher, repo).ImportYear(context.Background(), 2026)
	check.True(t, errors.Is(err, ErrNoGamesFound))
	check.Equal(t, 0, len(repo.wins))
}

func TestImportYear_ReportsUnmatched(t *testing.T) {
	repo := &fakeTeamsRepo{teams: []models.Team{{ID: uuid.New(), Name: "Duke"}}}
	fetcher := &fakeFetcher{byMonth: map[int][]ncaa_client.GameWrapper{
		3: {
			finalGame("1", "Houston"),
			finalGame("2", "Houston"),
		},
	}}

	report, err := NewApp(fetcher, repo).ImportYear(context.Background(), 2026)
	check.Nil(t, err)
	check.Equal(t, 0, report.UpdatedTeams)
	check.Equal(t, []string{"Houston"}, report.Unmatched)
}

func TestImportYear_AmbiguousMatchIsSkipped(t *testing.T) {
	repo := &fakeTeamsRepo{teams: []models.Team{
		{ID: uuid.New(), Name: "Michigan"},
		{ID: uuid.New(), Name: "Michigan State"},
	}}
	fetcher := &fakeFetcher{byMonth: map[int][]ncaa_client.GameWrapper{
		3: {finalGame("1", "Michigan")},
	}}

	report, err := NewApp(fetcher, repo).ImportYear(context.Background(), 2026)
	check.Nil(t, err)
	check.Equal(t, 0, report.UpdatedTeams)
	check.Equal(t, 1, len(report.Ambiguous))
	check.Equal(t, 0, len(repo.wins))
}

func TestImportYear_FetchError(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("gateway timeout")}
	_, err := NewApp(fetcher, &fakeTeamsRepo{}).ImportYear(context.Background(), 2026)
	check.NotNil(t, err)
}

func TestResetResults(t *testing.T) {
	repo := &fakeTeamsRepo{}
	check.Nil(t, NewApp(&fakeFetcher{}, repo).ResetResults(context.Background()))
	check.True(t, repo.cleared)
}
