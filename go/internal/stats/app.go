package stats

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/bracketpool/calcutta/go/internal/catalog/owners"
	"github.com/bracketpool/calcutta/go/internal/catalog/teams"
	"github.com/bracketpool/calcutta/go/internal/models"
)

// PotStats is the response for GET /api/stats.
type PotStats struct {
	TotalPot     float64            `json:"totalPot"`
	PayoutPerWin map[string]float64 `json:"payoutPerWin"`
	Percentages  map[string]string  `json:"percentages"`
}

// OwnerStanding is one leaderboard row.
type OwnerStanding struct {
	Owner           models.Owner `json:"owner"`
	TeamsCount      int          `json:"teamsCount"`
	TotalInvestment float64      `json:"totalInvestment"`
	TotalPayout     float64      `json:"totalPayout"`
	ROI             float64      `json:"roi"`
}

// App computes pot and leaderboard statistics.
type App struct {
	teams  *teams.Repository
	owners *owners.Repository
	scheme PayoutScheme
}

func NewApp(teamsRepo *teams.Repository, ownersRepo *owners.Repository, scheme PayoutScheme) *App {
	return &App{teams: teamsRepo, owners: ownersRepo, scheme: scheme}
}

// Stats returns the pot totals. Only sold teams contribute to the pot.
func (a *App) Stats(ctx context.Context) (*PotStats, error) {
	allTeams, err := a.teams.ListTeams(ctx)
	if err != nil {
		return nil, err
	}

	var sold []models.Team
	for _, team := range allTeams {
		if team.Sold() {
			sold = append(sold, team)
		}
	}

	pot := TotalPot(sold)
	perWin := a.scheme.PayoutPerWin(pot)

	stats := &PotStats{
		TotalPot:     pot.InexactFloat64(),
		PayoutPerWin: make(map[string]float64, len(perWin)),
		Percentages:  make(map[string]string, len(a.scheme.Percentages)),
	}
	for round, amount := range perWin {
		stats.PayoutPerWin[string(round)] = amount.InexactFloat64()
	}
	for round, fraction := range a.scheme.Percentages {
		stats.Percentages[string(round)] = fraction.Mul(decimal.NewFromInt(100)).String() + "%"
	}
	return stats, nil
}

// Leaderboard ranks owners by return on investment, best first.
func (a *App) Leaderboard(ctx context.Context) ([]OwnerStanding, error) {
	allOwners, err := a.owners.ListOwners(ctx)
	if err != nil {
		return nil, err
	}
	allTeams, err := a.teams.ListTeams(ctx)
	if err != nil {
		return nil, err
	}

	byOwner := make(map[string][]models.Team)
	var sold []models.Team
	for _, team := range allTeams {
		if team.Sold() {
			sold = append(sold, team)
			byOwner[team.OwnerID.String()] = append(byOwner[team.OwnerID.String()], team)
		}
	}

	pot := TotalPot(sold)
	perWin := a.scheme.PayoutPerWin(pot)

	standings := make([]OwnerStanding, 0, len(allOwners))
	for _, owner := range allOwners {
		ownerTeams := byOwner[owner.ID.String()]

		investment := decimal.Zero
		payout := decimal.Zero
		for _, team := range ownerTeams {
			investment = investment.Add(decimal.NewFromFloat(team.Cost))
			payout = payout.Add(TeamPayout(team, perWin))
		}

		roi := decimal.Zero
		if investment.IsPositive() {
			roi = payout.Sub(investment).Div(investment).Mul(decimal.NewFromInt(100))
		}

		standings = append(standings, OwnerStanding{
			Owner:           owner,
			TeamsCount:      len(ownerTeams),
			TotalInvestment: investment.InexactFloat64(),
			TotalPayout:     payout.InexactFloat64(),
			ROI:             roi.InexactFloat64(),
		})
	}

	sort.Slice(standings, func(i, j int) bool {
		return standings[i].ROI > standings[j].ROI
	})
	return standings, nil
}
