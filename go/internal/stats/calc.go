package stats

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/bracketpool/calcutta/go/internal/models"
)

// winnersPerRound is fixed by the bracket shape: 32 games in the round of
// 64, down to 1 championship.
var winnersPerRound = map[models.Round]int64{
	models.Round64:      32,
	models.Round32:      16,
	models.Sweet16:      8,
	models.Elite8:       4,
	models.Final4:       2,
	models.Championship: 1,
}

// PayoutScheme is the pot split across rounds. Percentages are fractions of
// the total pot paid out across all winners of that round.
type PayoutScheme struct {
	Percentages map[models.Round]decimal.Decimal
}

// DefaultPayoutScheme returns the house split: 16/16/24/16/16/12.
func DefaultPayoutScheme() PayoutScheme {
	return PayoutScheme{
		Percentages: map[models.Round]decimal.Decimal{
			models.Round64:      decimal.NewFromFloat(0.16),
			models.Round32:      decimal.NewFromFloat(0.16),
			models.Sweet16:      decimal.NewFromFloat(0.24),
			models.Elite8:       decimal.NewFromFloat(0.16),
			models.Final4:       decimal.NewFromFloat(0.16),
			models.Championship: decimal.NewFromFloat(0.12),
		},
	}
}

// NewPayoutScheme builds a scheme from per-round fractions and rejects
// splits that do not cover the whole pot.
func NewPayoutScheme(fractions map[string]float64) (PayoutScheme, error) {
	scheme := PayoutScheme{Percentages: make(map[models.Round]decimal.Decimal)}
	total := decimal.Zero
	for _, round := range models.Rounds {
		fraction, ok := fractions[string(round)]
		if !ok {
			return PayoutScheme{}, fmt.Errorf("payout scheme missing round %s", round)
		}
		d := decimal.NewFromFloat(fraction)
		if d.IsNegative() {
			return PayoutScheme{}, fmt.Errorf("payout fraction for %s is negative", round)
		}
		scheme.Percentages[round] = d
		total = total.Add(d)
	}
	if !total.Equal(decimal.NewFromInt(1)) {
		return PayoutScheme{}, fmt.Errorf("payout fractions sum to %s, want 1", total)
	}
	return scheme, nil
}

// TotalPot sums the winning bids of the given teams.
func TotalPot(teams []models.Team) decimal.Decimal {
	pot := decimal.Zero
	for _, team := range teams {
		pot = pot.Add(decimal.NewFromFloat(team.Cost))
	}
	return pot
}

// PayoutPerWin computes the per-win payout for each round: the round's slice
// of the pot divided by the number of winners in that round.
func (s PayoutScheme) PayoutPerWin(pot decimal.Decimal) map[models.Round]decimal.Decimal {
	perWin := make(map[models.Round]decimal.Decimal, len(winnersPerRound))
	for _, round := range models.Rounds {
		winners := decimal.NewFromInt(winnersPerRound[round])
		perWin[round] = pot.Mul(s.Percentages[round]).Div(winners)
	}
	return perWin
}

// TeamPayout sums the per-win payouts for every round the team has won.
func TeamPayout(team models.Team, perWin map[models.Round]decimal.Decimal) decimal.Decimal {
	payout := decimal.Zero
	for _, round := range models.Rounds {
		if team.WonRound(round) {
			payout = payout.Add(perWin[round])
		}
	}
	return payout
}
