package teams

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/bracketpool/calcutta/go/internal/models"
	"github.com/bracketpool/calcutta/go/internal/sqlutil"
)

const teamColumns = `id, name, region, seed, owner_id, cost,
	round64, round32, sweet16, elite8, final4, championship, created_at`

// Repository implements team data access operations
type Repository struct {
	db sqlutil.DBTX
}

// NewRepository creates a new teams repository
func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx}
}

// CreateTeam creates a new team
func (r *Repository) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO teams (id, name, region, seed)
		VALUES ($1, $2, $3, $4)
		RETURNING `+teamColumns,
		req.ID, req.Name, req.Region, req.Seed,
	)
	team, err := scanTeam(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

// GetTeam retrieves a team by ID
func (r *Repository) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	team, err := scanTeam(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

// ListTeams retrieves all teams ordered by region and seed.
func (r *Repository) ListTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+teamColumns+` FROM teams ORDER BY region, seed, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()
	return collectTeams(rows)
}

// ListUnsoldTeams retrieves all teams with no owner. The engine calls this
// inside its settlement transaction to pick the next lot.
func (r *Repository) ListUnsoldTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE owner_id IS NULL ORDER BY region, seed, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsold teams: %w", err)
	}
	defer rows.Close()
	return collectTeams(rows)
}

// CountSoldTeams counts teams that have been assigned an owner.
func (r *Repository) CountSoldTeams(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM teams WHERE owner_id IS NOT NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sold teams: %w", err)
	}
	return count, nil
}

// UpdateTeam updates an existing team's descriptive fields and round flags.
func (r *Repository) UpdateTeam(ctx context.Context, id uuid.UUID, req UpdateTeamRequest) (*models.Team, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE teams SET
			name         = COALESCE($2, name),
			region       = COALESCE($3, region),
			seed         = COALESCE($4, seed),
			round64      = COALESCE($5, round64),
			round32      = COALESCE($6, round32),
			sweet16      = COALESCE($7, sweet16),
			elite8       = COALESCE($8, elite8),
			final4       = COALESCE($9, final4),
			championship = COALESCE($10, championship)
		WHERE id = $1
		RETURNING `+teamColumns,
		id, sqlutil.ToSqlString(req.Name), sqlutil.ToSqlString(req.Region),
		toSqlInt(req.Seed), toSqlBool(req.Round64), toSqlBool(req.Round32),
		toSqlBool(req.Sweet16), toSqlBool(req.Elite8), toSqlBool(req.Final4),
		toSqlBool(req.Championship),
	)
	team, err := scanTeam(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	return team, nil
}

// AssignOwner marks a team sold: sets its owner and cost in one statement.
func (r *Repository) AssignOwner(ctx context.Context, teamID, ownerID uuid.UUID, cost float64) (*models.Team, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE teams SET owner_id = $2, cost = $3
		WHERE id = $1
		RETURNING `+teamColumns,
		teamID, ownerID, cost,
	)
	team, err := scanTeam(row)
	if err != nil {
		return nil, fmt.Errorf("failed to assign owner: %w", err)
	}
	return team, nil
}

// ResetAllTeams returns every team to unsold: no owner, zero cost, no round
// wins. Used by auction restart.
func (r *Repository) ResetAllTeams(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE teams SET owner_id = NULL, cost = 0,
			round64 = FALSE, round32 = FALSE, sweet16 = FALSE,
			elite8 = FALSE, final4 = FALSE, championship = FALSE`); err != nil {
		return fmt.Errorf("failed to reset teams: %w", err)
	}
	return nil
}

// SetRoundWon flags a single round win for a team.
func (r *Repository) SetRoundWon(ctx context.Context, id uuid.UUID, round models.Round) error {
	col, ok := roundColumn(round)
	if !ok {
		return fmt.Errorf("unknown round %q", round)
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE teams SET `+col+` = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to set round won: %w", err)
	}
	return nil
}

// ClearRoundFlags resets all round-win flags without touching ownership.
func (r *Repository) ClearRoundFlags(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE teams SET round64 = FALSE, round32 = FALSE, sweet16 = FALSE,
			elite8 = FALSE, final4 = FALSE, championship = FALSE`); err != nil {
		return fmt.Errorf("failed to clear round flags: %w", err)
	}
	return nil
}

// roundColumn maps a round to its column name. The allow-list keeps round
// names out of SQL string building.
func roundColumn(round models.Round) (string, bool) {
	switch round {
	case models.Round64, models.Round32, models.Sweet16,
		models.Elite8, models.Final4, models.Championship:
		return string(round), true
	}
	return "", false
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTeam(row rowScanner) (*models.Team, error) {
	var t models.Team
	var ownerID uuid.NullUUID
	if err := row.Scan(
		&t.ID, &t.Name, &t.Region, &t.Seed, &ownerID, &t.Cost,
		&t.Round64, &t.Round32, &t.Sweet16, &t.Elite8, &t.Final4,
		&t.Championship, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	t.OwnerID = sqlutil.FromNullUUID(ownerID)
	return &t, nil
}

func collectTeams(rows *sql.Rows) ([]models.Team, error) {
	var teams []models.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

func toSqlInt(val *int) sql.NullInt32 {
	if val == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*val), Valid: true}
}

func toSqlBool(val *bool) sql.NullBool {
	if val == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *val, Valid: true}
}
