package teams

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bracketpool/calcutta/go/internal/models"
)

// TeamsRepository defines what the app layer needs from the repository
type TeamsRepository interface {
	CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	ListUnsoldTeams(ctx context.Context) ([]models.Team, error)
	UpdateTeam(ctx context.Context, id uuid.UUID, req UpdateTeamRequest) (*models.Team, error)
}

// App handles team catalog business logic
type App struct {
	repo TeamsRepository
}

// NewApp creates a new teams App
func NewApp(repo TeamsRepository) *App {
	return &App{repo: repo}
}

// CreateTeam creates a new team with validation
func (a *App) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("validation failed: name is required")
	}
	if req.Region == "" {
		return nil, fmt.Errorf("validation failed: region is required")
	}
	if req.Seed < 1 || req.Seed > 16 {
		return nil, fmt.Errorf("validation failed: seed must be between 1 and 16")
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	team, err := a.repo.CreateTeam(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

// GetTeam retrieves a team by ID
func (a *App) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return a.repo.GetTeam(ctx, id)
}

// ListTeams retrieves all teams
func (a *App) ListTeams(ctx context.Context) ([]models.Team, error) {
	return a.repo.ListTeams(ctx)
}

// ListUnsoldTeams retrieves teams still available for auction
func (a *App) ListUnsoldTeams(ctx context.Context) ([]models.Team, error) {
	return a.repo.ListUnsoldTeams(ctx)
}

// UpdateTeam updates a team's descriptive fields and round flags
func (a *App) UpdateTeam(ctx context.Context, id uuid.UUID, req UpdateTeamRequest) (*models.Team, error) {
	if req.Seed != nil && (*req.Seed < 1 || *req.Seed > 16) {
		return nil, fmt.Errorf("validation failed: seed must be between 1 and 16")
	}
	team, err := a.repo.UpdateTeam(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	return team, nil
}
