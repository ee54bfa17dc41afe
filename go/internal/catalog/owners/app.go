package owners

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bracketpool/calcutta/go/internal/models"
)

// OwnersRepository defines what the app layer needs from the repository
type OwnersRepository interface {
	CreateOwner(ctx context.Context, req CreateOwnerRequest) (*models.Owner, error)
	GetOwner(ctx context.Context, id uuid.UUID) (*models.Owner, error)
	GetOwnerByName(ctx context.Context, name string) (*models.Owner, error)
	ListOwners(ctx context.Context) ([]models.Owner, error)
	UpdateOwner(ctx context.Context, id uuid.UUID, req UpdateOwnerRequest) (*models.Owner, error)
	DeleteOwner(ctx context.Context, id uuid.UUID) error
}

// App handles owner business logic
type App struct {
	repo OwnersRepository
}

// NewApp creates a new owners App
func NewApp(repo OwnersRepository) *App {
	return &App{repo: repo}
}

// CreateOwner creates a new owner with validation
func (a *App) CreateOwner(ctx context.Context, req CreateOwnerRequest) (*models.Owner, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("validation failed: name is required")
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	existing, err := a.repo.GetOwnerByName(ctx, req.Name)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("owner with name %s already exists", req.Name)
	}

	owner, err := a.repo.CreateOwner(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create owner: %w", err)
	}
	return owner, nil
}

// GetOwner retrieves an owner by ID
func (a *App) GetOwner(ctx context.Context, id uuid.UUID) (*models.Owner, error) {
	return a.repo.GetOwner(ctx, id)
}

// ListOwners retrieves all owners
func (a *App) ListOwners(ctx context.Context) ([]models.Owner, error) {
	return a.repo.ListOwners(ctx)
}

// UpdateOwner updates an owner's name or bookkeeping flags
func (a *App) UpdateOwner(ctx context.Context, id uuid.UUID, req UpdateOwnerRequest) (*models.Owner, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("validation failed: name cannot be empty")
	}
	return a.repo.UpdateOwner(ctx, id, req)
}

// DeleteOwner removes an owner; their teams revert to unsold.
func (a *App) DeleteOwner(ctx context.Context, id uuid.UUID) error {
	return a.repo.DeleteOwner(ctx, id)
}
