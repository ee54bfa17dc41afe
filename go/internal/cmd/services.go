package main

import (
	"database/sql"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bracketpool/calcutta/go/clients/ncaa_client"
	"github.com/bracketpool/calcutta/go/internal/auction/engine"
	"github.com/bracketpool/calcutta/go/internal/auction/gateway"
	"github.com/bracketpool/calcutta/go/internal/auction/outbox"
	"github.com/bracketpool/calcutta/go/internal/auction/state"
	"github.com/bracketpool/calcutta/go/internal/auction/sweeper"
	"github.com/bracketpool/calcutta/go/internal/catalog/owners"
	"github.com/bracketpool/calcutta/go/internal/catalog/teams"
	"github.com/bracketpool/calcutta/go/internal/identity"
	"github.com/bracketpool/calcutta/go/internal/importer"
	"github.com/bracketpool/calcutta/go/internal/stats"
	"github.com/bracketpool/calcutta/go/internal/users"
)

type Services struct {
	Identity *identity.Service
	Teams    *teams.Service
	Owners   *owners.Service
	Auction  *gateway.Service
	Stats    *stats.Service
	Importer *importer.Service

	WebSocket         *gateway.WebSocketHandler
	ConnectionManager *gateway.ConnectionManager
	Sweeper           *sweeper.Sweeper
	Engine            *engine.Engine
}

func setupServices(database *sql.DB, warnInterval time.Duration, scheme stats.PayoutScheme) *Services {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Service layer

	// Identity
	usersRepo := users.NewRepository(database)
	usersApp := users.NewApp(usersRepo)
	sessionsRepo := identity.NewRepository(database)
	identityService := identity.NewService(sessionsRepo, usersApp)

	// Catalog
	teamsRepo := teams.NewRepository(database)
	teamsApp := teams.NewApp(teamsRepo)
	teamsService := teams.NewService(teamsApp, identityService)

	ownersRepo := owners.NewRepository(database)
	ownersApp := owners.NewApp(ownersRepo)
	ownersService := owners.NewService(ownersApp, identityService)

	// Auction
	stateRepo := state.NewRepository(database)
	outboxRepo := outbox.NewRepository(database)
	store := engine.NewPgStore(database, stateRepo, teamsRepo, ownersRepo, outboxRepo)
	clock := clockwork.NewRealClock()
	eng := engine.NewEngine(store, clock, warnInterval)
	swp := sweeper.NewSweeper(eng, clock)
	auctionService := gateway.NewService(eng, identityService, swp)

	// Live event feed
	connManager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	wsHandler := gateway.NewWebSocketHandler(connManager, identityService)

	// Stats
	statsApp := stats.NewApp(teamsRepo, ownersRepo, scheme)
	statsService := stats.NewService(statsApp)

	// Importer
	importerApp := importer.NewApp(ncaa_client.NewNCAAClient(), teamsRepo)
	importerService := importer.NewService(importerApp, identityService)

	return &Services{
		Identity:          identityService,
		Teams:             teamsService,
		Owners:            ownersService,
		Auction:           auctionService,
		Stats:             statsService,
		Importer:          importerService,
		WebSocket:         wsHandler,
		ConnectionManager: connManager,
		Sweeper:           swp,
		Engine:            eng,
	}
}
