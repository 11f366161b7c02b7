package main

import (
	"context"
	"database/sql"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/auctionhouse/go/internal/activity"
	"github.com/mcdev12/auctionhouse/go/internal/auction"
	"github.com/mcdev12/auctionhouse/go/internal/auction/gateway"
	"github.com/mcdev12/auctionhouse/go/internal/auction/outbox"
	"github.com/mcdev12/auctionhouse/go/internal/players"
	"github.com/mcdev12/auctionhouse/go/internal/sales"
	"github.com/mcdev12/auctionhouse/go/internal/settings"
	"github.com/mcdev12/auctionhouse/go/internal/teams"
	"github.com/mcdev12/auctionhouse/go/internal/users"
)

type Services struct {
	Engine   *auction.Engine
	Hub      *gateway.Hub
	Teams    *teams.App
	Players  *players.App
	Users    *users.App
	Settings *settings.App
	Sales    *sales.Repository
	Activity *activity.Repository

	// Long-running loops supervised by main's errgroup.
	runners []func(ctx context.Context) error
}

func setupServices(database *sql.DB, cfg *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer -> Repository layer -> App layer -> Engine

	clock := clockwork.NewRealClock()

	usersRepo := users.NewRepository(database)
	usersApp := users.NewApp(usersRepo)

	settingsApp := settings.NewApp(settings.NewRepository(database), clock)
	playersApp := players.NewApp(players.NewRepository(database), settingsApp)

	salesRepo := sales.NewRepository(database)
	activityRepo := activity.NewRepository(database)
	activityRecorder := activity.NewRecorder(activityRepo, 256)

	outboxRepo := outbox.NewRepository(database)
	outboxRecorder := outbox.NewRecorder(outboxRepo, 1024)
	retrier := outbox.NewRetrier(256)

	// The engine and the hub reference each other: the engine publishes to
	// the hub, the hub answers timer-sync requests from the engine. The
	// fanout is filled in once both exist.
	var publisher auction.Fanout
	auctionRepo := auction.NewRepository(database)
	engine := auction.NewEngine(auctionRepo, usersApp, &publisher, retrier, clock, cfg.engineConfig())
	hub := gateway.NewHub(gateway.DefaultConnectionConfig(), engine)
	publisher = append(publisher, hub, outboxRecorder, activityRecorder)

	teamsApp := teams.NewApp(teams.NewRepository(database), engine)

	svcs := &Services{
		Engine:   engine,
		Hub:      hub,
		Teams:    teamsApp,
		Players:  playersApp,
		Users:    usersApp,
		Settings: settingsApp,
		Sales:    salesRepo,
		Activity: activityRepo,
		runners: []func(ctx context.Context) error{
			hub.Run,
			outboxRecorder.Run,
			activityRecorder.Run,
			retrier.Run,
		},
	}

	if cfg.NATS.Enabled {
		jsCfg := outbox.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATS.URL
		jsPublisher, err := outbox.NewJetStreamPublisher(jsCfg)
		if err != nil {
			return nil, err
		}
		worker := outbox.NewWorker(outboxRepo, jsPublisher, cfg.outboxPollInterval(), cfg.Outbox.BatchSize)
		svcs.runners = append(svcs.runners, func(ctx context.Context) error {
			defer jsPublisher.Close()
			return worker.Run(ctx)
		})
	}

	return svcs, nil
}
