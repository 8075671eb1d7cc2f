package main

import (
	"fmt"

	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/auth"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/booking"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/config"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/gymsite"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/logger"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/store"
	syncengine "github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/sync"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/venues"
)

// app bundles the wired components the commands share.
type app struct {
	cfg    *config.Config
	store  *store.Store
	venues *venues.Map
	log    logger.Logger
}

// buildApp loads configuration, initializes logging, and opens the mirror.
func buildApp() (*app, error) {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if dbPath != "" {
		flags["db-path"] = dbPath
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.GetLogger()

	// Resolve the default booking account through the credential chain.
	cfg.Accounts.DefaultOpenID = auth.NewManager().DefaultOpenID(cfg.Accounts.DefaultOpenID)

	st, err := store.Open(cfg.Database.Path, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror database: %w", err)
	}

	return &app{
		cfg:    cfg,
		store:  st,
		venues: venues.New(cfg.Venues.Names, cfg.Venues.Groups),
		log:    log,
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("failed to close mirror database")
	}
}

// fetchClient builds the read-side client (long timeout).
func (a *app) fetchClient() *gymsite.Client {
	return gymsite.NewClient(a.cfg.Remote.BaseURL, a.cfg.Remote.FetchTimeout, a.cfg.Remote.Headers, a.log)
}

// bookingClient builds the transaction-side client (short timeout).
func (a *app) bookingClient() *gymsite.Client {
	return gymsite.NewClient(a.cfg.Remote.BaseURL, a.cfg.Remote.BookingTimeout, a.cfg.Remote.Headers, a.log)
}

func (a *app) engine() *syncengine.Engine {
	return syncengine.NewEngine(a.fetchClient(), a.store, a.venues, a.cfg.Sync, a.log)
}

func (a *app) bookingService() *booking.Service {
	return booking.NewService(a.bookingClient(), a.store, a.venues, a.cfg.Accounts, a.cfg.Booking, a.log)
}
