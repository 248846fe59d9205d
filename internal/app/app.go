package app

import (
	"vmtracker/config"
	"vmtracker/internal/controllers"
	"vmtracker/internal/database"
	"vmtracker/internal/handlers/middleware"
	"vmtracker/internal/repositories"
	"vmtracker/internal/repositories/memory"
	"vmtracker/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/juju/clock"
)

type App struct {
	Database    database.DB
	Middleware  middleware.Middleware
	Config      config.Config
	Services    services.Service
	Repos       repositories.Repository
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	return NewWithConfig(config, clock.WallClock)
}

// NewWithConfig wires the application against the store selected by
// DB_DRIVER. The memory driver keeps every table in process and backs the
// transaction service with the same store.
func NewWithConfig(config config.Config, clk clock.Clock) (*App, error) {
	log := logger.New("app").Function("NewWithConfig")

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	services, err := services.New(db, config, clk)
	if err != nil {
		return &App{}, log.Err("failed to create services", err)
	}

	var repos repositories.Repository
	if db.SQL == nil {
		var store *memory.Store
		store, repos = memory.New(services.Clock)
		services.Transaction = store
		log.Info("Using in-memory repositories")
	} else {
		repos = repositories.New(db)
	}

	middleware := middleware.New(db, config, repos, services)
	controllers := controllers.New(services, repos, config, db)

	app := &App{
		Database:    db,
		Config:      config,
		Middleware:  middleware,
		Services:    services,
		Repos:       repos,
		Controllers: controllers,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil && a.Config.DatabaseDriver != config.DriverMemory {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Services.Auth,
		a.Services.Transaction,
		a.Services.Clock,
		a.Repos.User,
		a.Repos.Vehicle,
		a.Repos.Odometer,
		a.Repos.MaintenanceService,
		a.Repos.MaintenanceRequest,
		a.Controllers.Catalog,
		a.Controllers.Vehicle,
		a.Controllers.Odometer,
		a.Controllers.Maintenance,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
