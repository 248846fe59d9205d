package controllers

import (
	"vmtracker/config"
	"vmtracker/internal/database"
	"vmtracker/internal/repositories"
	"vmtracker/internal/services"

	catalogController "vmtracker/internal/controllers/catalog"
	maintenanceController "vmtracker/internal/controllers/maintenance"
	odometerController "vmtracker/internal/controllers/odometer"
	vehicleController "vmtracker/internal/controllers/vehicles"
)

type Controllers struct {
	Catalog     catalogController.CatalogControllerInterface
	Vehicle     vehicleController.VehicleControllerInterface
	Odometer    odometerController.OdometerControllerInterface
	Maintenance maintenanceController.MaintenanceControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		Catalog:     catalogController.New(repos, services, config, db),
		Vehicle:     vehicleController.New(repos, services, config, db),
		Odometer:    odometerController.New(repos, services, config, db),
		Maintenance: maintenanceController.New(repos, services, config, db),
	}
}
