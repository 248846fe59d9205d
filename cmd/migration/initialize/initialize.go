package initialize

import (
	"vmtracker/config"
	"vmtracker/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StarterServices is the catalog a fresh install starts with. Admins edit it
// through the API afterwards.
func StarterServices() []models.MaintenanceService {
	return []models.MaintenanceService{
		{ServiceName: "Oil Change", ServiceCost: decimal.NewFromInt(500), MinimumOdometer: 0, MaximumOdometer: 5000},
		{ServiceName: "Tyre Rotation", ServiceCost: decimal.NewFromInt(300), MinimumOdometer: 5001, MaximumOdometer: 10000},
		{ServiceName: "Brake Inspection", ServiceCost: decimal.NewFromInt(750), MinimumOdometer: 10001, MaximumOdometer: 20000},
		{ServiceName: "Coolant Flush", ServiceCost: decimal.NewFromInt(900), MinimumOdometer: 20001, MaximumOdometer: 40000},
		{ServiceName: "Timing Belt Replacement", ServiceCost: decimal.NewFromInt(2500), MinimumOdometer: 40001, MaximumOdometer: 100000},
	}
}

func InitializeTables(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential production data")

	if err := initializeCatalog(db, log); err != nil {
		return log.Err("failed to initialize catalog", err)
	}

	log.Info("Table initialization complete")
	return nil
}

func initializeCatalog(db *gorm.DB, log logger.Logger) error {
	log.Info("Initializing maintenance service catalog")

	services := StarterServices()

	var existing int64
	if err := db.Model(&models.MaintenanceService{}).Count(&existing).Error; err != nil {
		return log.Err("failed to count maintenance services", err)
	}
	if existing > 0 {
		log.Info("Catalog already populated, leaving it untouched", "count", existing)
		return nil
	}

	for _, service := range services {
		log.Info("Initializing service", "name", service.ServiceName)
		if err := db.Create(&service).Error; err != nil {
			return log.Err("failed to create maintenance service", err, "name", service.ServiceName)
		}
	}

	log.Info("Catalog reference data initialized", "count", len(services))
	return nil
}
