package database

import (
	"vmtracker/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&models.User{},
		&models.MaintenanceService{},
		&models.Vehicle{},
		&models.OdometerReading{},
		&models.MaintenanceRequest{},
		&models.MaintenanceRequestService{},
	}
}

// MigrateModels runs GORM AutoMigrate in two phases: tables first, then
// foreign keys and indexes.
func MigrateModels(db *gorm.DB, log logger.Logger) error {
	log = log.Function("MigrateModels")
	log.Info("Starting database migration")

	log.Info("Phase 1: Creating tables without foreign key constraints")
	db.Config.DisableForeignKeyConstraintWhenMigrating = true
	for _, table := range Models() {
		if db.Migrator().HasTable(table) {
			continue
		}

		log.Info("Creating table structure", "table", table)
		if err := db.Migrator().CreateTable(table); err != nil {
			db.Config.DisableForeignKeyConstraintWhenMigrating = false
			return log.Err("failed to create table structure", err)
		}
	}

	log.Info("Phase 2: Adding foreign key constraints and relationships")
	db.Config.DisableForeignKeyConstraintWhenMigrating = false
	if err := db.AutoMigrate(Models()...); err != nil {
		return log.Err("failed to add constraints", err)
	}

	log.Info("Database migration completed successfully")
	return nil
}

// DropModels removes every table, children first.
func DropModels(db *gorm.DB, log logger.Logger) error {
	log = log.Function("DropModels")

	tables := Models()
	for i := len(tables) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(tables[i]); err != nil {
			return log.Err("failed to drop table", err, "table", tables[i])
		}
	}

	log.Info("Dropped all tables successfully")
	return nil
}
