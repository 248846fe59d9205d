package seed

import (
	"time"
	"vmtracker/config"
	. "vmtracker/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

// Seed loads development data on top of the starter catalog. Subjects match
// the tokens minted by cmd/devtoken.
func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	users := []User{
		{Subject: "dev-admin", Username: "admin", Email: "admin@example.com", Role: RoleAdmin},
		{Subject: "dev-user", Username: "driver", Email: "driver@example.com", Role: RoleUser},
	}
	if err := db.Create(&users).Error; err != nil {
		return log.Err("failed to create users", err)
	}

	registered := time.Now().UTC().AddDate(-1, 0, 0)
	vehicles := []Vehicle{
		{UserID: users[1].ID, VehicleType: "Sedan", LicensePlateNumber: "DEV-1001", ManufactureYear: 2019, RegistrationDate: registered},
		{UserID: users[1].ID, VehicleType: "Van", LicensePlateNumber: "DEV-2002", ManufactureYear: 2021, RegistrationDate: registered},
	}
	if err := db.Create(&vehicles).Error; err != nil {
		return log.Err("failed to create vehicles", err)
	}

	readings := []OdometerReading{
		{VehicleID: vehicles[0].ID, Reading: 4200, ReadingDate: registered.AddDate(0, 6, 0)},
		{VehicleID: vehicles[1].ID, Reading: 12800, ReadingDate: registered.AddDate(0, 9, 0)},
	}
	if err := db.Create(&readings).Error; err != nil {
		return log.Err("failed to create odometer readings", err)
	}

	log.Info("Development data seeded",
		"users", len(users),
		"vehicles", len(vehicles),
		"readings", len(readings))
	return nil
}
