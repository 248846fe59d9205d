package repositories

import (
	"context"
	. "vmtracker/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

type OdometerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, reading *OdometerReading) error
	GetLatest(ctx context.Context, tx *gorm.DB, vehicleID int) (*OdometerReading, error)
	GetUserHistory(ctx context.Context, tx *gorm.DB, userID int) ([]*OdometerReading, error)
	DeleteByVehicle(ctx context.Context, tx *gorm.DB, vehicleID int) error
}

type odometerRepository struct {
	log logger.Logger
}

func NewOdometerRepository() OdometerRepository {
	return &odometerRepository{
		log: logger.New("odometerRepository"),
	}
}

func (r *odometerRepository) Create(ctx context.Context, tx *gorm.DB, reading *OdometerReading) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Omit("Vehicle").Create(reading).Error; err != nil {
		return log.Err(
			"failed to create odometer reading",
			translateWriteError(err, "odometer reading"),
			"vehicleID",
			reading.VehicleID,
		)
	}

	return nil
}

// GetLatest returns nil without an error when the vehicle has no readings.
func (r *odometerRepository) GetLatest(
	ctx context.Context,
	tx *gorm.DB,
	vehicleID int,
) (*OdometerReading, error) {
	log := r.log.Function("GetLatest")

	var reading OdometerReading
	if err := tx.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("reading_date DESC, id DESC").
		First(&reading).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, nil
		}
		return nil, log.Err("failed to get latest odometer reading", err, "vehicleID", vehicleID)
	}

	return &reading, nil
}

func (r *odometerRepository) GetUserHistory(
	ctx context.Context,
	tx *gorm.DB,
	userID int,
) ([]*OdometerReading, error) {
	log := r.log.Function("GetUserHistory")

	var readings []*OdometerReading
	if err := tx.WithContext(ctx).
		Preload("Vehicle").
		Joins("JOIN vehicles ON vehicles.id = odometer_readings.vehicle_id").
		Where("vehicles.user_id = ?", userID).
		Order("odometer_readings.reading_date DESC, odometer_readings.id DESC").
		Find(&readings).Error; err != nil {
		return nil, log.Err("failed to get odometer history", err, "userID", userID)
	}

	return readings, nil
}

func (r *odometerRepository) DeleteByVehicle(ctx context.Context, tx *gorm.DB, vehicleID int) error {
	log := r.log.Function("DeleteByVehicle")

	if err := tx.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Delete(&OdometerReading{}).Error; err != nil {
		return log.Err("failed to delete odometer readings", err, "vehicleID", vehicleID)
	}

	return nil
}
