package repositories

import (
	"context"
	. "vmtracker/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/juju/errors"
	"gorm.io/gorm"
)

type VehicleRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id int) (*Vehicle, error)
	GetUserVehicles(ctx context.Context, tx *gorm.DB, userID int) ([]*Vehicle, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*Vehicle, error)
	Create(ctx context.Context, tx *gorm.DB, vehicle *Vehicle) error
	Update(ctx context.Context, tx *gorm.DB, vehicle *Vehicle) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id int, status VehicleStatus) error
	Delete(ctx context.Context, tx *gorm.DB, id int) error
	CountRequests(ctx context.Context, tx *gorm.DB, id int) (int64, error)
}

type vehicleRepository struct {
	log logger.Logger
}

func NewVehicleRepository() VehicleRepository {
	return &vehicleRepository{
		log: logger.New("vehicleRepository"),
	}
}

func (r *vehicleRepository) GetByID(ctx context.Context, tx *gorm.DB, id int) (*Vehicle, error) {
	log := r.log.Function("GetByID")

	var vehicle Vehicle
	if err := tx.WithContext(ctx).Preload("User").First(&vehicle, id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, errors.NotFoundf("vehicle %d", id)
		}
		return nil, log.Err("failed to get vehicle", err, "id", id)
	}

	return &vehicle, nil
}

func (r *vehicleRepository) GetUserVehicles(
	ctx context.Context,
	tx *gorm.DB,
	userID int,
) ([]*Vehicle, error) {
	log := r.log.Function("GetUserVehicles")

	var vehicles []*Vehicle
	if err := tx.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("registration_date DESC, id DESC").
		Find(&vehicles).Error; err != nil {
		return nil, log.Err("failed to get user vehicles", err, "userID", userID)
	}

	return vehicles, nil
}

func (r *vehicleRepository) GetAll(ctx context.Context, tx *gorm.DB) ([]*Vehicle, error) {
	log := r.log.Function("GetAll")

	var vehicles []*Vehicle
	if err := tx.WithContext(ctx).
		Preload("User").
		Order("id ASC").
		Find(&vehicles).Error; err != nil {
		return nil, log.Err("failed to get vehicles", err)
	}

	return vehicles, nil
}

func (r *vehicleRepository) Create(ctx context.Context, tx *gorm.DB, vehicle *Vehicle) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Omit("User").Create(vehicle).Error; err != nil {
		return log.Err(
			"failed to create vehicle",
			translateWriteError(err, "licence plate"),
			"userID",
			vehicle.UserID,
		)
	}

	return nil
}

func (r *vehicleRepository) Update(ctx context.Context, tx *gorm.DB, vehicle *Vehicle) error {
	log := r.log.Function("Update")

	result := tx.WithContext(ctx).
		Model(&Vehicle{BaseModel: BaseModel{ID: vehicle.ID}}).
		Updates(map[string]any{
			"vehicle_type":         vehicle.VehicleType,
			"license_plate_number": vehicle.LicensePlateNumber,
			"manufacture_year":     vehicle.ManufactureYear,
			"registration_date":    vehicle.RegistrationDate,
		})
	if result.Error != nil {
		return log.Err(
			"failed to update vehicle",
			translateWriteError(result.Error, "licence plate"),
			"id",
			vehicle.ID,
		)
	}

	if result.RowsAffected == 0 {
		return errors.NotFoundf("vehicle %d", vehicle.ID)
	}

	return nil
}

func (r *vehicleRepository) UpdateStatus(
	ctx context.Context,
	tx *gorm.DB,
	id int,
	status VehicleStatus,
) error {
	log := r.log.Function("UpdateStatus")

	result := tx.WithContext(ctx).
		Model(&Vehicle{BaseModel: BaseModel{ID: id}}).
		Update("status", status)
	if result.Error != nil {
		return log.Err("failed to update vehicle status", result.Error, "id", id, "status", status)
	}

	if result.RowsAffected == 0 {
		return errors.NotFoundf("vehicle %d", id)
	}

	return nil
}

func (r *vehicleRepository) Delete(ctx context.Context, tx *gorm.DB, id int) error {
	log := r.log.Function("Delete")

	result := tx.WithContext(ctx).Delete(&Vehicle{}, id)
	if result.Error != nil {
		return log.Err("failed to delete vehicle", translateDeleteError(result.Error, "vehicle"), "id", id)
	}

	if result.RowsAffected == 0 {
		return errors.NotFoundf("vehicle %d", id)
	}

	return nil
}

func (r *vehicleRepository) CountRequests(ctx context.Context, tx *gorm.DB, id int) (int64, error) {
	log := r.log.Function("CountRequests")

	var count int64
	if err := tx.WithContext(ctx).
		Model(&MaintenanceRequest{}).
		Where("vehicle_id = ?", id).
		Count(&count).Error; err != nil {
		return 0, log.Err("failed to count vehicle requests", err, "id", id)
	}

	return count, nil
}
