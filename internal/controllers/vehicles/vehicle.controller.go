package vehicleController

import (
	"context"
	"vmtracker/config"
	"vmtracker/internal/database"
	. "vmtracker/internal/models"
	"vmtracker/internal/repositories"
	"vmtracker/internal/services"
	"vmtracker/internal/types"
	"vmtracker/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"gorm.io/gorm"
)

const (
	MinManufactureYear    = 1900
	MaxVehicleTypeLength  = 100
	MaxLicensePlateLength = 32
)

type VehicleController struct {
	vehicleRepo        repositories.VehicleRepository
	odometerRepo       repositories.OdometerRepository
	transactionService services.Transactor
	clock              clock.Clock
	db                 database.DB
	Config             config.Config
	log                logger.Logger
}

type VehicleRequest struct {
	VehicleType        string `json:"vehicleType"`
	LicensePlateNumber string `json:"licensePlateNumber"`
	ManufactureYear    int    `json:"manufactureYear"`
	RegistrationDate   string `json:"registrationDate,omitempty"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type VehicleControllerInterface interface {
	ListUserVehicles(ctx context.Context, user *User) ([]*Vehicle, error)
	ListAllVehicles(ctx context.Context) ([]*Vehicle, error)
	CreateVehicle(ctx context.Context, user *User, request *VehicleRequest) (*Vehicle, error)
	UpdateVehicle(ctx context.Context, user *User, id int, request *VehicleRequest) (*Vehicle, error)
	DeleteVehicle(ctx context.Context, user *User, id int) error
	ChangeVehicleStatus(ctx context.Context, id int, request *StatusRequest) (*Vehicle, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) VehicleControllerInterface {
	return &VehicleController{
		vehicleRepo:        repos.Vehicle,
		odometerRepo:       repos.Odometer,
		transactionService: services.Transaction,
		clock:              services.Clock,
		db:                 db,
		Config:             config,
		log:                logger.New("vehicleController"),
	}
}

func (c *VehicleController) ListUserVehicles(ctx context.Context, user *User) ([]*Vehicle, error) {
	log := c.log.Function("ListUserVehicles")

	vehicles, err := c.vehicleRepo.GetUserVehicles(ctx, c.db.SQL, user.ID)
	if err != nil {
		return nil, log.Err("failed to list user vehicles", err, "userID", user.ID)
	}

	return vehicles, nil
}

func (c *VehicleController) ListAllVehicles(ctx context.Context) ([]*Vehicle, error) {
	log := c.log.Function("ListAllVehicles")

	vehicles, err := c.vehicleRepo.GetAll(ctx, c.db.SQL)
	if err != nil {
		return nil, log.Err("failed to list vehicles", err)
	}

	return vehicles, nil
}

func (c *VehicleController) CreateVehicle(
	ctx context.Context,
	user *User,
	request *VehicleRequest,
) (*Vehicle, error) {
	log := c.log.Function("CreateVehicle")

	vehicle, err := c.buildVehicle(request)
	if err != nil {
		return nil, err
	}
	vehicle.UserID = user.ID
	vehicle.Status = VehicleStatusActive

	if err := c.vehicleRepo.Create(ctx, c.db.SQL, vehicle); err != nil {
		return nil, log.Err("failed to create vehicle", err, "userID", user.ID)
	}

	log.Info("Vehicle registered", "vehicleID", vehicle.ID, "userID", user.ID)
	return vehicle, nil
}

func (c *VehicleController) UpdateVehicle(
	ctx context.Context,
	user *User,
	id int,
	request *VehicleRequest,
) (*Vehicle, error) {
	log := c.log.Function("UpdateVehicle")

	existing, err := c.ownedVehicle(ctx, user, id)
	if err != nil {
		return nil, err
	}

	vehicle, err := c.buildVehicle(request)
	if err != nil {
		return nil, err
	}
	if request.RegistrationDate == "" {
		vehicle.RegistrationDate = existing.RegistrationDate
	}
	vehicle.ID = existing.ID
	vehicle.UserID = existing.UserID
	vehicle.Status = existing.Status
	vehicle.CreatedAt = existing.CreatedAt

	if err := c.vehicleRepo.Update(ctx, c.db.SQL, vehicle); err != nil {
		return nil, log.Err("failed to update vehicle", err, "vehicleID", id)
	}

	return vehicle, nil
}

// DeleteVehicle removes a vehicle and its odometer history. Vehicles with
// maintenance requests are kept.
func (c *VehicleController) DeleteVehicle(ctx context.Context, user *User, id int) error {
	log := c.log.Function("DeleteVehicle")

	if _, err := c.ownedVehicle(ctx, user, id); err != nil {
		return err
	}

	requests, err := c.vehicleRepo.CountRequests(ctx, c.db.SQL, id)
	if err != nil {
		return log.Err("failed to count vehicle requests", err, "vehicleID", id)
	}
	if requests > 0 {
		return types.InUse("vehicle %d has %d maintenance requests", id, requests)
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.odometerRepo.DeleteByVehicle(ctx, tx, id); err != nil {
			return err
		}
		return c.vehicleRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return log.Err("failed to delete vehicle", err, "vehicleID", id)
	}

	log.Info("Vehicle deleted", "vehicleID", id, "userID", user.ID)
	return nil
}

func (c *VehicleController) ChangeVehicleStatus(
	ctx context.Context,
	id int,
	request *StatusRequest,
) (*Vehicle, error) {
	log := c.log.Function("ChangeVehicleStatus")

	if request == nil {
		return nil, errors.NotValidf("empty status")
	}

	status, ok := ParseVehicleStatus(request.Status)
	if !ok {
		return nil, errors.NotValidf("vehicle status %q", request.Status)
	}

	if err := c.vehicleRepo.UpdateStatus(ctx, c.db.SQL, id, status); err != nil {
		return nil, log.Err("failed to change vehicle status", err, "vehicleID", id, "status", status)
	}

	return c.vehicleRepo.GetByID(ctx, c.db.SQL, id)
}

// ownedVehicle hides vehicles of other users behind NotFound.
func (c *VehicleController) ownedVehicle(ctx context.Context, user *User, id int) (*Vehicle, error) {
	vehicle, err := c.vehicleRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}
	if !vehicle.IsOwnedBy(user) {
		return nil, errors.NotFoundf("vehicle %d", id)
	}
	return vehicle, nil
}

func (c *VehicleController) buildVehicle(request *VehicleRequest) (*Vehicle, error) {
	if request == nil {
		return nil, errors.NotValidf("empty vehicle")
	}

	vehicleType := utils.CleanText(request.VehicleType)
	plate := utils.NormalizePlate(request.LicensePlateNumber)
	maxYear := c.clock.Now().Year() + 1

	switch {
	case vehicleType == "":
		return nil, errors.NotValidf("empty vehicle type")
	case len(vehicleType) > MaxVehicleTypeLength:
		return nil, errors.NotValidf("vehicle type longer than %d characters", MaxVehicleTypeLength)
	case plate == "":
		return nil, errors.NotValidf("empty licence plate")
	case len(plate) > MaxLicensePlateLength:
		return nil, errors.NotValidf("licence plate longer than %d characters", MaxLicensePlateLength)
	case request.ManufactureYear < MinManufactureYear || request.ManufactureYear > maxYear:
		return nil, errors.NotValidf(
			"manufacture year %d outside %d-%d",
			request.ManufactureYear,
			MinManufactureYear,
			maxYear,
		)
	}

	registrationDate := c.clock.Now().UTC()
	if request.RegistrationDate != "" {
		parsed := utils.NewDateValidator().ValidateAndConvert(request.RegistrationDate)
		if !parsed.IsValid {
			return nil, errors.NotValidf("registration date %q", request.RegistrationDate)
		}
		registrationDate = parsed.ParsedTime.UTC()
	}

	return &Vehicle{
		VehicleType:        vehicleType,
		LicensePlateNumber: plate,
		ManufactureYear:    request.ManufactureYear,
		RegistrationDate:   registrationDate,
	}, nil
}

