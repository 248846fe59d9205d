package odometerController

import (
	"context"
	"time"
	"vmtracker/config"
	"vmtracker/internal/database"
	. "vmtracker/internal/models"
	"vmtracker/internal/repositories"
	"vmtracker/internal/services"
	"vmtracker/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"gorm.io/gorm"
)

type OdometerController struct {
	odometerRepo       repositories.OdometerRepository
	vehicleRepo        repositories.VehicleRepository
	serviceRepo        repositories.MaintenanceServiceRepository
	transactionService services.Transactor
	clock              clock.Clock
	db                 database.DB
	Config             config.Config
	log                logger.Logger
}

type SubmitReadingRequest struct {
	VehicleID   int    `json:"vehicleId"`
	Reading     int64  `json:"reading"`
	ReadingDate string `json:"readingDate,omitempty"`
}

type SubmitReadingResponse struct {
	Reading             *OdometerReading      `json:"reading"`
	RecommendedServices []*MaintenanceService `json:"recommendedServices"`
}

type HistoryEntry struct {
	ID                 int       `json:"id"`
	VehicleID          int       `json:"vehicleId"`
	VehicleType        string    `json:"vehicleType"`
	LicensePlateNumber string    `json:"licensePlateNumber"`
	Reading            int64     `json:"reading"`
	ReadingDate        time.Time `json:"readingDate"`
}

type OdometerControllerInterface interface {
	SubmitReading(
		ctx context.Context,
		user *User,
		request *SubmitReadingRequest,
	) (*SubmitReadingResponse, error)
	GetHistory(ctx context.Context, user *User) ([]HistoryEntry, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) OdometerControllerInterface {
	return &OdometerController{
		odometerRepo:       repos.Odometer,
		vehicleRepo:        repos.Vehicle,
		serviceRepo:        repos.MaintenanceService,
		transactionService: services.Transaction,
		clock:              services.Clock,
		db:                 db,
		Config:             config,
		log:                logger.New("odometerController"),
	}
}

// SubmitReading records a reading for one of the user's vehicles. Readings
// only move forward: the new value must be above the latest stored one and
// its date can be neither in the future nor on a day before the latest one.
func (c *OdometerController) SubmitReading(
	ctx context.Context,
	user *User,
	request *SubmitReadingRequest,
) (*SubmitReadingResponse, error) {
	log := c.log.Function("SubmitReading")

	if request == nil {
		return nil, errors.NotValidf("empty odometer reading")
	}
	if request.Reading < 0 {
		return nil, errors.NotValidf("negative odometer reading")
	}

	now := c.clock.Now().UTC()
	readingDate := now
	if request.ReadingDate != "" {
		parsed := utils.NewDateValidator().ValidateAndConvert(request.ReadingDate)
		if !parsed.IsValid {
			return nil, errors.NotValidf("reading date %q", request.ReadingDate)
		}
		readingDate = parsed.ParsedTime.UTC()
	}
	if readingDate.After(now) {
		return nil, errors.NotValidf("reading date %s in the future", readingDate.Format(time.DateOnly))
	}

	vehicle, err := c.vehicleRepo.GetByID(ctx, c.db.SQL, request.VehicleID)
	if err != nil {
		return nil, err
	}
	if !vehicle.IsOwnedBy(user) {
		return nil, errors.NotFoundf("vehicle %d", request.VehicleID)
	}

	reading := &OdometerReading{
		VehicleID:   vehicle.ID,
		Reading:     request.Reading,
		ReadingDate: readingDate,
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		latest, err := c.odometerRepo.GetLatest(ctx, tx, vehicle.ID)
		if err != nil {
			return err
		}
		if latest != nil && request.Reading <= latest.Reading {
			return errors.NotValidf(
				"odometer reading %d, latest reading is %d",
				request.Reading,
				latest.Reading,
			)
		}
		if latest != nil && reading.ReadingDate.Before(latest.ReadingDate) {
			if startOfDay(reading.ReadingDate).Before(startOfDay(latest.ReadingDate)) {
				return errors.NotValidf(
					"reading date %s, latest reading is from %s",
					reading.ReadingDate.Format(time.DateOnly),
					latest.ReadingDate.UTC().Format(time.DateOnly),
				)
			}
			// Same day: keep it ordered after the latest reading.
			reading.ReadingDate = latest.ReadingDate
		}
		return c.odometerRepo.Create(ctx, tx, reading)
	})
	if err != nil {
		return nil, log.Err("failed to submit odometer reading", err, "vehicleID", vehicle.ID)
	}

	catalog, err := c.serviceRepo.GetAll(ctx, c.db.SQL)
	if err != nil {
		return nil, log.Err("failed to load maintenance services", err)
	}

	return &SubmitReadingResponse{
		Reading:             reading,
		RecommendedServices: ServicesForReading(catalog, reading.Reading),
	}, nil
}

func (c *OdometerController) GetHistory(ctx context.Context, user *User) ([]HistoryEntry, error) {
	log := c.log.Function("GetHistory")

	readings, err := c.odometerRepo.GetUserHistory(ctx, c.db.SQL, user.ID)
	if err != nil {
		return nil, log.Err("failed to get odometer history", err, "userID", user.ID)
	}

	history := make([]HistoryEntry, 0, len(readings))
	for _, reading := range readings {
		entry := HistoryEntry{
			ID:          reading.ID,
			VehicleID:   reading.VehicleID,
			Reading:     reading.Reading,
			ReadingDate: reading.ReadingDate,
		}
		if reading.Vehicle != nil {
			entry.VehicleType = reading.Vehicle.VehicleType
			entry.LicensePlateNumber = reading.Vehicle.LicensePlateNumber
		}
		history = append(history, entry)
	}

	return history, nil
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
