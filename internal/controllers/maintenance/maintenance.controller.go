package maintenanceController

import (
	"context"
	"time"
	"unicode/utf8"
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
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const MaxAdminNotesLength = 2000

type MaintenanceController struct {
	requestRepo        repositories.MaintenanceRequestRepository
	vehicleRepo        repositories.VehicleRepository
	serviceRepo        repositories.MaintenanceServiceRepository
	transactionService services.Transactor
	clock              clock.Clock
	db                 database.DB
	Config             config.Config
	log                logger.Logger
}

type CreateRequest struct {
	VehicleID int   `json:"vehicleId"`
	ServiceID int   `json:"serviceId"`
	Reading   int64 `json:"reading"`
}

type StatusRequest struct {
	Status         string  `json:"status"`
	CompletionDate *string `json:"completionDate,omitempty"`
}

type CompletionDateRequest struct {
	CompletionDate string `json:"completionDate"`
}

type CompletionDateResponse struct {
	RequestID int    `json:"requestId"`
	Date      string `json:"date"`
}

type AdminNotesRequest struct {
	AdminNotes string `json:"adminNotes"`
}

type RequestServiceView struct {
	ServiceID   int             `json:"serviceId"`
	ServiceName string          `json:"serviceName"`
	ServiceCost decimal.Decimal `json:"serviceCost"`
}

// RequestView is the response shape of a maintenance request. Completion
// dates are rendered as YYYY-MM-DD.
type RequestView struct {
	ID                 int                  `json:"id"`
	VehicleID          int                  `json:"vehicleId"`
	VehicleType        string               `json:"vehicleType"`
	LicensePlateNumber string               `json:"licensePlateNumber"`
	Owner              *UserProfile         `json:"owner,omitempty"`
	RequestDate        time.Time            `json:"requestDate"`
	OdometerReading    int64                `json:"odometerReading"`
	Status             RequestStatus        `json:"status"`
	NextStatuses       []RequestStatus      `json:"nextStatuses"`
	CompletionDate     *string              `json:"completionDate"`
	AdminNotes         *string              `json:"adminNotes"`
	Services           []RequestServiceView `json:"services"`
	TotalCost          decimal.Decimal      `json:"totalCost"`
}

// RequestGroup collects the requests made for one vehicle on one calendar
// day.
type RequestGroup struct {
	VehicleID          int             `json:"vehicleId"`
	VehicleType        string          `json:"vehicleType"`
	LicensePlateNumber string          `json:"licensePlateNumber"`
	Owner              *UserProfile    `json:"owner,omitempty"`
	RequestDate        string          `json:"requestDate"`
	Requests           []RequestView   `json:"requests"`
	TotalCost          decimal.Decimal `json:"totalCost"`
}

type MaintenanceControllerInterface interface {
	CreateRequest(ctx context.Context, user *User, request *CreateRequest) (*RequestView, error)
	ListUserRequests(ctx context.Context, user *User) ([]RequestView, error)
	ListAllRequests(ctx context.Context) ([]RequestView, error)
	GroupRequests(ctx context.Context) ([]RequestGroup, error)
	SetStatus(ctx context.Context, id int, request *StatusRequest) (*RequestView, error)
	SetCompletionDate(
		ctx context.Context,
		id int,
		request *CompletionDateRequest,
	) (*CompletionDateResponse, error)
	SetAdminNotes(ctx context.Context, id int, request *AdminNotesRequest) (*RequestView, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) MaintenanceControllerInterface {
	return &MaintenanceController{
		requestRepo:        repos.MaintenanceRequest,
		vehicleRepo:        repos.Vehicle,
		serviceRepo:        repos.MaintenanceService,
		transactionService: services.Transaction,
		clock:              services.Clock,
		db:                 db,
		Config:             config,
		log:                logger.New("maintenanceController"),
	}
}

// CreateRequest opens a pending request for one of the user's vehicles and
// puts the vehicle under maintenance in the same transaction. The service
// name and cost are copied onto the request.
func (c *MaintenanceController) CreateRequest(
	ctx context.Context,
	user *User,
	request *CreateRequest,
) (*RequestView, error) {
	log := c.log.Function("CreateRequest")

	if request == nil {
		return nil, errors.NotValidf("empty maintenance request")
	}
	if request.Reading < 0 {
		return nil, errors.NotValidf("negative odometer reading")
	}

	vehicle, err := c.vehicleRepo.GetByID(ctx, c.db.SQL, request.VehicleID)
	if err != nil {
		return nil, err
	}
	if !vehicle.IsOwnedBy(user) {
		return nil, errors.NotFoundf("vehicle %d", request.VehicleID)
	}

	service, err := c.serviceRepo.GetByID(ctx, c.db.SQL, request.ServiceID)
	if err != nil {
		return nil, err
	}

	maintenanceRequest := &MaintenanceRequest{
		VehicleID:       vehicle.ID,
		RequestDate:     c.clock.Now().UTC(),
		OdometerReading: request.Reading,
		Status:          RequestStatusPending,
		Services: []MaintenanceRequestService{{
			ServiceID:   service.ID,
			ServiceName: service.ServiceName,
			ServiceCost: service.ServiceCost,
		}},
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.requestRepo.Create(ctx, tx, maintenanceRequest); err != nil {
			return err
		}
		return c.vehicleRepo.UpdateStatus(ctx, tx, vehicle.ID, VehicleStatusUnderMaintenance)
	})
	if err != nil {
		return nil, log.Err(
			"failed to create maintenance request",
			err,
			"vehicleID", vehicle.ID,
			"serviceID", service.ID,
		)
	}

	log.Info(
		"Maintenance request created",
		"requestID", maintenanceRequest.ID,
		"vehicleID", vehicle.ID,
		"serviceID", service.ID,
	)

	vehicle.Status = VehicleStatusUnderMaintenance
	maintenanceRequest.Vehicle = vehicle
	view := NewRequestView(maintenanceRequest)
	return &view, nil
}

func (c *MaintenanceController) ListUserRequests(ctx context.Context, user *User) ([]RequestView, error) {
	log := c.log.Function("ListUserRequests")

	requests, err := c.requestRepo.GetUserRequests(ctx, c.db.SQL, user.ID)
	if err != nil {
		return nil, log.Err("failed to list user maintenance requests", err, "userID", user.ID)
	}

	return NewRequestViews(requests), nil
}

func (c *MaintenanceController) ListAllRequests(ctx context.Context) ([]RequestView, error) {
	log := c.log.Function("ListAllRequests")

	requests, err := c.requestRepo.GetAll(ctx, c.db.SQL)
	if err != nil {
		return nil, log.Err("failed to list maintenance requests", err)
	}

	return NewRequestViews(requests), nil
}

func (c *MaintenanceController) GroupRequests(ctx context.Context) ([]RequestGroup, error) {
	requests, err := c.ListAllRequests(ctx)
	if err != nil {
		return nil, err
	}

	return GroupByVehicleAndDay(requests), nil
}

// SetStatus moves a request along the workflow. The update only applies if
// the request is still in the status that was read, so two admins cannot
// both move it from the same state.
func (c *MaintenanceController) SetStatus(
	ctx context.Context,
	id int,
	request *StatusRequest,
) (*RequestView, error) {
	log := c.log.Function("SetStatus")

	if request == nil {
		return nil, errors.NotValidf("empty status")
	}

	next, err := ParseRequestStatus(request.Status)
	if err != nil {
		return nil, err
	}

	var completionDate *datatypes.Date
	if request.CompletionDate != nil && *request.CompletionDate != "" {
		if next != RequestStatusCompleted {
			return nil, errors.NotValidf("completion date for status %s", next)
		}
		date, err := utils.ParseCalendarDate(*request.CompletionDate)
		if err != nil {
			return nil, err
		}
		completionDate = &date
	}

	current, err := c.requestRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}

	if current.Status.IsTerminal() {
		return nil, types.InvalidTransition("request %d is %s and can no longer change", id, current.Status)
	}
	if !CanTransition(current.Status, next) {
		return nil, types.InvalidTransition("cannot move request %d from %s to %s", id, current.Status, next)
	}

	if next == RequestStatusCompleted && completionDate == nil && current.CompletionDate == nil {
		return nil, errors.NotValidf("completing request %d without a completion date", id)
	}

	updated, err := c.requestRepo.CompareAndSetStatus(ctx, c.db.SQL, id, current.Status, next, completionDate)
	if err != nil {
		return nil, log.Err("failed to set maintenance request status", err, "requestID", id)
	}
	if !updated {
		return nil, types.InvalidTransition("request %d is no longer %s", id, current.Status)
	}

	log.Info("Maintenance request status changed", "requestID", id, "from", current.Status, "to", next)

	return c.getView(ctx, id)
}

// SetCompletionDate records the completion day of a request that is in
// progress.
func (c *MaintenanceController) SetCompletionDate(
	ctx context.Context,
	id int,
	request *CompletionDateRequest,
) (*CompletionDateResponse, error) {
	log := c.log.Function("SetCompletionDate")

	if request == nil || request.CompletionDate == "" {
		return nil, errors.NotValidf("empty completion date")
	}

	date, err := utils.ParseCalendarDate(request.CompletionDate)
	if err != nil {
		return nil, err
	}

	current, err := c.requestRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}
	if current.Status != RequestStatusInProgress {
		return nil, types.InvalidTransition("request %d is %s, not in progress", id, current.Status)
	}

	updated, err := c.requestRepo.SetCompletionDate(ctx, c.db.SQL, id, RequestStatusInProgress, date)
	if err != nil {
		return nil, log.Err("failed to set completion date", err, "requestID", id)
	}
	if !updated {
		return nil, types.InvalidTransition("request %d is no longer in progress", id)
	}

	return &CompletionDateResponse{
		RequestID: id,
		Date:      utils.FormatCalendarDate(date),
	}, nil
}

func (c *MaintenanceController) SetAdminNotes(
	ctx context.Context,
	id int,
	request *AdminNotesRequest,
) (*RequestView, error) {
	log := c.log.Function("SetAdminNotes")

	if request == nil {
		return nil, errors.NotValidf("empty admin notes")
	}

	notes, _ := utils.CleanUTF8(request.AdminNotes)
	if utf8.RuneCountInString(notes) > MaxAdminNotesLength {
		return nil, errors.NotValidf("admin notes longer than %d characters", MaxAdminNotesLength)
	}

	if err := c.requestRepo.SetAdminNotes(ctx, c.db.SQL, id, notes); err != nil {
		return nil, log.Err("failed to set admin notes", err, "requestID", id)
	}

	return c.getView(ctx, id)
}

func (c *MaintenanceController) getView(ctx context.Context, id int) (*RequestView, error) {
	request, err := c.requestRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}
	view := NewRequestView(request)
	return &view, nil
}
