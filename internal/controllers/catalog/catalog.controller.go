package catalogController

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
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
)

const MaxServiceNameLength = 200

type CatalogController struct {
	serviceRepo   repositories.MaintenanceServiceRepository
	db            database.DB
	Config        config.Config
	rejectOverlap bool
	log           logger.Logger
}

type ServiceRequest struct {
	ServiceName     string          `json:"serviceName"`
	ServiceCost     decimal.Decimal `json:"serviceCost"`
	MinimumOdometer int64           `json:"minimumOdometer"`
	MaximumOdometer int64           `json:"maximumOdometer"`
}

type CatalogControllerInterface interface {
	AddService(ctx context.Context, request *ServiceRequest) (*MaintenanceService, error)
	ListServices(ctx context.Context) ([]*MaintenanceService, error)
	GetService(ctx context.Context, id int) (*MaintenanceService, error)
	UpdateService(ctx context.Context, id int, request *ServiceRequest) (*MaintenanceService, error)
	DeleteService(ctx context.Context, id int) error
	RecommendServices(ctx context.Context, reading int64) ([]*MaintenanceService, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) CatalogControllerInterface {
	return &CatalogController{
		serviceRepo:   repos.MaintenanceService,
		db:            db,
		Config:        config,
		rejectOverlap: config.CatalogRejectOverlap,
		log:           logger.New("catalogController"),
	}
}

func (c *CatalogController) AddService(
	ctx context.Context,
	request *ServiceRequest,
) (*MaintenanceService, error) {
	log := c.log.Function("AddService")

	service, err := c.validate(ctx, 0, request)
	if err != nil {
		return nil, err
	}

	if err := c.serviceRepo.Create(ctx, c.db.SQL, service); err != nil {
		return nil, log.Err("failed to add maintenance service", err, "name", service.ServiceName)
	}

	log.Info("Maintenance service added", "serviceID", service.ID, "name", service.ServiceName)
	return service, nil
}

func (c *CatalogController) ListServices(ctx context.Context) ([]*MaintenanceService, error) {
	log := c.log.Function("ListServices")

	services, err := c.serviceRepo.GetAll(ctx, c.db.SQL)
	if err != nil {
		return nil, log.Err("failed to list maintenance services", err)
	}

	return services, nil
}

func (c *CatalogController) GetService(ctx context.Context, id int) (*MaintenanceService, error) {
	return c.serviceRepo.GetByID(ctx, c.db.SQL, id)
}

func (c *CatalogController) UpdateService(
	ctx context.Context,
	id int,
	request *ServiceRequest,
) (*MaintenanceService, error) {
	log := c.log.Function("UpdateService")

	if _, err := c.serviceRepo.GetByID(ctx, c.db.SQL, id); err != nil {
		return nil, err
	}

	service, err := c.validate(ctx, id, request)
	if err != nil {
		return nil, err
	}
	service.ID = id

	if err := c.serviceRepo.Update(ctx, c.db.SQL, service); err != nil {
		return nil, log.Err("failed to update maintenance service", err, "serviceID", id)
	}

	return service, nil
}

// DeleteService refuses services that maintenance requests still reference.
// The storage foreign key covers a request created between the check and
// the delete.
func (c *CatalogController) DeleteService(ctx context.Context, id int) error {
	log := c.log.Function("DeleteService")

	if _, err := c.serviceRepo.GetByID(ctx, c.db.SQL, id); err != nil {
		return err
	}

	references, err := c.serviceRepo.CountReferences(ctx, c.db.SQL, id)
	if err != nil {
		return log.Err("failed to count service references", err, "serviceID", id)
	}
	if references > 0 {
		return types.InUse("maintenance service %d is used by %d maintenance requests", id, references)
	}

	if err := c.serviceRepo.Delete(ctx, c.db.SQL, id); err != nil {
		return log.Err("failed to delete maintenance service", err, "serviceID", id)
	}

	log.Info("Maintenance service deleted", "serviceID", id)
	return nil
}

// RecommendServices returns the services whose odometer range contains
// reading, in catalog order.
func (c *CatalogController) RecommendServices(
	ctx context.Context,
	reading int64,
) ([]*MaintenanceService, error) {
	if reading < 0 {
		return nil, errors.NotValidf("negative odometer reading")
	}

	services, err := c.ListServices(ctx)
	if err != nil {
		return nil, err
	}

	return ServicesForReading(services, reading), nil
}

// validate checks the request against the catalog rules. exceptID is the
// service being updated, zero when adding.
func (c *CatalogController) validate(
	ctx context.Context,
	exceptID int,
	request *ServiceRequest,
) (*MaintenanceService, error) {
	if request == nil {
		return nil, errors.NotValidf("empty service")
	}

	name := utils.CleanText(request.ServiceName)
	cost := request.ServiceCost.Round(2)
	switch {
	case name == "":
		return nil, errors.NotValidf("empty service name")
	case len(name) > MaxServiceNameLength:
		return nil, errors.NotValidf("service name longer than %d characters", MaxServiceNameLength)
	case !cost.IsPositive():
		return nil, errors.NotValidf("service cost %s", request.ServiceCost)
	case request.MinimumOdometer < 0:
		return nil, errors.NotValidf("negative minimum odometer")
	case request.MinimumOdometer > request.MaximumOdometer:
		return nil, errors.NotValidf("minimum odometer above maximum odometer")
	}

	existing, err := c.serviceRepo.FindByNameKey(ctx, c.db.SQL, ServiceNameKey(name))
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != exceptID {
		return nil, errors.AlreadyExistsf("maintenance service %q", name)
	}

	service := &MaintenanceService{
		ServiceName:     name,
		ServiceCost:     cost,
		MinimumOdometer: request.MinimumOdometer,
		MaximumOdometer: request.MaximumOdometer,
	}

	if c.rejectOverlap {
		if err := c.checkOverlap(ctx, exceptID, service.Range()); err != nil {
			return nil, err
		}
	}

	return service, nil
}

func (c *CatalogController) checkOverlap(ctx context.Context, exceptID int, odometerRange OdometerRange) error {
	services, err := c.serviceRepo.GetAll(ctx, c.db.SQL)
	if err != nil {
		return err
	}

	for _, service := range services {
		if service.ID != exceptID && service.Range().Overlaps(odometerRange) {
			return errors.NotValidf(
				"odometer range %d-%d overlaps %q",
				odometerRange.Min,
				odometerRange.Max,
				service.ServiceName,
			)
		}
	}

	return nil
}
