package repositories

import (
	"context"
	"vmtracker/internal/constants"
	"vmtracker/internal/database"
	. "vmtracker/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/juju/errors"
	"github.com/valkey-io/valkey-go"
	"gorm.io/gorm"
)

type MaintenanceServiceRepository interface {
	GetAll(ctx context.Context, tx *gorm.DB) ([]*MaintenanceService, error)
	GetByID(ctx context.Context, tx *gorm.DB, id int) (*MaintenanceService, error)
	FindByNameKey(ctx context.Context, tx *gorm.DB, nameKey string) (*MaintenanceService, error)
	Create(ctx context.Context, tx *gorm.DB, service *MaintenanceService) error
	Update(ctx context.Context, tx *gorm.DB, service *MaintenanceService) error
	Delete(ctx context.Context, tx *gorm.DB, id int) error
	CountReferences(ctx context.Context, tx *gorm.DB, id int) (int64, error)
}

type maintenanceServiceRepository struct {
	cache valkey.Client
	log   logger.Logger
}

func NewMaintenanceServiceRepository(cache valkey.Client) MaintenanceServiceRepository {
	return &maintenanceServiceRepository{
		cache: cache,
		log:   logger.New("maintenanceServiceRepository"),
	}
}

func (r *maintenanceServiceRepository) GetAll(
	ctx context.Context,
	tx *gorm.DB,
) ([]*MaintenanceService, error) {
	log := r.log.Function("GetAll")

	var cached []*MaintenanceService
	found, err := r.catalogCache(ctx).Get(&cached)
	if err != nil {
		log.Warn("failed to get catalog from cache", "error", err)
	}
	if found {
		return cached, nil
	}

	var services []*MaintenanceService
	if err := tx.WithContext(ctx).
		Order("minimum_odometer ASC, service_name ASC").
		Find(&services).Error; err != nil {
		return nil, log.Err("failed to get maintenance services", err)
	}

	err = r.catalogCache(ctx).
		WithStruct(services).
		WithTTL(constants.CatalogCacheExpiry).
		Set()
	if err != nil {
		log.Warn("failed to set catalog in cache", "error", err)
	}

	return services, nil
}

func (r *maintenanceServiceRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id int,
) (*MaintenanceService, error) {
	log := r.log.Function("GetByID")

	var service MaintenanceService
	if err := tx.WithContext(ctx).First(&service, id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, errors.NotFoundf("maintenance service %d", id)
		}
		return nil, log.Err("failed to get maintenance service", err, "id", id)
	}

	return &service, nil
}

// FindByNameKey returns nil without an error when no service uses the key.
func (r *maintenanceServiceRepository) FindByNameKey(
	ctx context.Context,
	tx *gorm.DB,
	nameKey string,
) (*MaintenanceService, error) {
	log := r.log.Function("FindByNameKey")

	var service MaintenanceService
	if err := tx.WithContext(ctx).Where("name_key = ?", nameKey).First(&service).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, nil
		}
		return nil, log.Err("failed to find maintenance service by name", err, "nameKey", nameKey)
	}

	return &service, nil
}

func (r *maintenanceServiceRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	service *MaintenanceService,
) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(service).Error; err != nil {
		return log.Err(
			"failed to create maintenance service",
			translateWriteError(err, "maintenance service name"),
			"name",
			service.ServiceName,
		)
	}

	r.clearCatalogCache(ctx)
	return nil
}

func (r *maintenanceServiceRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	service *MaintenanceService,
) error {
	log := r.log.Function("Update")

	result := tx.WithContext(ctx).
		Model(service).
		Select("ServiceName", "NameKey", "ServiceCost", "MinimumOdometer", "MaximumOdometer").
		Updates(service)
	if result.Error != nil {
		return log.Err(
			"failed to update maintenance service",
			translateWriteError(result.Error, "maintenance service name"),
			"id",
			service.ID,
		)
	}

	if result.RowsAffected == 0 {
		return errors.NotFoundf("maintenance service %d", service.ID)
	}

	r.clearCatalogCache(ctx)
	return nil
}

func (r *maintenanceServiceRepository) Delete(ctx context.Context, tx *gorm.DB, id int) error {
	log := r.log.Function("Delete")

	result := tx.WithContext(ctx).Delete(&MaintenanceService{}, id)
	if result.Error != nil {
		return log.Err(
			"failed to delete maintenance service",
			translateDeleteError(result.Error, "maintenance service"),
			"id",
			id,
		)
	}

	if result.RowsAffected == 0 {
		return errors.NotFoundf("maintenance service %d", id)
	}

	r.clearCatalogCache(ctx)
	return nil
}

func (r *maintenanceServiceRepository) CountReferences(
	ctx context.Context,
	tx *gorm.DB,
	id int,
) (int64, error) {
	log := r.log.Function("CountReferences")

	var count int64
	if err := tx.WithContext(ctx).
		Model(&MaintenanceRequestService{}).
		Where("service_id = ?", id).
		Count(&count).Error; err != nil {
		return 0, log.Err("failed to count maintenance service references", err, "id", id)
	}

	return count, nil
}

func (r *maintenanceServiceRepository) catalogCache(ctx context.Context) *database.CacheBuilder {
	return database.NewCacheBuilder(r.cache, constants.CatalogCacheKey).
		WithContext(ctx).
		WithHash(constants.CatalogCachePrefix)
}

func (r *maintenanceServiceRepository) clearCatalogCache(ctx context.Context) {
	if err := r.catalogCache(ctx).Delete(); err != nil {
		r.log.Function("clearCatalogCache").Warn("failed to clear catalog cache", "error", err)
	}
}
