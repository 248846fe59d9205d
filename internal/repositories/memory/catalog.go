package memory

import (
	"cmp"
	"context"
	"slices"
	. "vmtracker/internal/models"
	"vmtracker/internal/types"

	"github.com/juju/errors"
	"gorm.io/gorm"
)

type maintenanceServiceRepository struct {
	store *Store
}

func (r *maintenanceServiceRepository) GetAll(_ context.Context, _ *gorm.DB) ([]*MaintenanceService, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	services := make([]*MaintenanceService, 0, len(r.store.tables.services))
	for _, service := range r.store.tables.services {
		services = append(services, &service)
	}

	slices.SortFunc(services, func(a, b *MaintenanceService) int {
		return cmp.Or(
			cmp.Compare(a.MinimumOdometer, b.MinimumOdometer),
			cmp.Compare(a.ServiceName, b.ServiceName),
			cmp.Compare(a.ID, b.ID),
		)
	})

	return services, nil
}

func (r *maintenanceServiceRepository) GetByID(
	_ context.Context,
	_ *gorm.DB,
	id int,
) (*MaintenanceService, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	service, ok := r.store.tables.services[id]
	if !ok {
		return nil, errors.NotFoundf("maintenance service %d", id)
	}
	return &service, nil
}

func (r *maintenanceServiceRepository) FindByNameKey(
	_ context.Context,
	_ *gorm.DB,
	nameKey string,
) (*MaintenanceService, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.findByNameKey(nameKey, 0), nil
}

func (r *maintenanceServiceRepository) Create(
	ctx context.Context,
	_ *gorm.DB,
	service *MaintenanceService,
) error {
	if err := service.BeforeSave(nil); err != nil {
		return err
	}

	unlock := r.store.lockForWrite(ctx)
	defer unlock()

	if r.findByNameKey(service.NameKey, 0) != nil {
		return errors.AlreadyExistsf("maintenance service name")
	}

	service.ID = 0
	r.store.stamp(&service.BaseModel)
	r.store.tables.services[service.ID] = *service
	return nil
}

func (r *maintenanceServiceRepository) Update(
	ctx context.Context,
	_ *gorm.DB,
	service *MaintenanceService,
) error {
	if err := service.BeforeSave(nil); err != nil {
		return err
	}

	unlock := r.store.lockForWrite(ctx)
	defer unlock()

	stored, ok := r.store.tables.services[service.ID]
	if !ok {
		return errors.NotFoundf("maintenance service %d", service.ID)
	}

	if r.findByNameKey(service.NameKey, service.ID) != nil {
		return errors.AlreadyExistsf("maintenance service name")
	}

	stored.ServiceName = service.ServiceName
	stored.NameKey = service.NameKey
	stored.ServiceCost = service.ServiceCost
	stored.MinimumOdometer = service.MinimumOdometer
	stored.MaximumOdometer = service.MaximumOdometer
	r.store.stamp(&stored.BaseModel)
	r.store.tables.services[stored.ID] = stored

	*service = stored
	return nil
}

func (r *maintenanceServiceRepository) Delete(ctx context.Context, _ *gorm.DB, id int) error {
	unlock := r.store.lockForWrite(ctx)
	defer unlock()

	if _, ok := r.store.tables.services[id]; !ok {
		return errors.NotFoundf("maintenance service %d", id)
	}

	if r.countReferences(id) > 0 {
		return types.InUse("maintenance service is referenced by other records")
	}

	delete(r.store.tables.services, id)
	return nil
}

func (r *maintenanceServiceRepository) CountReferences(
	_ context.Context,
	_ *gorm.DB,
	id int,
) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.countReferences(id), nil
}

func (r *maintenanceServiceRepository) countReferences(id int) int64 {
	var count int64
	for _, link := range r.store.tables.requestServices {
		if link.ServiceID == id {
			count++
		}
	}
	return count
}

// findByNameKey skips the row with exceptID so updates can keep their name.
func (r *maintenanceServiceRepository) findByNameKey(nameKey string, exceptID int) *MaintenanceService {
	for _, service := range r.store.tables.services {
		if service.NameKey == nameKey && service.ID != exceptID {
			return &service
		}
	}
	return nil
}
