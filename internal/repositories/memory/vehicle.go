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

type vehicleRepository struct {
	store *Store
}

func (r *vehicleRepository) GetByID(_ context.Context, _ *gorm.DB, id int) (*Vehicle, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	vehicle := r.store.vehicleWithOwner(id)
	if vehicle == nil {
		return nil, errors.NotFoundf("vehicle %d", id)
	}
	return vehicle, nil
}

func (r *vehicleRepository) GetUserVehicles(_ context.Context, _ *gorm.DB, userID int) ([]*Vehicle, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	vehicles := []*Vehicle{}
	for _, vehicle := range r.store.tables.vehicles {
		if vehicle.UserID == userID {
			vehicles = append(vehicles, &vehicle)
		}
	}

	slices.SortFunc(vehicles, func(a, b *Vehicle) int {
		return cmp.Or(
			b.RegistrationDate.Compare(a.RegistrationDate),
			cmp.Compare(b.ID, a.ID),
		)
	})

	return vehicles, nil
}

func (r *vehicleRepository) GetAll(_ context.Context, _ *gorm.DB) ([]*Vehicle, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	vehicles := make([]*Vehicle, 0, len(r.store.tables.vehicles))
	for id := range r.store.tables.vehicles {
		vehicles = append(vehicles, r.store.vehicleWithOwner(id))
	}

	slices.SortFunc(vehicles, func(a, b *Vehicle) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return vehicles, nil
}

func (r *vehicleRepository) Create(ctx context.Context, _ *gorm.DB, vehicle *Vehicle) error {
	if err := vehicle.BeforeCreate(nil); err != nil {
		return err
	}

	unlock := r.store.lockForWrite(ctx)
	defer unlock()

	if _, ok := r.store.tables.users[vehicle.UserID]; !ok {
		return errors.NotFoundf("record referenced by licence plate")
	}
	if r.plateTaken(vehicle.LicensePlateNumber, 0) {
		return errors.AlreadyExistsf("licence plate")
	}

	vehicle.ID = 0
	r.store.stamp(&vehicle.BaseModel)

	stored := *vehicle
	stored.User = nil
	r.store.tables.vehicles[stored.ID] = stored
	return nil
}

func (r *vehicleRepository) Update(ctx context.Context, _ *gorm.DB, vehicle *Vehicle) error {
	unlock := r.store.lockForWrite(ctx)
	defer unlock()

	stored, ok := r.store.tables.vehicles[vehicle.ID]
	if !ok {
		return errors.NotFoundf("vehicle %d", vehicle.ID)
	}
	if r.plateTaken(vehicle.LicensePlateNumber, vehicle.ID) {
		return errors.AlreadyExistsf("licence plate")
	}

	stored.VehicleType = vehicle.VehicleType
	stored.LicensePlateNumber = vehicle.LicensePlateNumber
	stored.ManufactureYear = vehicle.ManufactureYear
	stored.RegistrationDate = vehicle.RegistrationDate
	r.store.stamp(&stored.BaseModel)
	r.store.tables.vehicles[stored.ID] = stored
	return nil
}

func (r *vehicleRepository) UpdateStatus(
	ctx context.Context,
	_ *gorm.DB,
	id int,
	status VehicleStatus,
) error {
	unlock := r.store.lockForWrite(ctx)
	defer unlock()

	stored, ok := r.store.tables.vehicles[id]
	if !ok {
		return errors.NotFoundf("vehicle %d", id)
	}

	stored.Status = status
	r.store.stamp(&stored.BaseModel)
	r.store.tables.vehicles[id] = stored
	return nil
}

// Delete cascades to odometer readings and refuses vehicles that still have
// maintenance requests, mirroring the foreign keys of the SQL schema.
func (r *vehicleRepository) Delete(ctx context.Context, _ *gorm.DB, id int) error {
	unlock := r.store.lockForWrite(ctx)
	defer unlock()

	if _, ok := r.store.tables.vehicles[id]; !ok {
		return errors.NotFoundf("vehicle %d", id)
	}
	if r.countRequests(id) > 0 {
		return types.InUse("vehicle is referenced by other records")
	}

	for readingID, reading := range r.store.tables.readings {
		if reading.VehicleID == id {
			delete(r.store.tables.readings, readingID)
		}
	}
	delete(r.store.tables.vehicles, id)
	return nil
}

func (r *vehicleRepository) CountRequests(_ context.Context, _ *gorm.DB, id int) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.countRequests(id), nil
}

func (r *vehicleRepository) countRequests(id int) int64 {
	var count int64
	for _, request := range r.store.tables.requests {
		if request.VehicleID == id {
			count++
		}
	}
	return count
}

func (r *vehicleRepository) plateTaken(plate string, exceptID int) bool {
	for _, vehicle := range r.store.tables.vehicles {
		if vehicle.LicensePlateNumber == plate && vehicle.ID != exceptID {
			return true
		}
	}
	return false
}
