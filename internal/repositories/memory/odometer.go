package memory

import (
	"cmp"
	"context"
	"slices"
	. "vmtracker/internal/models"

	"github.com/juju/errors"
	"gorm.io/gorm"
)

type odometerRepository struct {
	store *Store
}

func (r *odometerRepository) Create(ctx context.Context, _ *gorm.DB, reading *OdometerReading) error {
	if err := reading.BeforeCreate(nil); err != nil {
		return err
	}

	unlock := r.store.lockForWrite(ctx)
	defer unlock()

	if _, ok := r.store.tables.vehicles[reading.VehicleID]; !ok {
		return errors.NotFoundf("record referenced by odometer reading")
	}

	reading.ID = 0
	r.store.stamp(&reading.BaseModel)

	stored := *reading
	stored.Vehicle = nil
	r.store.tables.readings[stored.ID] = stored
	return nil
}

func (r *odometerRepository) GetLatest(_ context.Context, _ *gorm.DB, vehicleID int) (*OdometerReading, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var latest *OdometerReading
	for _, reading := range r.store.tables.readings {
		if reading.VehicleID != vehicleID {
			continue
		}
		if latest == nil || newestFirst(&reading, latest) < 0 {
			latest = &reading
		}
	}

	return latest, nil
}

func (r *odometerRepository) GetUserHistory(
	_ context.Context,
	_ *gorm.DB,
	userID int,
) ([]*OdometerReading, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	readings := []*OdometerReading{}
	for _, reading := range r.store.tables.readings {
		vehicle, ok := r.store.tables.vehicles[reading.VehicleID]
		if !ok || vehicle.UserID != userID {
			continue
		}
		reading.Vehicle = &vehicle
		readings = append(readings, &reading)
	}

	slices.SortFunc(readings, newestFirst)
	return readings, nil
}

func (r *odometerRepository) DeleteByVehicle(ctx context.Context, _ *gorm.DB, vehicleID int) error {
	unlock := r.store.lockForWrite(ctx)
	defer unlock()

	for id, reading := range r.store.tables.readings {
		if reading.VehicleID == vehicleID {
			delete(r.store.tables.readings, id)
		}
	}
	return nil
}

func newestFirst(a, b *OdometerReading) int {
	return cmp.Or(
		b.ReadingDate.Compare(a.ReadingDate),
		cmp.Compare(b.ID, a.ID),
	)
}
