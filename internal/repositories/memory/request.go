package memory

import (
	"cmp"
	"context"
	"slices"
	. "vmtracker/internal/models"

	"github.com/juju/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type maintenanceRequestRepository struct {
	store *Store
}

func (r *maintenanceRequestRepository) Create(ctx context.Context, _ *gorm.DB, request *MaintenanceRequest) error {
	if err := request.BeforeCreate(nil); err != nil {
		return err
	}
	for i := range request.Services {
		if err := request.Services[i].BeforeCreate(nil); err != nil {
			return err
		}
	}

	unlock := r.store.lockForWrite(ctx)
	defer unlock()

	if _, ok := r.store.tables.vehicles[request.VehicleID]; !ok {
		return errors.NotFoundf("record referenced by maintenance request")
	}
	for _, link := range request.Services {
		if _, ok := r.store.tables.services[link.ServiceID]; !ok {
			return errors.NotFoundf("record referenced by maintenance request")
		}
	}

	request.ID = 0
	r.store.stamp(&request.BaseModel)

	for i := range request.Services {
		link := &request.Services[i]
		link.ID = 0
		link.RequestID = request.ID
		r.store.stamp(&link.BaseModel)

		stored := *link
		stored.Service = nil
		r.store.tables.requestServices[stored.ID] = stored
	}

	stored := *request
	stored.Vehicle = nil
	stored.Services = nil
	r.store.tables.requests[stored.ID] = stored
	return nil
}

func (r *maintenanceRequestRepository) GetByID(_ context.Context, _ *gorm.DB, id int) (*MaintenanceRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if _, ok := r.store.tables.requests[id]; !ok {
		return nil, errors.NotFoundf("maintenance request %d", id)
	}
	return r.withDetails(id), nil
}

func (r *maintenanceRequestRepository) GetUserRequests(
	_ context.Context,
	_ *gorm.DB,
	userID int,
) ([]*MaintenanceRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	requests := []*MaintenanceRequest{}
	for id, request := range r.store.tables.requests {
		vehicle, ok := r.store.tables.vehicles[request.VehicleID]
		if ok && vehicle.UserID == userID {
			requests = append(requests, r.withDetails(id))
		}
	}

	slices.SortFunc(requests, newestRequestFirst)
	return requests, nil
}

func (r *maintenanceRequestRepository) GetAll(_ context.Context, _ *gorm.DB) ([]*MaintenanceRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	requests := make([]*MaintenanceRequest, 0, len(r.store.tables.requests))
	for id := range r.store.tables.requests {
		requests = append(requests, r.withDetails(id))
	}

	slices.SortFunc(requests, newestRequestFirst)
	return requests, nil
}

func (r *maintenanceRequestRepository) CompareAndSetStatus(
	ctx context.Context,
	_ *gorm.DB,
	id int,
	from RequestStatus,
	to RequestStatus,
	completionDate *datatypes.Date,
) (bool, error) {
	unlock := r.store.lockForWrite(ctx)
	defer unlock()

	stored, ok := r.store.tables.requests[id]
	if !ok || stored.Status != from {
		return false, nil
	}

	stored.Status = to
	if completionDate != nil {
		date := *completionDate
		stored.CompletionDate = &date
	}
	r.store.stamp(&stored.BaseModel)
	r.store.tables.requests[id] = stored
	return true, nil
}

func (r *maintenanceRequestRepository) SetCompletionDate(
	ctx context.Context,
	_ *gorm.DB,
	id int,
	requiredStatus RequestStatus,
	date datatypes.Date,
) (bool, error) {
	unlock := r.store.lockForWrite(ctx)
	defer unlock()

	stored, ok := r.store.tables.requests[id]
	if !ok || stored.Status != requiredStatus {
		return false, nil
	}

	stored.CompletionDate = &date
	r.store.stamp(&stored.BaseModel)
	r.store.tables.requests[id] = stored
	return true, nil
}

func (r *maintenanceRequestRepository) SetAdminNotes(ctx context.Context, _ *gorm.DB, id int, notes string) error {
	unlock := r.store.lockForWrite(ctx)
	defer unlock()

	stored, ok := r.store.tables.requests[id]
	if !ok {
		return errors.NotFoundf("maintenance request %d", id)
	}

	stored.AdminNotes = &notes
	r.store.stamp(&stored.BaseModel)
	r.store.tables.requests[id] = stored
	return nil
}

// withDetails must be called with mu held and an id that exists.
func (r *maintenanceRequestRepository) withDetails(id int) *MaintenanceRequest {
	request := r.store.tables.requests[id]
	request.Vehicle = r.store.vehicleWithOwner(request.VehicleID)

	request.Services = []MaintenanceRequestService{}
	for _, link := range r.store.tables.requestServices {
		if link.RequestID == id {
			request.Services = append(request.Services, link)
		}
	}
	slices.SortFunc(request.Services, func(a, b MaintenanceRequestService) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return &request
}

func newestRequestFirst(a, b *MaintenanceRequest) int {
	return cmp.Or(
		b.RequestDate.Compare(a.RequestDate),
		cmp.Compare(b.ID, a.ID),
	)
}
