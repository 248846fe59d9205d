package repositories

import (
	"context"
	. "vmtracker/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/juju/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MaintenanceRequestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, request *MaintenanceRequest) error
	GetByID(ctx context.Context, tx *gorm.DB, id int) (*MaintenanceRequest, error)
	GetUserRequests(ctx context.Context, tx *gorm.DB, userID int) ([]*MaintenanceRequest, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*MaintenanceRequest, error)
	// CompareAndSetStatus moves a request from `from` to `to` only if it is
	// still in `from`. A non-nil completionDate is written in the same
	// statement. It reports false when no row matched.
	CompareAndSetStatus(
		ctx context.Context,
		tx *gorm.DB,
		id int,
		from RequestStatus,
		to RequestStatus,
		completionDate *datatypes.Date,
	) (bool, error)
	// SetCompletionDate writes the date only while the request is in
	// `requiredStatus` and reports false when no row matched.
	SetCompletionDate(
		ctx context.Context,
		tx *gorm.DB,
		id int,
		requiredStatus RequestStatus,
		date datatypes.Date,
	) (bool, error)
	SetAdminNotes(ctx context.Context, tx *gorm.DB, id int, notes string) error
}

type maintenanceRequestRepository struct {
	log logger.Logger
}

func NewMaintenanceRequestRepository() MaintenanceRequestRepository {
	return &maintenanceRequestRepository{
		log: logger.New("maintenanceRequestRepository"),
	}
}

func (r *maintenanceRequestRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	request *MaintenanceRequest,
) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Omit("Vehicle").Create(request).Error; err != nil {
		return log.Err(
			"failed to create maintenance request",
			translateWriteError(err, "maintenance request"),
			"vehicleID",
			request.VehicleID,
		)
	}

	return nil
}

func (r *maintenanceRequestRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id int,
) (*MaintenanceRequest, error) {
	log := r.log.Function("GetByID")

	var request MaintenanceRequest
	if err := r.withDetails(ctx, tx).First(&request, id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, errors.NotFoundf("maintenance request %d", id)
		}
		return nil, log.Err("failed to get maintenance request", err, "id", id)
	}

	return &request, nil
}

func (r *maintenanceRequestRepository) GetUserRequests(
	ctx context.Context,
	tx *gorm.DB,
	userID int,
) ([]*MaintenanceRequest, error) {
	log := r.log.Function("GetUserRequests")

	var requests []*MaintenanceRequest
	if err := r.withDetails(ctx, tx).
		Joins("JOIN vehicles ON vehicles.id = maintenance_requests.vehicle_id").
		Where("vehicles.user_id = ?", userID).
		Order("maintenance_requests.request_date DESC, maintenance_requests.id DESC").
		Find(&requests).Error; err != nil {
		return nil, log.Err("failed to get user maintenance requests", err, "userID", userID)
	}

	return requests, nil
}

func (r *maintenanceRequestRepository) GetAll(
	ctx context.Context,
	tx *gorm.DB,
) ([]*MaintenanceRequest, error) {
	log := r.log.Function("GetAll")

	var requests []*MaintenanceRequest
	if err := r.withDetails(ctx, tx).
		Order("request_date DESC, id DESC").
		Find(&requests).Error; err != nil {
		return nil, log.Err("failed to get maintenance requests", err)
	}

	return requests, nil
}

func (r *maintenanceRequestRepository) CompareAndSetStatus(
	ctx context.Context,
	tx *gorm.DB,
	id int,
	from RequestStatus,
	to RequestStatus,
	completionDate *datatypes.Date,
) (bool, error) {
	log := r.log.Function("CompareAndSetStatus")

	updates := map[string]any{"status": to}
	if completionDate != nil {
		updates["completion_date"] = *completionDate
	}

	result := tx.WithContext(ctx).
		Model(&MaintenanceRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, log.Err(
			"failed to update maintenance request status",
			result.Error,
			"id", id,
			"from", from,
			"to", to,
		)
	}

	return result.RowsAffected > 0, nil
}

func (r *maintenanceRequestRepository) SetCompletionDate(
	ctx context.Context,
	tx *gorm.DB,
	id int,
	requiredStatus RequestStatus,
	date datatypes.Date,
) (bool, error) {
	log := r.log.Function("SetCompletionDate")

	result := tx.WithContext(ctx).
		Model(&MaintenanceRequest{}).
		Where("id = ? AND status = ?", id, requiredStatus).
		Update("completion_date", date)
	if result.Error != nil {
		return false, log.Err("failed to set completion date", result.Error, "id", id)
	}

	return result.RowsAffected > 0, nil
}

func (r *maintenanceRequestRepository) SetAdminNotes(
	ctx context.Context,
	tx *gorm.DB,
	id int,
	notes string,
) error {
	log := r.log.Function("SetAdminNotes")

	result := tx.WithContext(ctx).
		Model(&MaintenanceRequest{}).
		Where("id = ?", id).
		Update("admin_notes", notes)
	if result.Error != nil {
		return log.Err("failed to set admin notes", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return errors.NotFoundf("maintenance request %d", id)
	}

	return nil
}

func (r *maintenanceRequestRepository) withDetails(ctx context.Context, tx *gorm.DB) *gorm.DB {
	return tx.WithContext(ctx).
		Preload("Vehicle").
		Preload("Vehicle.User").
		Preload("Services", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		})
}
