package models

import (
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusApproved   RequestStatus = "approved"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

// ParseRequestStatus accepts the stored form plus the spaced and hyphenated
// spellings clients send ("in progress", "In-Progress").
func ParseRequestStatus(raw string) (RequestStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	switch status := RequestStatus(normalized); status {
	case RequestStatusPending,
		RequestStatusApproved,
		RequestStatusInProgress,
		RequestStatusCompleted,
		RequestStatusCancelled:
		return status, nil
	default:
		return "", errors.NotValidf("status %q", raw)
	}
}

var allowedTransitions = map[RequestStatus]map[RequestStatus]bool{
	RequestStatusPending:    {RequestStatusApproved: true, RequestStatusCancelled: true},
	RequestStatusApproved:   {RequestStatusInProgress: true, RequestStatusCancelled: true},
	RequestStatusInProgress: {RequestStatusCompleted: true, RequestStatusCancelled: true},
	RequestStatusCompleted:  {},
	RequestStatusCancelled:  {},
}

func CanTransition(from, to RequestStatus) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// NextStatuses lists the statuses reachable from s in workflow order.
func (s RequestStatus) NextStatuses() []RequestStatus {
	order := []RequestStatus{
		RequestStatusApproved,
		RequestStatusInProgress,
		RequestStatusCompleted,
		RequestStatusCancelled,
	}

	var next []RequestStatus
	for _, candidate := range order {
		if CanTransition(s, candidate) {
			next = append(next, candidate)
		}
	}
	return next
}

func (s RequestStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

type MaintenanceRequest struct {
	BaseModel
	VehicleID       int             `gorm:"type:int;not null;index:idx_maintenance_requests_vehicle" json:"vehicleId"`
	RequestDate     time.Time       `gorm:"type:timestamp;not null"                                  json:"requestDate"`
	OdometerReading int64           `gorm:"type:bigint;not null"                                     json:"odometerReading"`
	Status          RequestStatus   `gorm:"type:varchar(32);not null;index:idx_maintenance_requests_status" json:"status"`
	CompletionDate  *datatypes.Date `gorm:"type:date"                                                json:"completionDate,omitempty"`
	AdminNotes      *string         `gorm:"type:text"                                                json:"adminNotes,omitempty"`

	Vehicle  *Vehicle                    `gorm:"foreignKey:VehicleID;constraint:OnDelete:RESTRICT" json:"vehicle,omitempty"`
	Services []MaintenanceRequestService `gorm:"foreignKey:RequestID"                              json:"services,omitempty"`
}

func (r *MaintenanceRequest) BeforeCreate(tx *gorm.DB) error {
	if r.VehicleID == 0 || r.OdometerReading < 0 {
		return gorm.ErrInvalidValue
	}
	if r.Status == "" {
		r.Status = RequestStatusPending
	}
	return nil
}

// TotalCost sums the cost snapshots of every service on the request.
func (r *MaintenanceRequest) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, service := range r.Services {
		total = total.Add(service.ServiceCost)
	}
	return total
}

// MaintenanceRequestService links a request to a catalog service and keeps
// the name and cost the service had when the request was made.
type MaintenanceRequestService struct {
	BaseModel
	RequestID   int             `gorm:"type:int;not null;index:idx_request_services_request" json:"requestId"`
	ServiceID   int             `gorm:"type:int;not null;index:idx_request_services_service" json:"serviceId"`
	ServiceName string          `gorm:"type:varchar(200);not null"                           json:"serviceName"`
	ServiceCost decimal.Decimal `gorm:"type:decimal(10,2);not null"                          json:"serviceCost"`

	Service *MaintenanceService `gorm:"foreignKey:ServiceID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (rs *MaintenanceRequestService) BeforeCreate(tx *gorm.DB) error {
	if rs.ServiceID == 0 {
		return gorm.ErrInvalidValue
	}
	return nil
}
