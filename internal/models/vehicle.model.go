package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type VehicleStatus string

const (
	VehicleStatusActive           VehicleStatus = "active"
	VehicleStatusUnderMaintenance VehicleStatus = "under_maintenance"
	VehicleStatusInactive         VehicleStatus = "inactive"
)

var vehicleStatuses = map[VehicleStatus]struct{}{
	VehicleStatusActive:           {},
	VehicleStatusUnderMaintenance: {},
	VehicleStatusInactive:         {},
}

// ParseVehicleStatus accepts the stored form as well as the spaced form the
// admin screens display ("under maintenance").
func ParseVehicleStatus(raw string) (VehicleStatus, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
	status := VehicleStatus(normalized)
	_, ok := vehicleStatuses[status]
	return status, ok
}

type Vehicle struct {
	BaseModel
	UserID             int           `gorm:"type:int;not null;index:idx_vehicles_user"       json:"userId"`
	VehicleType        string        `gorm:"type:varchar(100);not null"                      json:"vehicleType"`
	LicensePlateNumber string        `gorm:"type:varchar(32);not null;uniqueIndex"           json:"licensePlateNumber"`
	ManufactureYear    int           `gorm:"type:int;not null"                               json:"manufactureYear"`
	Status             VehicleStatus `gorm:"type:varchar(32);not null;default:'active'"        json:"status"`
	RegistrationDate   time.Time     `gorm:"type:timestamp;not null"                         json:"registrationDate"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"user,omitempty"`
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.UserID == 0 {
		return gorm.ErrInvalidValue
	}
	if v.VehicleType == "" || v.LicensePlateNumber == "" {
		return gorm.ErrInvalidValue
	}
	if v.Status == "" {
		v.Status = VehicleStatusActive
	}
	return nil
}

func (v *Vehicle) IsOwnedBy(user *User) bool {
	return user != nil && v.UserID == user.ID
}

type OdometerReading struct {
	BaseModel
	VehicleID   int       `gorm:"type:int;not null;index:idx_odometer_readings_vehicle_date,priority:1" json:"vehicleId"`
	Reading     int64     `gorm:"type:bigint;not null"                                                  json:"reading"`
	ReadingDate time.Time `gorm:"type:timestamp;not null;index:idx_odometer_readings_vehicle_date,priority:2" json:"readingDate"`

	Vehicle *Vehicle `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE" json:"vehicle,omitempty"`
}

func (o *OdometerReading) BeforeCreate(tx *gorm.DB) error {
	if o.VehicleID == 0 || o.Reading < 0 {
		return gorm.ErrInvalidValue
	}
	return nil
}
