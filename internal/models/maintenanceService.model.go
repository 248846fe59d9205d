package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OdometerRange is the inclusive band of readings a catalog service is
// suggested for.
type OdometerRange struct {
	Min int64 `json:"minOdometer"`
	Max int64 `json:"maxOdometer"`
}

func (r OdometerRange) Valid() bool {
	return r.Min >= 0 && r.Min <= r.Max
}

func (r OdometerRange) Contains(reading int64) bool {
	return reading >= r.Min && reading <= r.Max
}

func (r OdometerRange) Overlaps(other OdometerRange) bool {
	return r.Min <= other.Max && other.Min <= r.Max
}

type MaintenanceService struct {
	BaseModel
	ServiceName     string          `gorm:"type:varchar(200);not null"             json:"serviceName"`
	NameKey         string          `gorm:"type:varchar(200);not null;uniqueIndex" json:"-"`
	ServiceCost     decimal.Decimal `gorm:"type:decimal(10,2);not null"            json:"serviceCost"`
	MinimumOdometer int64           `gorm:"type:bigint;not null"                   json:"minimumOdometer"`
	MaximumOdometer int64           `gorm:"type:bigint;not null"                   json:"maximumOdometer"`
}

// ServiceNameKey is the comparison form of a service name. Two services
// whose keys match are considered duplicates.
func ServiceNameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func (s *MaintenanceService) Range() OdometerRange {
	return OdometerRange{Min: s.MinimumOdometer, Max: s.MaximumOdometer}
}

func (s *MaintenanceService) BeforeSave(tx *gorm.DB) error {
	s.ServiceName = strings.TrimSpace(s.ServiceName)
	if s.ServiceName == "" {
		return gorm.ErrInvalidValue
	}
	s.NameKey = ServiceNameKey(s.ServiceName)
	if !s.ServiceCost.IsPositive() {
		return gorm.ErrInvalidValue
	}
	if !s.Range().Valid() {
		return gorm.ErrInvalidValue
	}
	return nil
}

// ServicesForReading keeps the services whose range contains reading,
// preserving the input order.
func ServicesForReading(services []*MaintenanceService, reading int64) []*MaintenanceService {
	matched := []*MaintenanceService{}
	for _, service := range services {
		if service.Range().Contains(reading) {
			matched = append(matched, service)
		}
	}
	return matched
}
