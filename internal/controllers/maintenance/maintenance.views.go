package maintenanceController

import (
	. "vmtracker/internal/models"
	"vmtracker/internal/utils"

	"github.com/shopspring/decimal"
)

func NewRequestView(request *MaintenanceRequest) RequestView {
	view := RequestView{
		ID:              request.ID,
		VehicleID:       request.VehicleID,
		RequestDate:     request.RequestDate,
		OdometerReading: request.OdometerReading,
		Status:          request.Status,
		NextStatuses:    request.Status.NextStatuses(),
		CompletionDate:  utils.FormatOptionalCalendarDate(request.CompletionDate),
		AdminNotes:      request.AdminNotes,
		Services:        make([]RequestServiceView, 0, len(request.Services)),
		TotalCost:       request.TotalCost(),
	}

	if view.NextStatuses == nil {
		view.NextStatuses = []RequestStatus{}
	}

	if request.Vehicle != nil {
		view.VehicleType = request.Vehicle.VehicleType
		view.LicensePlateNumber = request.Vehicle.LicensePlateNumber
		if request.Vehicle.User != nil {
			profile := request.Vehicle.User.ToProfile()
			view.Owner = &profile
		}
	}

	for _, service := range request.Services {
		view.Services = append(view.Services, RequestServiceView{
			ServiceID:   service.ServiceID,
			ServiceName: service.ServiceName,
			ServiceCost: service.ServiceCost,
		})
	}

	return view
}

func NewRequestViews(requests []*MaintenanceRequest) []RequestView {
	views := make([]RequestView, 0, len(requests))
	for _, request := range requests {
		views = append(views, NewRequestView(request))
	}
	return views
}

// GroupByVehicleAndDay buckets requests by vehicle and the UTC calendar day
// they were made. Groups keep the order in which they first appear.
func GroupByVehicleAndDay(requests []RequestView) []RequestGroup {
	type groupKey struct {
		vehicleID int
		day       string
	}

	groups := []RequestGroup{}
	index := map[groupKey]int{}

	for _, request := range requests {
		day := utils.FormatCalendarDate(utils.CalendarDate(request.RequestDate.UTC()))
		key := groupKey{vehicleID: request.VehicleID, day: day}

		position, ok := index[key]
		if !ok {
			position = len(groups)
			index[key] = position
			groups = append(groups, RequestGroup{
				VehicleID:          request.VehicleID,
				VehicleType:        request.VehicleType,
				LicensePlateNumber: request.LicensePlateNumber,
				Owner:              request.Owner,
				RequestDate:        day,
				Requests:           []RequestView{},
				TotalCost:          decimal.Zero,
			})
		}

		group := &groups[position]
		group.Requests = append(group.Requests, request)
		group.TotalCost = group.TotalCost.Add(request.TotalCost)
	}

	return groups
}
