package dto

import "github.com/polkiloo/dispatchboard/internal/domain/model"

type DriverResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	TruckNumber string `json:"truckNumber,omitempty"`
	VehicleType string `json:"vehicleType"`
	IsActive    bool   `json:"isActive"`
	LocalOnly   bool   `json:"localOnly"`
}

func ToDriverResponse(d model.Driver) DriverResponse {
	return DriverResponse{
		ID:          d.ID,
		Name:        d.Name,
		Phone:       d.Phone,
		TruckNumber: d.TruckNumber,
		VehicleType: string(d.VehicleType),
		IsActive:    d.IsActive,
		LocalOnly:   d.LocalOnly,
	}
}

func ToDriverResponses(drivers []model.Driver) []DriverResponse {
	out := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, ToDriverResponse(d))
	}
	return out
}

// CreateDriverRequest registers a driver. Drivers are active unless isActive is false.
type CreateDriverRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	TruckNumber string `json:"truckNumber"`
	VehicleType string `json:"vehicleType"`
	IsActive    *bool  `json:"isActive"`
}

func (r CreateDriverRequest) ToModel() model.Driver {
	return model.Driver{
		Name:        r.Name,
		Phone:       r.Phone,
		TruckNumber: r.TruckNumber,
		VehicleType: model.VehicleType(r.VehicleType),
		IsActive:    r.IsActive == nil || *r.IsActive,
	}
}

type UpdateDriverRequest struct {
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	TruckNumber *string `json:"truckNumber"`
	VehicleType *string `json:"vehicleType"`
	IsActive    *bool   `json:"isActive"`
}

func (r UpdateDriverRequest) ToPatch() model.DriverPatch {
	p := model.DriverPatch{
		Name:        r.Name,
		Phone:       r.Phone,
		TruckNumber: r.TruckNumber,
		IsActive:    r.IsActive,
	}
	if r.VehicleType != nil {
		v := model.VehicleType(*r.VehicleType)
		p.VehicleType = &v
	}
	return p
}
