package dto

import (
	"time"

	"github.com/polkiloo/dispatchboard/internal/domain/model"
)

type CustomerResponse struct {
	ID          string       `json:"id"`
	Code        string       `json:"code"`
	Name        string       `json:"name"`
	Address     string       `json:"address,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Email       string       `json:"email,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

func ToCustomerResponse(c model.Customer) CustomerResponse {
	r := CustomerResponse{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		Address:   c.Address,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
	}
	if c.Coordinates != nil {
		r.Coordinates = &Coordinates{Lat: c.Coordinates.Lat, Lng: c.Coordinates.Lng}
	}
	return r
}

func ToCustomerResponses(customers []model.Customer) []CustomerResponse {
	out := make([]CustomerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, ToCustomerResponse(c))
	}
	return out
}

type CreateCustomerRequest struct {
	Code        string       `json:"code"`
	Name        string       `json:"name"`
	Address     string       `json:"address"`
	Phone       string       `json:"phone"`
	Email       string       `json:"email"`
	Coordinates *Coordinates `json:"coordinates"`
}

func (r CreateCustomerRequest) ToModel() model.Customer {
	c := model.Customer{
		Code:    r.Code,
		Name:    r.Name,
		Address: r.Address,
		Phone:   r.Phone,
		Email:   r.Email,
	}
	if r.Coordinates != nil {
		c.Coordinates = &model.Coordinates{Lat: r.Coordinates.Lat, Lng: r.Coordinates.Lng}
	}
	return c
}

type UpdateCustomerRequest struct {
	Code        *string      `json:"code"`
	Name        *string      `json:"name"`
	Address     *string      `json:"address"`
	Phone       *string      `json:"phone"`
	Email       *string      `json:"email"`
	Coordinates *Coordinates `json:"coordinates"`
}

func (r UpdateCustomerRequest) ToPatch() model.CustomerPatch {
	p := model.CustomerPatch{
		Name:    r.Name,
		Code:    r.Code,
		Address: r.Address,
		Phone:   r.Phone,
		Email:   r.Email,
	}
	if r.Coordinates != nil {
		p.Coordinates = &model.Coordinates{Lat: r.Coordinates.Lat, Lng: r.Coordinates.Lng}
	}
	return p
}
