package request

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type CreateBookingRequest struct {
	TourID uint    `json:"tour_id"`
	UserID uint    `json:"user_id"`
	Price  float64 `json:"price"`
	Paid   bool    `json:"paid"`
}

func (req *CreateBookingRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.TourID, validation.Required),
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Price, validation.Min(0.0)),
	)
}

type UpdateBookingRequest struct {
	Paid  *bool    `json:"paid"`
	Price *float64 `json:"price"`
}

func (req *UpdateBookingRequest) Validate() error {
	if req.Price != nil && *req.Price < 0 {
		return validation.NewError("validation_min", "price must be no less than 0")
	}

	return nil
}
