package request

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type CreateReviewRequest struct {
	Review string `json:"review"`
	Rating int    `json:"rating"`
}

func (req *CreateReviewRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Review, validation.Required),
		validation.Field(&req.Rating, validation.Required, validation.Min(1), validation.Max(5)),
	)
}

type UpdateReviewRequest struct {
	Review string `json:"review"`
	Rating int    `json:"rating"`
}

func (req *UpdateReviewRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Review, validation.Required),
		validation.Field(&req.Rating, validation.Required, validation.Min(1), validation.Max(5)),
	)
}
