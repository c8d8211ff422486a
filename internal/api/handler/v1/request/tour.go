package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/trailpost/tours-api/internal/domain"
)

type LocationPayload struct {
	Coordinates [2]float64 `json:"coordinates"`
	Address     string     `json:"address"`
	Description string     `json:"description"`
	Day         int        `json:"day"`
}

func (p LocationPayload) toDomain() domain.Location {
	return domain.Location{
		Coordinates: p.Coordinates,
		Address:     p.Address,
		Description: p.Description,
		Day:         p.Day,
	}
}

type CreateTourRequest struct {
	Name          string            `json:"name"`
	Duration      int               `json:"duration"`
	MaxGroupSize  int               `json:"max_group_size"`
	Difficulty    string            `json:"difficulty"`
	Price         float64           `json:"price"`
	PriceDiscount *float64          `json:"price_discount"`
	Summary       string            `json:"summary"`
	Description   string            `json:"description"`
	ImageCover    string            `json:"image_cover"`
	Images        []string          `json:"images"`
	StartDates    []time.Time       `json:"start_dates"`
	StartLocation *LocationPayload  `json:"start_location"`
	Locations     []LocationPayload `json:"locations"`
	Secret        bool              `json:"secret"`
}

func (req *CreateTourRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(10, 40)),
		validation.Field(&req.Duration, validation.Required, validation.Min(1)),
		validation.Field(&req.MaxGroupSize, validation.Required, validation.Min(1)),
		validation.Field(&req.Difficulty, validation.Required,
			validation.In(domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyDifficult)),
		validation.Field(&req.Price, validation.Required, validation.Min(0.01)),
		validation.Field(&req.Summary, validation.Required),
	)
}

func (req *CreateTourRequest) ToDomain() domain.Tour {
	tour := domain.Tour{
		Name:          req.Name,
		Duration:      req.Duration,
		MaxGroupSize:  req.MaxGroupSize,
		Difficulty:    req.Difficulty,
		Price:         req.Price,
		PriceDiscount: req.PriceDiscount,
		Summary:       req.Summary,
		Description:   req.Description,
		ImageCover:    req.ImageCover,
		Images:        req.Images,
		StartDates:    req.StartDates,
		Secret:        req.Secret,
	}

	if req.StartLocation != nil {
		loc := req.StartLocation.toDomain()
		tour.StartLocation = &loc
	}
	for _, l := range req.Locations {
		tour.Locations = append(tour.Locations, l.toDomain())
	}

	return tour
}

// UpdateTourRequest carries a partial update. Zero values mean "unchanged".
type UpdateTourRequest struct {
	Name          string   `json:"name"`
	Duration      int      `json:"duration"`
	MaxGroupSize  int      `json:"max_group_size"`
	Difficulty    string   `json:"difficulty"`
	Price         float64  `json:"price"`
	PriceDiscount *float64 `json:"price_discount"`
	Summary       string   `json:"summary"`
	Description   string   `json:"description"`
	ImageCover    string   `json:"image_cover"`
}

func (req *UpdateTourRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Length(10, 40)),
		validation.Field(&req.Duration, validation.Min(0)),
		validation.Field(&req.MaxGroupSize, validation.Min(0)),
		validation.Field(&req.Difficulty,
			validation.In(domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyDifficult)),
		validation.Field(&req.Price, validation.Min(0.0)),
	)
}

func (req *UpdateTourRequest) ToDomain() domain.Tour {
	return domain.Tour{
		Name:          req.Name,
		Duration:      req.Duration,
		MaxGroupSize:  req.MaxGroupSize,
		Difficulty:    req.Difficulty,
		Price:         req.Price,
		PriceDiscount: req.PriceDiscount,
		Summary:       req.Summary,
		Description:   req.Description,
		ImageCover:    req.ImageCover,
	}
}
