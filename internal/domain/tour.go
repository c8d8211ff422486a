package domain

import "time"

const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// Location is a GeoJSON-style point with presentation metadata.
type Location struct {
	Coordinates [2]float64 `json:"coordinates"` // [lng, lat]
	Address     string     `json:"address,omitempty"`
	Description string     `json:"description,omitempty"`
	Day         int        `json:"day,omitempty"`
}

type Tour struct {
	ID              uint        `json:"id"`
	Name            string      `json:"name"`
	Slug            string      `json:"slug"`
	Duration        int         `json:"duration"`
	MaxGroupSize    int         `json:"max_group_size"`
	Difficulty      string      `json:"difficulty"`
	Price           float64     `json:"price"`
	PriceDiscount   *float64    `json:"price_discount,omitempty"`
	RatingsAverage  float64     `json:"ratings_average"`
	RatingsQuantity int         `json:"ratings_quantity"`
	Summary         string      `json:"summary"`
	Description     string      `json:"description,omitempty"`
	ImageCover      string      `json:"image_cover,omitempty"`
	Images          []string    `json:"images,omitempty"`
	StartDates      []time.Time `json:"start_dates,omitempty"`
	Secret          bool        `json:"-"`
	StartLocation   *Location   `json:"start_location,omitempty"`
	Locations       []Location  `json:"locations,omitempty"`
	Guides          []User      `json:"guides,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// TourStats is the per-difficulty rollup of the catalog.
type TourStats struct {
	Difficulty   string  `json:"difficulty"`
	NumTours     int     `json:"num_tours"`
	NumRatings   int     `json:"num_ratings"`
	AvgRating    float64 `json:"avg_rating"`
	AvgPrice     float64 `json:"avg_price"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
}

// MonthlyPlanEntry counts tour departures within one month of a year.
type MonthlyPlanEntry struct {
	Month    int      `json:"month"`
	NumTours int      `json:"num_tours"`
	Tours    []string `json:"tours"`
}

// TourDistance pairs a tour with its distance from a reference point.
type TourDistance struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}
