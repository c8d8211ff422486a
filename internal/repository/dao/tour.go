package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrTourNameExists = errors.New("tour already exists")
	ErrTourNotFound   = errors.New("tour not found")
)

type Location struct {
	Coordinates [2]float64 `json:"coordinates"`
	Address     string     `json:"address,omitempty"`
	Description string     `json:"description,omitempty"`
	Day         int        `json:"day,omitempty"`
}

type Tour struct {
	ID uint `gorm:"primaryKey"`

	Name string `gorm:"unique;not null"`
	Slug string `gorm:"index;not null"`

	Duration     int     `gorm:"not null"`
	MaxGroupSize int     `gorm:"not null"`
	Difficulty   string  `gorm:"not null"`
	Price        float64 `gorm:"not null"`
	PriceDiscount *float64

	RatingsAverage  float64 `gorm:"not null;default:4.5"`
	RatingsQuantity int     `gorm:"not null;default:0"`

	Summary     string `gorm:"not null"`
	Description string
	ImageCover  string

	Images     datatypes.JSONSlice[string]
	StartDates datatypes.JSONSlice[time.Time]

	Secret bool `gorm:"not null;default:false"`

	StartLocation *datatypes.JSONType[Location]
	Locations     datatypes.JSONSlice[Location]

	Guides []User `gorm:"many2many:tour_guides"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TourStatsRow is the scan target of the per-difficulty rollup query.
type TourStatsRow struct {
	Difficulty string
	NumTours   int
	NumRatings int
	AvgRating  float64
	AvgPrice   float64
	MinPrice   float64
	MaxPrice   float64
}

type TourDAO struct {
	db *gorm.DB
}

func NewTourDAO(db *gorm.DB) *TourDAO {
	return &TourDAO{
		db: db,
	}
}

func (d *TourDAO) Insert(ctx context.Context, tour Tour) (Tour, error) {
	result := d.db.WithContext(ctx).Create(&tour)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return Tour{}, ErrTourNameExists
		}

		return Tour{}, result.Error
	}

	return tour, nil
}

func (d *TourDAO) FindByID(ctx context.Context, id uint) (Tour, error) {
	var tour Tour

	result := d.db.WithContext(ctx).Preload("Guides").First(&tour, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Tour{}, ErrTourNotFound
		}

		return Tour{}, result.Error
	}

	return tour, nil
}

func (d *TourDAO) FindBySlug(ctx context.Context, slug string) (Tour, error) {
	var tour Tour

	result := d.db.WithContext(ctx).Preload("Guides").First(&tour, "slug = ?", slug)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Tour{}, ErrTourNotFound
		}

		return Tour{}, result.Error
	}

	return tour, nil
}

// FindAll lists non-secret tours. Sort must already be sanitized by the caller.
func (d *TourDAO) FindAll(ctx context.Context, sort string, limit, offset int) ([]Tour, error) {
	var tours []Tour

	query := d.db.WithContext(ctx).Where("secret = ?", false)
	if sort != "" {
		query = query.Order(sort)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	result := query.Find(&tours)
	if result.Error != nil {
		return nil, result.Error
	}

	return tours, nil
}

func (d *TourDAO) Update(ctx context.Context, id uint, columns map[string]any) (Tour, error) {
	result := d.db.WithContext(ctx).Model(&Tour{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return Tour{}, ErrTourNameExists
		}

		return Tour{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Tour{}, ErrTourNotFound
	}

	return d.FindByID(ctx, id)
}

func (d *TourDAO) Delete(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Delete(&Tour{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTourNotFound
	}

	return nil
}

// UpdateRatings writes the derived review aggregate onto the tour. Ratings are
// never written through Update, only through here.
func (d *TourDAO) UpdateRatings(ctx context.Context, id uint, average float64, quantity int) error {
	result := d.db.WithContext(ctx).Model(&Tour{}).Where("id = ?", id).Updates(map[string]any{
		"ratings_average":  average,
		"ratings_quantity": quantity,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTourNotFound
	}

	return nil
}

func (d *TourDAO) Stats(ctx context.Context) ([]TourStatsRow, error) {
	var rows []TourStatsRow

	result := d.db.WithContext(ctx).Model(&Tour{}).
		Select("difficulty",
			"COUNT(*) AS num_tours",
			"COALESCE(SUM(ratings_quantity), 0) AS num_ratings",
			"COALESCE(AVG(ratings_average), 0) AS avg_rating",
			"COALESCE(AVG(price), 0) AS avg_price",
			"COALESCE(MIN(price), 0) AS min_price",
			"COALESCE(MAX(price), 0) AS max_price").
		Where("secret = ?", false).
		Group("difficulty").
		Order("num_tours").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}
