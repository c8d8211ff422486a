package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrReviewExists   = errors.New("review already exists")
	ErrReviewNotFound = errors.New("review not found")
)

type Review struct {
	ID uint `gorm:"primaryKey"`

	Review string `gorm:"not null"`
	Rating int    `gorm:"not null"`

	TourID uint `gorm:"not null;uniqueIndex:idx_reviews_tour_user"`
	UserID uint `gorm:"not null;uniqueIndex:idx_reviews_tour_user"`
	User   User `gorm:"foreignKey:UserID"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ReviewAggregate is the derived (count, mean) pair for one tour.
type ReviewAggregate struct {
	NumRatings int
	AvgRating  float64
}

type ReviewDAO struct {
	db *gorm.DB
}

func NewReviewDAO(db *gorm.DB) *ReviewDAO {
	return &ReviewDAO{
		db: db,
	}
}

func (d *ReviewDAO) Insert(ctx context.Context, review Review) (Review, error) {
	result := d.db.WithContext(ctx).Omit("User").Create(&review)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return Review{}, ErrReviewExists
		}

		return Review{}, result.Error
	}

	return review, nil
}

func (d *ReviewDAO) FindByID(ctx context.Context, id uint) (Review, error) {
	var review Review

	result := d.db.WithContext(ctx).Preload("User").First(&review, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Review{}, ErrReviewNotFound
		}

		return Review{}, result.Error
	}

	return review, nil
}

func (d *ReviewDAO) FindByTourID(ctx context.Context, tourID uint) ([]Review, error) {
	var reviews []Review

	result := d.db.WithContext(ctx).Preload("User").Where("tour_id = ?", tourID).Find(&reviews)
	if result.Error != nil {
		return nil, result.Error
	}

	return reviews, nil
}

func (d *ReviewDAO) FindByTourAndUser(ctx context.Context, tourID, userID uint) (Review, error) {
	var review Review

	result := d.db.WithContext(ctx).
		Where("tour_id = ? AND user_id = ?", tourID, userID).
		First(&review)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Review{}, ErrReviewNotFound
		}

		return Review{}, result.Error
	}

	return review, nil
}

func (d *ReviewDAO) Update(ctx context.Context, id uint, columns map[string]any) (Review, error) {
	result := d.db.WithContext(ctx).Model(&Review{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return Review{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Review{}, ErrReviewNotFound
	}

	return d.FindByID(ctx, id)
}

func (d *ReviewDAO) Delete(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Delete(&Review{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}

	return nil
}

func (d *ReviewDAO) Aggregate(ctx context.Context, tourID uint) (ReviewAggregate, error) {
	var agg ReviewAggregate

	result := d.db.WithContext(ctx).Model(&Review{}).
		Select("COUNT(*) AS num_ratings", "COALESCE(AVG(rating), 0) AS avg_rating").
		Where("tour_id = ?", tourID).
		Scan(&agg)
	if result.Error != nil {
		return ReviewAggregate{}, result.Error
	}

	return agg, nil
}
