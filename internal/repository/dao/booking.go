package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrBookingExists   = errors.New("booking already exists")
	ErrBookingNotFound = errors.New("booking not found")
)

type Booking struct {
	ID uint `gorm:"primaryKey"`

	TourID uint `gorm:"not null;uniqueIndex:idx_bookings_tour_user"`
	Tour   Tour `gorm:"foreignKey:TourID"`
	UserID uint `gorm:"not null;uniqueIndex:idx_bookings_tour_user"`
	User   User `gorm:"foreignKey:UserID"`

	Price float64 `gorm:"not null"`
	Paid  bool    `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null"`
}

type BookingDAO struct {
	db *gorm.DB
}

func NewBookingDAO(db *gorm.DB) *BookingDAO {
	return &BookingDAO{
		db: db,
	}
}

// Insert relies on the (tour_id, user_id) unique index as the race closer
// between concurrent bookings of the same tour by the same user.
func (d *BookingDAO) Insert(ctx context.Context, booking Booking) (Booking, error) {
	result := d.db.WithContext(ctx).Omit("Tour", "User").Create(&booking)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return Booking{}, ErrBookingExists
		}

		return Booking{}, result.Error
	}

	return booking, nil
}

func (d *BookingDAO) FindByID(ctx context.Context, id uint) (Booking, error) {
	var booking Booking

	result := d.db.WithContext(ctx).Preload("Tour").Preload("User").First(&booking, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Booking{}, ErrBookingNotFound
		}

		return Booking{}, result.Error
	}

	return booking, nil
}

func (d *BookingDAO) FindByTourAndUser(ctx context.Context, tourID, userID uint) (Booking, error) {
	var booking Booking

	result := d.db.WithContext(ctx).
		Where("tour_id = ? AND user_id = ?", tourID, userID).
		First(&booking)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Booking{}, ErrBookingNotFound
		}

		return Booking{}, result.Error
	}

	return booking, nil
}

func (d *BookingDAO) FindAll(ctx context.Context) ([]Booking, error) {
	var bookings []Booking

	result := d.db.WithContext(ctx).Preload("Tour").Preload("User").Find(&bookings)
	if result.Error != nil {
		return nil, result.Error
	}

	return bookings, nil
}

func (d *BookingDAO) FindByUserID(ctx context.Context, userID uint) ([]Booking, error) {
	var bookings []Booking

	result := d.db.WithContext(ctx).Preload("Tour").Where("user_id = ?", userID).Find(&bookings)
	if result.Error != nil {
		return nil, result.Error
	}

	return bookings, nil
}

func (d *BookingDAO) FindByTourID(ctx context.Context, tourID uint) ([]Booking, error) {
	var bookings []Booking

	result := d.db.WithContext(ctx).Preload("User").Where("tour_id = ?", tourID).Find(&bookings)
	if result.Error != nil {
		return nil, result.Error
	}

	return bookings, nil
}

func (d *BookingDAO) Update(ctx context.Context, id uint, columns map[string]any) (Booking, error) {
	result := d.db.WithContext(ctx).Model(&Booking{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return Booking{}, ErrBookingExists
		}

		return Booking{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Booking{}, ErrBookingNotFound
	}

	return d.FindByID(ctx, id)
}

// Delete removes the booking and, in the same transaction, drops the booked
// tour from the owner's favorites. The cascade is part of the delete, not a
// best-effort follow-up.
func (d *BookingDAO) Delete(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking Booking
		if err := tx.First(&booking, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}

			return err
		}

		if err := tx.Delete(&Booking{}, id).Error; err != nil {
			return err
		}

		return tx.
			Model(&User{ID: booking.UserID}).
			Association("FavoriteTours").
			Delete(&Tour{ID: booking.TourID})
	})
}
