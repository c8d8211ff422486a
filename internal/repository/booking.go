package repository

import (
	"context"
	"fmt"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/repository/dao"
)

var (
	ErrBookingExists   = dao.ErrBookingExists
	ErrBookingNotFound = dao.ErrBookingNotFound
)

type BookingDAO interface {
	Insert(ctx context.Context, booking dao.Booking) (dao.Booking, error)
	FindByID(ctx context.Context, id uint) (dao.Booking, error)
	FindByTourAndUser(ctx context.Context, tourID, userID uint) (dao.Booking, error)
	FindAll(ctx context.Context) ([]dao.Booking, error)
	FindByUserID(ctx context.Context, userID uint) ([]dao.Booking, error)
	FindByTourID(ctx context.Context, tourID uint) ([]dao.Booking, error)
	Update(ctx context.Context, id uint, columns map[string]any) (dao.Booking, error)
	Delete(ctx context.Context, id uint) error
}

type BookingRepository struct {
	dao BookingDAO
}

func NewBookingRepository(dao BookingDAO) *BookingRepository {
	return &BookingRepository{
		dao: dao,
	}
}

func (r *BookingRepository) Create(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	created, err := r.dao.Insert(ctx, dao.Booking{
		TourID: booking.TourID,
		UserID: booking.UserID,
		Price:  booking.Price,
		Paid:   booking.Paid,
	})
	if err != nil {
		return domain.Booking{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return bookingDaoToDomain(created), nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id uint) (domain.Booking, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return bookingDaoToDomain(found), nil
}

func (r *BookingRepository) FindByTourAndUser(ctx context.Context, tourID, userID uint) (domain.Booking, error) {
	found, err := r.dao.FindByTourAndUser(ctx, tourID, userID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("r.dao.FindByTourAndUser -> %w", err)
	}

	return bookingDaoToDomain(found), nil
}

func (r *BookingRepository) FindAll(ctx context.Context) ([]domain.Booking, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	return bookingsDaoToDomain(found), nil
}

func (r *BookingRepository) FindByUserID(ctx context.Context, userID uint) ([]domain.Booking, error) {
	found, err := r.dao.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByUserID -> %w", err)
	}

	return bookingsDaoToDomain(found), nil
}

func (r *BookingRepository) FindByTourID(ctx context.Context, tourID uint) ([]domain.Booking, error) {
	found, err := r.dao.FindByTourID(ctx, tourID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByTourID -> %w", err)
	}

	return bookingsDaoToDomain(found), nil
}

func (r *BookingRepository) Update(ctx context.Context, id uint, columns map[string]any) (domain.Booking, error) {
	updated, err := r.dao.Update(ctx, id, columns)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return bookingDaoToDomain(updated), nil
}

func (r *BookingRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func bookingDaoToDomain(b dao.Booking) domain.Booking {
	booking := domain.Booking{
		ID:        b.ID,
		TourID:    b.TourID,
		UserID:    b.UserID,
		Price:     b.Price,
		Paid:      b.Paid,
		CreatedAt: b.CreatedAt,
	}

	if b.Tour.ID != 0 {
		tour := tourDaoToDomain(b.Tour)
		booking.Tour = &tour
	}
	if b.User.ID != 0 {
		user := userDaoToDomain(b.User)
		booking.User = &user
	}

	return booking
}

func bookingsDaoToDomain(found []dao.Booking) []domain.Booking {
	bookings := make([]domain.Booking, 0, len(found))
	for _, b := range found {
		bookings = append(bookings, bookingDaoToDomain(b))
	}

	return bookings
}
