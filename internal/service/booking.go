package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/payment"
	"github.com/trailpost/tours-api/internal/repository"
)

var (
	ErrBookingNotFound  = repository.ErrBookingNotFound
	ErrDuplicateBooking = errors.New("tour is already booked by this user")
	ErrNotBooked        = errors.New("tour has not been booked by this user")
	ErrAlreadyFavorite  = errors.New("tour is already a favorite")
	ErrNotFavorite      = errors.New("tour is not among the favorites")
)

type BookingRepository interface {
	Create(ctx context.Context, booking domain.Booking) (domain.Booking, error)
	FindByID(ctx context.Context, id uint) (domain.Booking, error)
	FindByTourAndUser(ctx context.Context, tourID, userID uint) (domain.Booking, error)
	FindAll(ctx context.Context) ([]domain.Booking, error)
	FindByUserID(ctx context.Context, userID uint) ([]domain.Booking, error)
	FindByTourID(ctx context.Context, tourID uint) ([]domain.Booking, error)
	Update(ctx context.Context, id uint, columns map[string]any) (domain.Booking, error)
	Delete(ctx context.Context, id uint) error
}

// BookingUserRepository is the slice of the credential store the booking
// service needs: webhook payer resolution and the favorites relation.
type BookingUserRepository interface {
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindFavoriteTours(ctx context.Context, userID uint) ([]domain.Tour, error)
	AddFavoriteTour(ctx context.Context, userID, tourID uint) error
	RemoveFavoriteTour(ctx context.Context, userID, tourID uint) error
}

type BookingTourRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Tour, error)
}

type CheckoutGateway interface {
	CreateCheckoutSession(tour domain.Tour, customerEmail string) (payment.CheckoutSession, error)
}

type BookingService struct {
	repo     BookingRepository
	userRepo BookingUserRepository
	tourRepo BookingTourRepository
	gateway  CheckoutGateway
}

func NewBookingService(repo BookingRepository, userRepo BookingUserRepository, tourRepo BookingTourRepository, gateway CheckoutGateway) *BookingService {
	return &BookingService{
		repo:     repo,
		userRepo: userRepo,
		tourRepo: tourRepo,
		gateway:  gateway,
	}
}

// CheckDuplicateBooking enforces the at-most-one-booking-per-(tour,user) rule
// up front. The storage unique index remains the authoritative race closer.
func (s *BookingService) CheckDuplicateBooking(ctx context.Context, tourID, userID uint) error {
	_, err := s.repo.FindByTourAndUser(ctx, tourID, userID)
	if err == nil {
		return ErrDuplicateBooking
	}
	if !errors.Is(err, repository.ErrBookingNotFound) {
		return fmt.Errorf("s.repo.FindByTourAndUser -> %w", err)
	}

	return nil
}

// CreateCheckoutSession runs the duplicate gate and hands the tour to the
// payment provider. The booking itself is only created once the provider
// confirms payment through the webhook.
func (s *BookingService) CreateCheckoutSession(ctx context.Context, tourID uint, user domain.User) (payment.CheckoutSession, error) {
	if err := s.CheckDuplicateBooking(ctx, tourID, user.ID); err != nil {
		return payment.CheckoutSession{}, err
	}

	tour, err := s.tourRepo.FindByID(ctx, tourID)
	if err != nil {
		return payment.CheckoutSession{}, fmt.Errorf("s.tourRepo.FindByID -> %w", err)
	}

	session, err := s.gateway.CreateCheckoutSession(tour, user.Email)
	if err != nil {
		return payment.CheckoutSession{}, fmt.Errorf("s.gateway.CreateCheckoutSession -> %w", err)
	}

	return session, nil
}

// ConfirmBookingFromPayment turns a completed checkout into a booking: the
// tour comes from the session's client reference id, the user from the payer
// email, and the price from the session total. A redelivered webhook that hits
// the (tour,user) unique index is treated as already applied, so the provider
// stops retrying.
func (s *BookingService) ConfirmBookingFromPayment(ctx context.Context, checkout payment.CompletedCheckout) error {
	tour, err := s.tourRepo.FindByID(ctx, checkout.TourID)
	if err != nil {
		return fmt.Errorf("s.tourRepo.FindByID -> %w", err)
	}

	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(checkout.PayerEmail))
	if err != nil {
		return fmt.Errorf("s.userRepo.FindByEmail -> %w", err)
	}

	_, err = s.repo.Create(ctx, domain.Booking{
		TourID: tour.ID,
		UserID: user.ID,
		Price:  float64(checkout.AmountTotal) / 100,
		Paid:   true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrBookingExists) {
			zap.L().Info("webhook redelivery for an already confirmed booking",
				zap.Uint("tour_id", tour.ID),
				zap.Uint("user_id", user.ID))
			return nil
		}

		return fmt.Errorf("s.repo.Create -> %w", err)
	}

	return nil
}

// CreateBooking is the direct (admin) path. The price snapshot is taken from
// the tour at creation time unless explicitly provided.
func (s *BookingService) CreateBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	if booking.Price == 0 {
		tour, err := s.tourRepo.FindByID(ctx, booking.TourID)
		if err != nil {
			return domain.Booking{}, fmt.Errorf("s.tourRepo.FindByID -> %w", err)
		}
		booking.Price = tour.Price
	}

	created, err := s.repo.Create(ctx, booking)
	if err != nil {
		if errors.Is(err, repository.ErrBookingExists) {
			return domain.Booking{}, ErrDuplicateBooking
		}

		return domain.Booking{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id uint) (domain.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	bookings, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return bookings, nil
}

func (s *BookingService) ListBookingsForUser(ctx context.Context, userID uint) ([]domain.Booking, error) {
	bookings, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByUserID -> %w", err)
	}

	return bookings, nil
}

func (s *BookingService) ListBookingsForTour(ctx context.Context, tourID uint) ([]domain.Booking, error) {
	bookings, err := s.repo.FindByTourID(ctx, tourID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByTourID -> %w", err)
	}

	return bookings, nil
}

func (s *BookingService) UpdateBooking(ctx context.Context, id uint, paid *bool, price *float64) (domain.Booking, error) {
	columns := map[string]any{}
	if paid != nil {
		columns["paid"] = *paid
	}
	if price != nil {
		columns["price"] = *price
	}
	if len(columns) == 0 {
		return s.GetBooking(ctx, id)
	}

	updated, err := s.repo.Update(ctx, id, columns)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

// DeleteBooking deletes the row and removes the tour from the owner's
// favorites in the same storage transaction, so no stale favorite referencing
// an unbooked tour is ever observable.
func (s *BookingService) DeleteBooking(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

func (s *BookingService) ListFavorites(ctx context.Context, userID uint) ([]domain.Tour, error) {
	favorites, err := s.userRepo.FindFavoriteTours(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.userRepo.FindFavoriteTours -> %w", err)
	}

	return favorites, nil
}

// AddToFavorites appends the tour to the user's favorites. Preconditions: the
// user holds a booking for the tour and the tour is not already a favorite.
func (s *BookingService) AddToFavorites(ctx context.Context, userID, tourID uint) error {
	_, err := s.repo.FindByTourAndUser(ctx, tourID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return ErrNotBooked
		}

		return fmt.Errorf("s.repo.FindByTourAndUser -> %w", err)
	}

	favorites, err := s.userRepo.FindFavoriteTours(ctx, userID)
	if err != nil {
		return fmt.Errorf("s.userRepo.FindFavoriteTours -> %w", err)
	}
	for _, favorite := range favorites {
		if favorite.ID == tourID {
			return ErrAlreadyFavorite
		}
	}

	if err := s.userRepo.AddFavoriteTour(ctx, userID, tourID); err != nil {
		return fmt.Errorf("s.userRepo.AddFavoriteTour -> %w", err)
	}

	return nil
}

func (s *BookingService) RemoveFromFavorites(ctx context.Context, userID, tourID uint) error {
	favorites, err := s.userRepo.FindFavoriteTours(ctx, userID)
	if err != nil {
		return fmt.Errorf("s.userRepo.FindFavoriteTours -> %w", err)
	}

	found := false
	for _, favorite := range favorites {
		if favorite.ID == tourID {
			found = true
			break
		}
	}
	if !found {
		return ErrNotFavorite
	}

	if err := s.userRepo.RemoveFavoriteTour(ctx, userID, tourID); err != nil {
		return fmt.Errorf("s.userRepo.RemoveFavoriteTour -> %w", err)
	}

	return nil
}
