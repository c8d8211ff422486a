package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/repository"
)

// Ratings of a tour with no reviews fall back to this default instead of zero,
// so fresh tours are not buried by rating-based sorts.
const defaultRatingsAverage = 4.5

var (
	ErrReviewNotFound        = repository.ErrReviewNotFound
	ErrDuplicateReview       = errors.New("tour was already reviewed by this user")
	ErrReviewRequiresBooking = errors.New("tour can only be reviewed after booking it")
	ErrReviewForbidden       = errors.New("review belongs to another user")
)

type ReviewRepository interface {
	Create(ctx context.Context, review domain.Review) (domain.Review, error)
	FindByID(ctx context.Context, id uint) (domain.Review, error)
	FindByTourID(ctx context.Context, tourID uint) ([]domain.Review, error)
	FindByTourAndUser(ctx context.Context, tourID, userID uint) (domain.Review, error)
	Update(ctx context.Context, id uint, review string, rating int) (domain.Review, error)
	Delete(ctx context.Context, id uint) error
	Aggregate(ctx context.Context, tourID uint) (count int, average float64, err error)
}

type ReviewBookingRepository interface {
	FindByTourAndUser(ctx context.Context, tourID, userID uint) (domain.Booking, error)
}

type ReviewTourRepository interface {
	UpdateRatings(ctx context.Context, id uint, average float64, quantity int) error
}

type ReviewService struct {
	repo        ReviewRepository
	bookingRepo ReviewBookingRepository
	tourRepo    ReviewTourRepository
}

func NewReviewService(repo ReviewRepository, bookingRepo ReviewBookingRepository, tourRepo ReviewTourRepository) *ReviewService {
	return &ReviewService{
		repo:        repo,
		bookingRepo: bookingRepo,
		tourRepo:    tourRepo,
	}
}

// CreateReview accepts a review only from a user who booked the tour and has
// not reviewed it yet. The (tour,user) unique index backs the duplicate check
// against concurrent submissions.
func (s *ReviewService) CreateReview(ctx context.Context, review domain.Review) (domain.Review, error) {
	_, err := s.bookingRepo.FindByTourAndUser(ctx, review.TourID, review.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return domain.Review{}, ErrReviewRequiresBooking
		}

		return domain.Review{}, fmt.Errorf("s.bookingRepo.FindByTourAndUser -> %w", err)
	}

	_, err = s.repo.FindByTourAndUser(ctx, review.TourID, review.UserID)
	if err == nil {
		return domain.Review{}, ErrDuplicateReview
	}
	if !errors.Is(err, repository.ErrReviewNotFound) {
		return domain.Review{}, fmt.Errorf("s.repo.FindByTourAndUser -> %w", err)
	}

	created, err := s.repo.Create(ctx, review)
	if err != nil {
		if errors.Is(err, repository.ErrReviewExists) {
			return domain.Review{}, ErrDuplicateReview
		}

		return domain.Review{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	if err := s.RecomputeTourRatings(ctx, created.TourID); err != nil {
		return domain.Review{}, err
	}

	return created, nil
}

func (s *ReviewService) GetReview(ctx context.Context, id uint) (domain.Review, error) {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Review{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return review, nil
}

func (s *ReviewService) ListReviewsForTour(ctx context.Context, tourID uint) ([]domain.Review, error) {
	reviews, err := s.repo.FindByTourID(ctx, tourID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByTourID -> %w", err)
	}

	return reviews, nil
}

// UpdateReview rewrites the text and rating of an existing review. Only the
// author or an admin may touch it.
func (s *ReviewService) UpdateReview(ctx context.Context, id uint, actor domain.User, text string, rating int) (domain.Review, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Review{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if existing.UserID != actor.ID && !actor.HasRole(domain.RoleAdmin) {
		return domain.Review{}, ErrReviewForbidden
	}

	updated, err := s.repo.Update(ctx, id, text, rating)
	if err != nil {
		return domain.Review{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	if err := s.RecomputeTourRatings(ctx, updated.TourID); err != nil {
		return domain.Review{}, err
	}

	return updated, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, id uint, actor domain.User) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if existing.UserID != actor.ID && !actor.HasRole(domain.RoleAdmin) {
		return ErrReviewForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return s.RecomputeTourRatings(ctx, existing.TourID)
}

// RecomputeTourRatings rebuilds the tour's denormalized rating counters from
// the surviving reviews. With no reviews left the tour returns to the default
// average and a zero count.
func (s *ReviewService) RecomputeTourRatings(ctx context.Context, tourID uint) error {
	count, average, err := s.repo.Aggregate(ctx, tourID)
	if err != nil {
		return fmt.Errorf("s.repo.Aggregate -> %w", err)
	}

	if count == 0 {
		average = defaultRatingsAverage
	} else {
		average = math.Round(average*10) / 10
	}

	if err := s.tourRepo.UpdateRatings(ctx, tourID, average, count); err != nil {
		return fmt.Errorf("s.tourRepo.UpdateRatings -> %w", err)
	}

	return nil
}
