package service

import (
	"context"
	"fmt"

	"github.com/trailpost/tours-api/internal/domain"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	UpdateProfile(ctx context.Context, id uint, name, email, photo string) (domain.User, error)
	Delete(ctx context.Context, id uint) ([]uint, error)
	Deactivate(ctx context.Context, id uint) error
	FindFavoriteTours(ctx context.Context, userID uint) ([]domain.Tour, error)
}

// ReviewAggregator re-runs a tour's rating aggregate; the user service needs
// it because an admin deletion cascades the user's reviews away.
type ReviewAggregator interface {
	RecomputeTourRatings(ctx context.Context, tourID uint) error
}

type UserService struct {
	repo       UserRepository
	aggregator ReviewAggregator
}

func NewUserService(repo UserRepository, aggregator ReviewAggregator) *UserService {
	return &UserService{
		repo:       repo,
		aggregator: aggregator,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return users, nil
}

// UpdateProfile changes name/email/photo only. Password changes go through the
// auth service so the password-changed-at stamp is never skipped.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, name, email, photo string) (domain.User, error) {
	if email != "" {
		email = NormalizeEmail(email)
	}

	user, err := s.repo.UpdateProfile(ctx, id, name, email, photo)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.UpdateProfile -> %w", err)
	}

	return user, nil
}

// DeactivateMe soft-deletes: the record stays for referential integrity but
// disappears from every lookup.
func (s *UserService) DeactivateMe(ctx context.Context, id uint) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Deactivate -> %w", err)
	}

	return nil
}

// DeleteUser hard-deletes a user together with their bookings and reviews,
// then re-runs the rating aggregate of every tour the user had reviewed.
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	reviewedTourIDs, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	for _, tourID := range reviewedTourIDs {
		if err := s.aggregator.RecomputeTourRatings(ctx, tourID); err != nil {
			return fmt.Errorf("s.aggregator.RecomputeTourRatings -> %w", err)
		}
	}

	return nil
}

func (s *UserService) ListFavoriteTours(ctx context.Context, userID uint) ([]domain.Tour, error) {
	tours, err := s.repo.FindFavoriteTours(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindFavoriteTours -> %w", err)
	}

	return tours, nil
}
