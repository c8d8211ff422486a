package repository

import (
	"context"
	"fmt"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/repository/dao"
)

var (
	ErrReviewExists   = dao.ErrReviewExists
	ErrReviewNotFound = dao.ErrReviewNotFound
)

type ReviewDAO interface {
	Insert(ctx context.Context, review dao.Review) (dao.Review, error)
	FindByID(ctx context.Context, id uint) (dao.Review, error)
	FindByTourID(ctx context.Context, tourID uint) ([]dao.Review, error)
	FindByTourAndUser(ctx context.Context, tourID, userID uint) (dao.Review, error)
	Update(ctx context.Context, id uint, columns map[string]any) (dao.Review, error)
	Delete(ctx context.Context, id uint) error
	Aggregate(ctx context.Context, tourID uint) (dao.ReviewAggregate, error)
}

type ReviewRepository struct {
	dao ReviewDAO
}

func NewReviewRepository(dao ReviewDAO) *ReviewRepository {
	return &ReviewRepository{
		dao: dao,
	}
}

func (r *ReviewRepository) Create(ctx context.Context, review domain.Review) (domain.Review, error) {
	created, err := r.dao.Insert(ctx, dao.Review{
		Review: review.Review,
		Rating: review.Rating,
		TourID: review.TourID,
		UserID: review.UserID,
	})
	if err != nil {
		return domain.Review{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return reviewDaoToDomain(created), nil
}

func (r *ReviewRepository) FindByID(ctx context.Context, id uint) (domain.Review, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Review{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return reviewDaoToDomain(found), nil
}

func (r *ReviewRepository) FindByTourID(ctx context.Context, tourID uint) ([]domain.Review, error) {
	found, err := r.dao.FindByTourID(ctx, tourID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByTourID -> %w", err)
	}

	reviews := make([]domain.Review, 0, len(found))
	for _, rev := range found {
		reviews = append(reviews, reviewDaoToDomain(rev))
	}

	return reviews, nil
}

func (r *ReviewRepository) FindByTourAndUser(ctx context.Context, tourID, userID uint) (domain.Review, error) {
	found, err := r.dao.FindByTourAndUser(ctx, tourID, userID)
	if err != nil {
		return domain.Review{}, fmt.Errorf("r.dao.FindByTourAndUser -> %w", err)
	}

	return reviewDaoToDomain(found), nil
}

func (r *ReviewRepository) Update(ctx context.Context, id uint, review string, rating int) (domain.Review, error) {
	columns := map[string]any{}
	if review != "" {
		columns["review"] = review
	}
	if rating != 0 {
		columns["rating"] = rating
	}

	updated, err := r.dao.Update(ctx, id, columns)
	if err != nil {
		return domain.Review{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return reviewDaoToDomain(updated), nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *ReviewRepository) Aggregate(ctx context.Context, tourID uint) (count int, average float64, err error) {
	agg, err := r.dao.Aggregate(ctx, tourID)
	if err != nil {
		return 0, 0, fmt.Errorf("r.dao.Aggregate -> %w", err)
	}

	return agg.NumRatings, agg.AvgRating, nil
}

func reviewDaoToDomain(rev dao.Review) domain.Review {
	review := domain.Review{
		ID:        rev.ID,
		Review:    rev.Review,
		Rating:    rev.Rating,
		TourID:    rev.TourID,
		UserID:    rev.UserID,
		CreatedAt: rev.CreatedAt,
		UpdatedAt: rev.UpdatedAt,
	}

	if rev.User.ID != 0 {
		user := userDaoToDomain(rev.User)
		review.User = &user
	}

	return review
}
