package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/repository/dao"
)

var (
	ErrTourNameExists = dao.ErrTourNameExists
	ErrTourNotFound   = dao.ErrTourNotFound
)

type TourDAO interface {
	Insert(ctx context.Context, tour dao.Tour) (dao.Tour, error)
	FindByID(ctx context.Context, id uint) (dao.Tour, error)
	FindBySlug(ctx context.Context, slug string) (dao.Tour, error)
	FindAll(ctx context.Context, sort string, limit, offset int) ([]dao.Tour, error)
	Update(ctx context.Context, id uint, columns map[string]any) (dao.Tour, error)
	Delete(ctx context.Context, id uint) error
	UpdateRatings(ctx context.Context, id uint, average float64, quantity int) error
	Stats(ctx context.Context) ([]dao.TourStatsRow, error)
}

type TourRepository struct {
	dao TourDAO
}

func NewTourRepository(dao TourDAO) *TourRepository {
	return &TourRepository{
		dao: dao,
	}
}

func (r *TourRepository) Create(ctx context.Context, tour domain.Tour) (domain.Tour, error) {
	created, err := r.dao.Insert(ctx, tourDomainToDao(tour))
	if err != nil {
		return domain.Tour{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return tourDaoToDomain(created), nil
}

func (r *TourRepository) FindByID(ctx context.Context, id uint) (domain.Tour, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Tour{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return tourDaoToDomain(found), nil
}

func (r *TourRepository) FindBySlug(ctx context.Context, slug string) (domain.Tour, error) {
	found, err := r.dao.FindBySlug(ctx, slug)
	if err != nil {
		return domain.Tour{}, fmt.Errorf("r.dao.FindBySlug -> %w", err)
	}

	return tourDaoToDomain(found), nil
}

func (r *TourRepository) FindAll(ctx context.Context, sort string, limit, offset int) ([]domain.Tour, error) {
	found, err := r.dao.FindAll(ctx, sort, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	tours := make([]domain.Tour, 0, len(found))
	for _, t := range found {
		tours = append(tours, tourDaoToDomain(t))
	}

	return tours, nil
}

func (r *TourRepository) Update(ctx context.Context, id uint, columns map[string]any) (domain.Tour, error) {
	updated, err := r.dao.Update(ctx, id, columns)
	if err != nil {
		return domain.Tour{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return tourDaoToDomain(updated), nil
}

func (r *TourRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *TourRepository) UpdateRatings(ctx context.Context, id uint, average float64, quantity int) error {
	if err := r.dao.UpdateRatings(ctx, id, average, quantity); err != nil {
		return fmt.Errorf("r.dao.UpdateRatings -> %w", err)
	}

	return nil
}

func (r *TourRepository) Stats(ctx context.Context) ([]domain.TourStats, error) {
	rows, err := r.dao.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.Stats -> %w", err)
	}

	stats := make([]domain.TourStats, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, domain.TourStats{
			Difficulty: row.Difficulty,
			NumTours:   row.NumTours,
			NumRatings: row.NumRatings,
			AvgRating:  row.AvgRating,
			AvgPrice:   row.AvgPrice,
			MinPrice:   row.MinPrice,
			MaxPrice:   row.MaxPrice,
		})
	}

	return stats, nil
}

func tourDomainToDao(t domain.Tour) dao.Tour {
	daoTour := dao.Tour{
		ID:              t.ID,
		Name:            t.Name,
		Slug:            t.Slug,
		Duration:        t.Duration,
		MaxGroupSize:    t.MaxGroupSize,
		Difficulty:      t.Difficulty,
		Price:           t.Price,
		PriceDiscount:   t.PriceDiscount,
		RatingsAverage:  t.RatingsAverage,
		RatingsQuantity: t.RatingsQuantity,
		Summary:         t.Summary,
		Description:     t.Description,
		ImageCover:      t.ImageCover,
		Images:          datatypes.NewJSONSlice(append([]string(nil), t.Images...)),
		StartDates:      datatypes.NewJSONSlice(append([]time.Time(nil), t.StartDates...)),
		Secret:          t.Secret,
		Locations:       datatypes.NewJSONSlice(locationsDomainToDao(t.Locations)),
	}

	if t.StartLocation != nil {
		loc := datatypes.NewJSONType(locationDomainToDao(*t.StartLocation))
		daoTour.StartLocation = &loc
	}

	for _, g := range t.Guides {
		daoTour.Guides = append(daoTour.Guides, dao.User{ID: g.ID})
	}

	return daoTour
}

func tourDaoToDomain(t dao.Tour) domain.Tour {
	tour := domain.Tour{
		ID:              t.ID,
		Name:            t.Name,
		Slug:            t.Slug,
		Duration:        t.Duration,
		MaxGroupSize:    t.MaxGroupSize,
		Difficulty:      t.Difficulty,
		Price:           t.Price,
		PriceDiscount:   t.PriceDiscount,
		RatingsAverage:  t.RatingsAverage,
		RatingsQuantity: t.RatingsQuantity,
		Summary:         t.Summary,
		Description:     t.Description,
		ImageCover:      t.ImageCover,
		Images:          append([]string(nil), t.Images...),
		StartDates:      append([]time.Time(nil), t.StartDates...),
		Secret:          t.Secret,
		Locations:       locationsDaoToDomain(t.Locations),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}

	if t.StartLocation != nil {
		loc := locationDaoToDomain(t.StartLocation.Data())
		tour.StartLocation = &loc
	}

	for _, g := range t.Guides {
		tour.Guides = append(tour.Guides, userDaoToDomain(g))
	}

	return tour
}

func locationDomainToDao(l domain.Location) dao.Location {
	return dao.Location{
		Coordinates: l.Coordinates,
		Address:     l.Address,
		Description: l.Description,
		Day:         l.Day,
	}
}

func locationDaoToDomain(l dao.Location) domain.Location {
	return domain.Location{
		Coordinates: l.Coordinates,
		Address:     l.Address,
		Description: l.Description,
		Day:         l.Day,
	}
}

func locationsDomainToDao(locations []domain.Location) []dao.Location {
	out := make([]dao.Location, 0, len(locations))
	for _, l := range locations {
		out = append(out, locationDomainToDao(l))
	}

	return out
}

func locationsDaoToDomain(locations []dao.Location) []domain.Location {
	if len(locations) == 0 {
		return nil
	}

	out := make([]domain.Location, 0, len(locations))
	for _, l := range locations {
		out = append(out, locationDaoToDomain(l))
	}

	return out
}
