package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/pkg/slugger"
	"github.com/trailpost/tours-api/internal/repository"
)

var (
	ErrTourNameExists         = repository.ErrTourNameExists
	ErrTourNotFound           = repository.ErrTourNotFound
	ErrDiscountNotBelowPrice  = errors.New("discount price must be below the tour price")
	ErrInvalidSortField       = errors.New("invalid sort field")
	ErrInvalidCoordinates     = errors.New("latitude and longitude must be provided as lat,lng")
)

// Earth radii used to convert a surface distance into radians, matching the
// unit handling of the geo endpoints.
const (
	earthRadiusMi = 3963.2
	earthRadiusKm = 6378.1
)

var sortableTourColumns = map[string]string{
	"price":            "price",
	"duration":         "duration",
	"ratings_average":  "ratings_average",
	"ratings_quantity": "ratings_quantity",
	"name":             "name",
	"created_at":       "created_at",
}

type TourRepository interface {
	Create(ctx context.Context, tour domain.Tour) (domain.Tour, error)
	FindByID(ctx context.Context, id uint) (domain.Tour, error)
	FindBySlug(ctx context.Context, slug string) (domain.Tour, error)
	FindAll(ctx context.Context, sort string, limit, offset int) ([]domain.Tour, error)
	Update(ctx context.Context, id uint, columns map[string]any) (domain.Tour, error)
	Delete(ctx context.Context, id uint) error
	Stats(ctx context.Context) ([]domain.TourStats, error)
}

type TourService struct {
	repo TourRepository
}

func NewTourService(repo TourRepository) *TourService {
	return &TourService{
		repo: repo,
	}
}

func (s *TourService) CreateTour(ctx context.Context, tour domain.Tour) (domain.Tour, error) {
	if tour.PriceDiscount != nil && *tour.PriceDiscount >= tour.Price {
		return domain.Tour{}, ErrDiscountNotBelowPrice
	}

	tour.Slug = slugger.Slugify(tour.Name)
	// The rating aggregate belongs to the review ledger; client input never
	// reaches it.
	tour.RatingsAverage = 4.5
	tour.RatingsQuantity = 0

	created, err := s.repo.Create(ctx, tour)
	if err != nil {
		return domain.Tour{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *TourService) GetTour(ctx context.Context, id uint) (domain.Tour, error) {
	tour, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Tour{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return tour, nil
}

func (s *TourService) GetTourBySlug(ctx context.Context, slug string) (domain.Tour, error) {
	tour, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return domain.Tour{}, fmt.Errorf("s.repo.FindBySlug -> %w", err)
	}

	return tour, nil
}

// ListTours lists non-secret tours. sortParam is a comma-separated field list,
// "-" prefix for descending, e.g. "-ratings_average,price".
func (s *TourService) ListTours(ctx context.Context, sortParam string, limit, offset int) ([]domain.Tour, error) {
	sortSQL, err := buildSortClause(sortParam)
	if err != nil {
		return nil, err
	}

	tours, err := s.repo.FindAll(ctx, sortSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return tours, nil
}

// ListTopCheapTours is the "top 5 cheap" alias: best rated first, cheapest
// breaking ties.
func (s *TourService) ListTopCheapTours(ctx context.Context) ([]domain.Tour, error) {
	tours, err := s.repo.FindAll(ctx, "ratings_average DESC, price ASC", 5, 0)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return tours, nil
}

func (s *TourService) UpdateTour(ctx context.Context, id uint, updates domain.Tour) (domain.Tour, error) {
	columns := map[string]any{}

	if updates.Name != "" {
		columns["name"] = updates.Name
		columns["slug"] = slugger.Slugify(updates.Name)
	}
	if updates.Duration != 0 {
		columns["duration"] = updates.Duration
	}
	if updates.MaxGroupSize != 0 {
		columns["max_group_size"] = updates.MaxGroupSize
	}
	if updates.Difficulty != "" {
		columns["difficulty"] = updates.Difficulty
	}
	if updates.Summary != "" {
		columns["summary"] = updates.Summary
	}
	if updates.Description != "" {
		columns["description"] = updates.Description
	}
	if updates.ImageCover != "" {
		columns["image_cover"] = updates.ImageCover
	}

	price := updates.Price
	if price != 0 {
		columns["price"] = price
	}
	if updates.PriceDiscount != nil {
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return domain.Tour{}, fmt.Errorf("s.repo.FindByID -> %w", err)
		}
		if price == 0 {
			price = current.Price
		}
		if *updates.PriceDiscount >= price {
			return domain.Tour{}, ErrDiscountNotBelowPrice
		}
		columns["price_discount"] = *updates.PriceDiscount
	}

	if len(columns) == 0 {
		return s.GetTour(ctx, id)
	}

	updated, err := s.repo.Update(ctx, id, columns)
	if err != nil {
		return domain.Tour{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *TourService) DeleteTour(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

func (s *TourService) GetTourStats(ctx context.Context) ([]domain.TourStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.Stats -> %w", err)
	}

	return stats, nil
}

// GetMonthlyPlan buckets the year's departures by month, busiest month first.
func (s *TourService) GetMonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error) {
	tours, err := s.repo.FindAll(ctx, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	byMonth := map[int][]string{}
	for _, tour := range tours {
		for _, date := range tour.StartDates {
			if date.Year() != year {
				continue
			}
			month := int(date.Month())
			byMonth[month] = append(byMonth[month], tour.Name)
		}
	}

	plan := make([]domain.MonthlyPlanEntry, 0, len(byMonth))
	for month, names := range byMonth {
		plan = append(plan, domain.MonthlyPlanEntry{
			Month:    month,
			NumTours: len(names),
			Tours:    names,
		})
	}

	sort.Slice(plan, func(i, j int) bool {
		if plan[i].NumTours != plan[j].NumTours {
			return plan[i].NumTours > plan[j].NumTours
		}
		return plan[i].Month < plan[j].Month
	})

	return plan, nil
}

// FindToursWithin returns tours whose start location lies within distance
// (in the given unit, "mi" or anything else for km) of the center point.
func (s *TourService) FindToursWithin(ctx context.Context, lat, lng, distance float64, unit string) ([]domain.Tour, error) {
	radius := earthRadiusKm
	if unit == "mi" {
		radius = earthRadiusMi
	}
	maxRadians := distance / radius

	tours, err := s.repo.FindAll(ctx, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	var within []domain.Tour
	for _, tour := range tours {
		if tour.StartLocation == nil {
			continue
		}
		tourLng, tourLat := tour.StartLocation.Coordinates[0], tour.StartLocation.Coordinates[1]
		if haversineRadians(lat, lng, tourLat, tourLng) <= maxRadians {
			within = append(within, tour)
		}
	}

	return within, nil
}

// TourDistances reports each tour's distance from the point, nearest first.
func (s *TourService) TourDistances(ctx context.Context, lat, lng float64, unit string) ([]domain.TourDistance, error) {
	radius := earthRadiusKm
	if unit == "mi" {
		radius = earthRadiusMi
	}

	tours, err := s.repo.FindAll(ctx, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	var distances []domain.TourDistance
	for _, tour := range tours {
		if tour.StartLocation == nil {
			continue
		}
		tourLng, tourLat := tour.StartLocation.Coordinates[0], tour.StartLocation.Coordinates[1]
		distances = append(distances, domain.TourDistance{
			ID:       tour.ID,
			Name:     tour.Name,
			Distance: haversineRadians(lat, lng, tourLat, tourLng) * radius,
		})
	}

	sort.Slice(distances, func(i, j int) bool {
		return distances[i].Distance < distances[j].Distance
	})

	return distances, nil
}

func buildSortClause(sortParam string) (string, error) {
	if sortParam == "" {
		return "", nil
	}

	var clauses []string
	for _, field := range strings.Split(sortParam, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		direction := "ASC"
		if strings.HasPrefix(field, "-") {
			direction = "DESC"
			field = field[1:]
		}

		column, ok := sortableTourColumns[field]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrInvalidSortField, field)
		}

		clauses = append(clauses, column+" "+direction)
	}

	return strings.Join(clauses, ", "), nil
}

// haversineRadians returns the central angle between two points in radians.
func haversineRadians(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180

	rLat1, rLat2 := lat1*degToRad, lat2*degToRad
	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
