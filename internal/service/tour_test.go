package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailpost/tours-api/internal/domain"
)

func newTestTourService(t *testing.T) (*TourService, testRepos) {
	t.Helper()

	repos := newTestRepos(newTestDB(t))
	svc := NewTourService(repos.tours)

	return svc, repos
}

func floatPtr(f float64) *float64 {
	return &f
}

func TestTourService_CreateTour(t *testing.T) {
	svc, _ := newTestTourService(t)

	tour, err := svc.CreateTour(context.Background(), domain.Tour{
		Name:         "The Forest Hiker",
		Duration:     5,
		MaxGroupSize: 10,
		Difficulty:   domain.DifficultyEasy,
		Price:        497,
		Summary:      "Through the woods",
		// Client supplied ratings are ignored.
		RatingsAverage:  1.0,
		RatingsQuantity: 42,
	})
	require.NoError(t, err)

	assert.Equal(t, "the-forest-hiker", tour.Slug)
	assert.Equal(t, 4.5, tour.RatingsAverage)
	assert.Equal(t, 0, tour.RatingsQuantity)
}

func TestTourService_CreateTour_DuplicateName(t *testing.T) {
	svc, repos := newTestTourService(t)

	createTestTour(t, repos, "The Forest Hiker", 497)

	_, err := svc.CreateTour(context.Background(), domain.Tour{
		Name:         "The Forest Hiker",
		Duration:     5,
		MaxGroupSize: 10,
		Difficulty:   domain.DifficultyEasy,
		Price:        497,
		Summary:      "Same name",
	})
	assert.ErrorIs(t, err, ErrTourNameExists)
}

func TestTourService_CreateTour_DiscountMustBeBelowPrice(t *testing.T) {
	svc, _ := newTestTourService(t)

	_, err := svc.CreateTour(context.Background(), domain.Tour{
		Name:          "The Forest Hiker",
		Duration:      5,
		MaxGroupSize:  10,
		Difficulty:    domain.DifficultyEasy,
		Price:         497,
		PriceDiscount: floatPtr(497),
		Summary:       "Too generous",
	})
	assert.ErrorIs(t, err, ErrDiscountNotBelowPrice)
}

func TestTourService_ListTours_Sorting(t *testing.T) {
	svc, repos := newTestTourService(t)

	createTestTour(t, repos, "Cheap Tour Here", 100)
	createTestTour(t, repos, "Pricey Tour Here", 900)
	createTestTour(t, repos, "Middle Tour Here", 500)

	tours, err := svc.ListTours(context.Background(), "-price", 10, 0)
	require.NoError(t, err)
	require.Len(t, tours, 3)
	assert.Equal(t, "Pricey Tour Here", tours[0].Name)
	assert.Equal(t, "Cheap Tour Here", tours[2].Name)

	_, err = svc.ListTours(context.Background(), "password; DROP TABLE tours", 10, 0)
	assert.ErrorIs(t, err, ErrInvalidSortField)
}

func TestTourService_ListTours_HidesSecretTours(t *testing.T) {
	svc, repos := newTestTourService(t)

	createTestTour(t, repos, "Public Tour Here", 100)
	_, err := repos.tours.Create(context.Background(), domain.Tour{
		Name:         "Secret Staff Retreat",
		Slug:         "secret-staff-retreat",
		Duration:     3,
		MaxGroupSize: 5,
		Difficulty:   domain.DifficultyEasy,
		Price:        1,
		Summary:      "Shh",
		Secret:       true,
	})
	require.NoError(t, err)

	tours, err := svc.ListTours(context.Background(), "", 10, 0)
	require.NoError(t, err)
	require.Len(t, tours, 1)
	assert.Equal(t, "Public Tour Here", tours[0].Name)
}

func TestTourService_ListTopCheapTours(t *testing.T) {
	svc, repos := newTestTourService(t)

	names := []string{"Tour Alpha One", "Tour Beta Two", "Tour Gamma Three", "Tour Delta Four", "Tour Epsilon Five", "Tour Zeta Six"}
	for i, name := range names {
		createTestTour(t, repos, name, float64(100*(i+1)))
	}

	tours, err := svc.ListTopCheapTours(context.Background())
	require.NoError(t, err)
	require.Len(t, tours, 5)
	// Equal ratings, so the cheapest comes first.
	assert.Equal(t, "Tour Alpha One", tours[0].Name)
}

func TestTourService_UpdateTour(t *testing.T) {
	svc, repos := newTestTourService(t)

	tour := createTestTour(t, repos, "The Forest Hiker", 497)

	updated, err := svc.UpdateTour(context.Background(), tour.ID, domain.Tour{
		Name: "The Rainforest Hiker",
	})
	require.NoError(t, err)
	assert.Equal(t, "the-rainforest-hiker", updated.Slug)
	assert.Equal(t, 497.0, updated.Price)

	// A discount against the current stored price.
	_, err = svc.UpdateTour(context.Background(), tour.ID, domain.Tour{
		PriceDiscount: floatPtr(500),
	})
	assert.ErrorIs(t, err, ErrDiscountNotBelowPrice)

	updated, err = svc.UpdateTour(context.Background(), tour.ID, domain.Tour{
		PriceDiscount: floatPtr(400),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.PriceDiscount)
	assert.Equal(t, 400.0, *updated.PriceDiscount)
}

func TestTourService_DeleteTour(t *testing.T) {
	svc, repos := newTestTourService(t)

	tour := createTestTour(t, repos, "The Forest Hiker", 497)

	require.NoError(t, svc.DeleteTour(context.Background(), tour.ID))

	_, err := svc.GetTour(context.Background(), tour.ID)
	assert.ErrorIs(t, err, ErrTourNotFound)

	err = svc.DeleteTour(context.Background(), tour.ID)
	assert.ErrorIs(t, err, ErrTourNotFound)
}

func TestTourService_GetTourStats(t *testing.T) {
	svc, repos := newTestTourService(t)

	createTestTour(t, repos, "Easy Morning Walk", 100)
	createTestTour(t, repos, "Easy Evening Walk", 300)

	stats, err := svc.GetTourStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, domain.DifficultyEasy, stats[0].Difficulty)
	assert.Equal(t, 2, stats[0].NumTours)
	assert.Equal(t, 200.0, stats[0].AvgPrice)
	assert.Equal(t, 100.0, stats[0].MinPrice)
	assert.Equal(t, 300.0, stats[0].MaxPrice)
}

func TestTourService_GetMonthlyPlan(t *testing.T) {
	svc, repos := newTestTourService(t)

	mkTour := func(name string, dates ...time.Time) {
		_, err := repos.tours.Create(context.Background(), domain.Tour{
			Name:         name,
			Slug:         name,
			Duration:     5,
			MaxGroupSize: 10,
			Difficulty:   domain.DifficultyEasy,
			Price:        100,
			Summary:      "s",
			StartDates:   dates,
		})
		require.NoError(t, err)
	}

	july := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	sept := time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)
	lastYear := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	mkTour("Tour One Name", july, sept)
	mkTour("Tour Two Name", july)
	mkTour("Tour Three Name", lastYear)

	plan, err := svc.GetMonthlyPlan(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, plan, 2)

	// July has two departures and leads the plan.
	assert.Equal(t, 7, plan[0].Month)
	assert.Equal(t, 2, plan[0].NumTours)
	assert.ElementsMatch(t, []string{"Tour One Name", "Tour Two Name"}, plan[0].Tours)

	assert.Equal(t, 9, plan[1].Month)
	assert.Equal(t, 1, plan[1].NumTours)
}

func geoTour(t *testing.T, repos testRepos, name string, lng, lat float64) domain.Tour {
	t.Helper()

	tour, err := repos.tours.Create(context.Background(), domain.Tour{
		Name:         name,
		Slug:         name,
		Duration:     5,
		MaxGroupSize: 10,
		Difficulty:   domain.DifficultyEasy,
		Price:        100,
		Summary:      "s",
		StartLocation: &domain.Location{
			Coordinates: [2]float64{lng, lat},
		},
	})
	require.NoError(t, err)

	return tour
}

func TestTourService_FindToursWithin(t *testing.T) {
	svc, repos := newTestTourService(t)

	// Roughly Los Angeles and New York.
	la := geoTour(t, repos, "West Coast Surfer", -118.24, 34.05)
	geoTour(t, repos, "East Coast Roamer", -74.00, 40.71)

	// 500 miles around San Francisco catches only Los Angeles.
	tours, err := svc.FindToursWithin(context.Background(), 37.77, -122.42, 500, "mi")
	require.NoError(t, err)
	require.Len(t, tours, 1)
	assert.Equal(t, la.ID, tours[0].ID)

	// A continent-wide radius catches both.
	tours, err = svc.FindToursWithin(context.Background(), 37.77, -122.42, 5000, "km")
	require.NoError(t, err)
	assert.Len(t, tours, 2)
}

func TestTourService_TourDistances(t *testing.T) {
	svc, repos := newTestTourService(t)

	la := geoTour(t, repos, "West Coast Surfer", -118.24, 34.05)
	ny := geoTour(t, repos, "East Coast Roamer", -74.00, 40.71)

	distances, err := svc.TourDistances(context.Background(), 37.77, -122.42, "mi")
	require.NoError(t, err)
	require.Len(t, distances, 2)

	// Nearest first: Los Angeles is ~350 miles from San Francisco, New York
	// about 2500.
	assert.Equal(t, la.ID, distances[0].ID)
	assert.InDelta(t, 350, distances[0].Distance, 50)
	assert.Equal(t, ny.ID, distances[1].ID)
	assert.InDelta(t, 2500, distances[1].Distance, 150)
}
