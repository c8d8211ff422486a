package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/repository"
	"github.com/trailpost/tours-api/internal/repository/dao"
)

// newTestDB opens a per-test in-memory database so tests stay independent.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, dao.InitTables(db))

	return db
}

type testRepos struct {
	db       *gorm.DB
	users    *repository.UserRepository
	tours    *repository.TourRepository
	bookings *repository.BookingRepository
	reviews  *repository.ReviewRepository
}

func newTestRepos(db *gorm.DB) testRepos {
	return testRepos{
		db:       db,
		users:    repository.NewUserRepository(dao.NewUserDAO(db)),
		tours:    repository.NewTourRepository(dao.NewTourDAO(db)),
		bookings: repository.NewBookingRepository(dao.NewBookingDAO(db)),
		reviews:  repository.NewReviewRepository(dao.NewReviewDAO(db)),
	}
}

func domainUser(name, email, password string) domain.User {
	return domain.User{
		Name:     name,
		Email:    email,
		Password: password,
	}
}

func createTestUser(t *testing.T, repos testRepos, email string) domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("pass1234"), bcrypt.MinCost)
	require.NoError(t, err)

	user, err := repos.users.Create(context.Background(), domain.User{
		Name:     "Test User",
		Email:    email,
		Role:     domain.RoleUser,
		Password: string(hash),
		Active:   true,
	})
	require.NoError(t, err)

	return user
}

func createTestTour(t *testing.T, repos testRepos, name string, price float64) domain.Tour {
	t.Helper()

	tour, err := repos.tours.Create(context.Background(), domain.Tour{
		Name:           name,
		Slug:           name,
		Duration:       5,
		MaxGroupSize:   10,
		Difficulty:     domain.DifficultyEasy,
		Price:          price,
		RatingsAverage: 4.5,
		Summary:        "A test tour",
		StartDates: []time.Time{
			time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)

	return tour
}

func createTestBooking(t *testing.T, repos testRepos, tourID, userID uint, price float64) domain.Booking {
	t.Helper()

	booking, err := repos.bookings.Create(context.Background(), domain.Booking{
		TourID: tourID,
		UserID: userID,
		Price:  price,
		Paid:   true,
	})
	require.NoError(t, err)

	return booking
}
