package dao

import (
	"context"
	"fmt"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// startPostgres spins up a disposable postgres container and opens a gorm
// connection against it. Skipped under -short so the suite runs without
// Docker.
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)
	require.NoError(t, pool.Client.Ping())

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=tours",
			"POSTGRES_PASSWORD=tours",
			"POSTGRES_DB=tours_test",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pool.Purge(resource)
	})

	dsn := fmt.Sprintf("host=localhost port=%s user=tours password=tours dbname=tours_test sslmode=disable",
		resource.GetPort("5432/tcp"))

	var db *gorm.DB
	err = pool.Retry(func() error {
		var openErr error
		db, openErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if openErr != nil {
			return openErr
		}

		sqlDB, pingErr := db.DB()
		if pingErr != nil {
			return pingErr
		}

		return sqlDB.Ping()
	})
	require.NoError(t, err)
	require.NoError(t, InitTables(db))

	return db
}

func TestPostgres_UniqueViolations(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	userDAO := NewUserDAO(db)
	tourDAO := NewTourDAO(db)
	bookingDAO := NewBookingDAO(db)

	user, err := userDAO.Insert(ctx, User{
		Name: "Alice", Email: "alice@example.com", Role: "user",
		Password: "hash", Active: true,
	})
	require.NoError(t, err)

	// The driver's unique-violation error code maps onto the email sentinel.
	_, err = userDAO.Insert(ctx, User{
		Name: "Impostor", Email: "alice@example.com", Role: "user",
		Password: "hash", Active: true,
	})
	assert.ErrorIs(t, err, ErrUserEmailExists)

	tour, err := tourDAO.Insert(ctx, Tour{
		Name: "The Forest Hiker", Slug: "the-forest-hiker",
		Duration: 5, MaxGroupSize: 10, Difficulty: "easy",
		Price: 497, RatingsAverage: 4.5, Summary: "s",
	})
	require.NoError(t, err)

	_, err = bookingDAO.Insert(ctx, Booking{TourID: tour.ID, UserID: user.ID, Price: 497, Paid: true})
	require.NoError(t, err)

	// The (tour,user) index closes the race between concurrent bookings.
	_, err = bookingDAO.Insert(ctx, Booking{TourID: tour.ID, UserID: user.ID, Price: 497, Paid: true})
	assert.ErrorIs(t, err, ErrBookingExists)
}

func TestPostgres_BookingDeleteCascadesFavorite(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	userDAO := NewUserDAO(db)
	tourDAO := NewTourDAO(db)
	bookingDAO := NewBookingDAO(db)

	user, err := userDAO.Insert(ctx, User{
		Name: "Alice", Email: "alice@example.com", Role: "user",
		Password: "hash", Active: true,
	})
	require.NoError(t, err)

	tour, err := tourDAO.Insert(ctx, Tour{
		Name: "The Forest Hiker", Slug: "the-forest-hiker",
		Duration: 5, MaxGroupSize: 10, Difficulty: "easy",
		Price: 497, RatingsAverage: 4.5, Summary: "s",
	})
	require.NoError(t, err)

	booking, err := bookingDAO.Insert(ctx, Booking{TourID: tour.ID, UserID: user.ID, Price: 497, Paid: true})
	require.NoError(t, err)

	require.NoError(t, userDAO.AppendFavoriteTour(ctx, user.ID, tour.ID))

	require.NoError(t, bookingDAO.Delete(ctx, booking.ID))

	favorites, err := userDAO.FindFavoriteTours(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, favorites)
}
