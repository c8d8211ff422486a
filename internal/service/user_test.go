package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailpost/tours-api/internal/domain"
)

func newTestUserService(t *testing.T) (*UserService, *ReviewService, testRepos) {
	t.Helper()

	repos := newTestRepos(newTestDB(t))
	reviewSvc := NewReviewService(repos.reviews, repos.bookings, repos.tours)
	svc := NewUserService(repos.users, reviewSvc)

	return svc, reviewSvc, repos
}

func TestUserService_UpdateProfile(t *testing.T) {
	svc, _, repos := newTestUserService(t)

	user := createTestUser(t, repos, "alice@example.com")

	updated, err := svc.UpdateProfile(context.Background(), user.ID, "Alice B", "  ALICE.B@Example.com ", "alice.jpg")
	require.NoError(t, err)
	assert.Equal(t, "Alice B", updated.Name)
	assert.Equal(t, "alice.b@example.com", updated.Email)
	assert.Equal(t, "alice.jpg", updated.Photo)
}

func TestUserService_UpdateProfile_EmailTaken(t *testing.T) {
	svc, _, repos := newTestUserService(t)

	createTestUser(t, repos, "alice@example.com")
	bob := createTestUser(t, repos, "bob@example.com")

	_, err := svc.UpdateProfile(context.Background(), bob.ID, "", "alice@example.com", "")
	assert.ErrorIs(t, err, ErrUserEmailExists)
}

func TestUserService_DeactivateMe(t *testing.T) {
	svc, _, repos := newTestUserService(t)

	user := createTestUser(t, repos, "alice@example.com")
	createTestUser(t, repos, "bob@example.com")

	require.NoError(t, svc.DeactivateMe(context.Background(), user.ID))

	// Deactivated accounts vanish from every lookup.
	_, err := svc.GetUser(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repos.users.FindByEmail(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserService_DeleteUser_CascadesAndRecomputes(t *testing.T) {
	svc, reviewSvc, repos := newTestUserService(t)

	tour := createTestTour(t, repos, "The Forest Hiker", 497)
	alice := createTestUser(t, repos, "alice@example.com")
	bob := createTestUser(t, repos, "bob@example.com")
	createTestBooking(t, repos, tour.ID, alice.ID, 497)
	createTestBooking(t, repos, tour.ID, bob.ID, 497)

	_, err := reviewSvc.CreateReview(context.Background(), domain.Review{
		TourID: tour.ID, UserID: alice.ID, Review: "Meh", Rating: 1,
	})
	require.NoError(t, err)
	_, err = reviewSvc.CreateReview(context.Background(), domain.Review{
		TourID: tour.ID, UserID: bob.ID, Review: "Great", Rating: 5,
	})
	require.NoError(t, err)

	require.NoError(t, repos.users.AddFavoriteTour(context.Background(), alice.ID, tour.ID))

	require.NoError(t, svc.DeleteUser(context.Background(), alice.ID))

	// Alice's booking, review and favorites are gone.
	bookings, err := repos.bookings.FindByUserID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, bookings)

	reviews, err := repos.reviews.FindByTourID(context.Background(), tour.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, bob.ID, reviews[0].UserID)

	// The tour's aggregate no longer includes the deleted review.
	stored, err := repos.tours.FindByID(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.RatingsQuantity)
	assert.Equal(t, 5.0, stored.RatingsAverage)
}

func TestUserService_DeleteUser_LastReviewerResetsRatings(t *testing.T) {
	svc, reviewSvc, repos := newTestUserService(t)

	tour := createTestTour(t, repos, "The Forest Hiker", 497)
	alice := createTestUser(t, repos, "alice@example.com")
	createTestBooking(t, repos, tour.ID, alice.ID, 497)

	_, err := reviewSvc.CreateReview(context.Background(), domain.Review{
		TourID: tour.ID, UserID: alice.ID, Review: "Meh", Rating: 1,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(context.Background(), alice.ID))

	stored, err := repos.tours.FindByID(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.RatingsQuantity)
	assert.Equal(t, 4.5, stored.RatingsAverage)
}
