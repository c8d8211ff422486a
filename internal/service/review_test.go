package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailpost/tours-api/internal/domain"
)

func newTestReviewService(t *testing.T) (*ReviewService, testRepos) {
	t.Helper()

	repos := newTestRepos(newTestDB(t))
	svc := NewReviewService(repos.reviews, repos.bookings, repos.tours)

	return svc, repos
}

func bookedReviewer(t *testing.T, repos testRepos, email string, tourID uint) domain.User {
	t.Helper()

	user := createTestUser(t, repos, email)
	createTestBooking(t, repos, tourID, user.ID, 100)

	return user
}

func TestReviewService_CreateReview_RequiresBooking(t *testing.T) {
	svc, repos := newTestReviewService(t)

	user := createTestUser(t, repos, "alice@example.com")
	tour := createTestTour(t, repos, "The Forest Hiker", 497)

	_, err := svc.CreateReview(context.Background(), domain.Review{
		TourID: tour.ID,
		UserID: user.ID,
		Review: "Never went, still reviewing",
		Rating: 1,
	})
	assert.ErrorIs(t, err, ErrReviewRequiresBooking)
}

func TestReviewService_CreateReview_Duplicate(t *testing.T) {
	svc, repos := newTestReviewService(t)

	tour := createTestTour(t, repos, "The Forest Hiker", 497)
	user := bookedReviewer(t, repos, "alice@example.com", tour.ID)

	_, err := svc.CreateReview(context.Background(), domain.Review{
		TourID: tour.ID, UserID: user.ID, Review: "Loved it", Rating: 5,
	})
	require.NoError(t, err)

	_, err = svc.CreateReview(context.Background(), domain.Review{
		TourID: tour.ID, UserID: user.ID, Review: "Loved it twice", Rating: 5,
	})
	assert.ErrorIs(t, err, ErrDuplicateReview)
}

func TestReviewService_CreateReview_UpdatesTourRatings(t *testing.T) {
	svc, repos := newTestReviewService(t)

	tour := createTestTour(t, repos, "The Forest Hiker", 497)
	alice := bookedReviewer(t, repos, "alice@example.com", tour.ID)
	bob := bookedReviewer(t, repos, "bob@example.com", tour.ID)

	_, err := svc.CreateReview(context.Background(), domain.Review{
		TourID: tour.ID, UserID: alice.ID, Review: "Great", Rating: 5,
	})
	require.NoError(t, err)

	_, err = svc.CreateReview(context.Background(), domain.Review{
		TourID: tour.ID, UserID: bob.ID, Review: "Okay", Rating: 4,
	})
	require.NoError(t, err)

	stored, err := repos.tours.FindByID(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.RatingsQuantity)
	assert.Equal(t, 4.5, stored.RatingsAverage)
}

func TestReviewService_RatingsAverageIsRounded(t *testing.T) {
	svc, repos := newTestReviewService(t)

	tour := createTestTour(t, repos, "The Forest Hiker", 497)
	alice := bookedReviewer(t, repos, "alice@example.com", tour.ID)
	bob := bookedReviewer(t, repos, "bob@example.com", tour.ID)
	carol := bookedReviewer(t, repos, "carol@example.com", tour.ID)

	for _, r := range []struct {
		user   domain.User
		rating int
	}{{alice, 5}, {bob, 4}, {carol, 4}} {
		_, err := svc.CreateReview(context.Background(), domain.Review{
			TourID: tour.ID, UserID: r.user.ID, Review: "words", Rating: r.rating,
		})
		require.NoError(t, err)
	}

	stored, err := repos.tours.FindByID(context.Background(), tour.ID)
	require.NoError(t, err)
	// mean of 5,4,4 is 4.333..., rounded to one decimal
	assert.Equal(t, 4.3, stored.RatingsAverage)
	assert.Equal(t, 3, stored.RatingsQuantity)
}

func TestReviewService_UpdateReview(t *testing.T) {
	svc, repos := newTestReviewService(t)

	tour := createTestTour(t, repos, "The Forest Hiker", 497)
	alice := bookedReviewer(t, repos, "alice@example.com", tour.ID)
	bob := bookedReviewer(t, repos, "bob@example.com", tour.ID)

	review, err := svc.CreateReview(context.Background(), domain.Review{
		TourID: tour.ID, UserID: alice.ID, Review: "Great", Rating: 5,
	})
	require.NoError(t, err)

	// Someone else's review is off limits.
	_, err = svc.UpdateReview(context.Background(), review.ID, bob, "Hijacked", 1)
	assert.ErrorIs(t, err, ErrReviewForbidden)

	// An admin may moderate it.
	admin := domain.User{ID: 999, Role: domain.RoleAdmin}
	updated, err := svc.UpdateReview(context.Background(), review.ID, admin, "Moderated", 3)
	require.NoError(t, err)
	assert.Equal(t, "Moderated", updated.Review)
	assert.Equal(t, 3, updated.Rating)

	stored, err := repos.tours.FindByID(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, stored.RatingsAverage)
}

func TestReviewService_DeleteLastReview_ResetsRatings(t *testing.T) {
	svc, repos := newTestReviewService(t)

	tour := createTestTour(t, repos, "The Forest Hiker", 497)
	alice := bookedReviewer(t, repos, "alice@example.com", tour.ID)

	review, err := svc.CreateReview(context.Background(), domain.Review{
		TourID: tour.ID, UserID: alice.ID, Review: "Great", Rating: 5,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteReview(context.Background(), review.ID, alice))

	// With no reviews left the tour returns to the default average.
	stored, err := repos.tours.FindByID(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.RatingsQuantity)
	assert.Equal(t, 4.5, stored.RatingsAverage)
}

func TestReviewService_DeleteReview_Forbidden(t *testing.T) {
	svc, repos := newTestReviewService(t)

	tour := createTestTour(t, repos, "The Forest Hiker", 497)
	alice := bookedReviewer(t, repos, "alice@example.com", tour.ID)
	bob := bookedReviewer(t, repos, "bob@example.com", tour.ID)

	review, err := svc.CreateReview(context.Background(), domain.Review{
		TourID: tour.ID, UserID: alice.ID, Review: "Great", Rating: 5,
	})
	require.NoError(t, err)

	err = svc.DeleteReview(context.Background(), review.ID, bob)
	assert.ErrorIs(t, err, ErrReviewForbidden)
}
