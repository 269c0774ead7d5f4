package services

import (
	"context"
	"sync"
	"testing"

	"storefront-service/internal/domain"
	"storefront-service/internal/infra"
	"storefront-service/internal/mocks"
	"storefront-service/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func author(id uint64) domain.Actor {
	return domain.Actor{ID: id, Role: domain.RoleCustomer}
}

func (f *fixture) rating(t *testing.T, productID uint64) (float64, int64) {
	t.Helper()
	p, err := f.store.Products().FindByID(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Rating, p.ReviewCount
}

func TestReviewService_RatingFollowsLiveReviews(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	p := f.seedProduct(t, TestArtisanA, "Clay Vase", "pottery", "100", 3)

	r1, summary, err := f.reviews.CreateReview(ctx, author(1), p.ID, 5, "lovely")
	require.NoError(t, err)
	assert.Equal(t, domain.RatingSummary{Rating: 5, ReviewCount: 1}, summary)

	r2, _, err := f.reviews.CreateReview(ctx, author(2), p.ID, 3, "")
	require.NoError(t, err)
	_, _, err = f.reviews.CreateReview(ctx, author(3), p.ID, 4, "ok")
	require.NoError(t, err)
	rating, count := f.rating(t, p.ID)
	assert.Equal(t, 4.0, rating)
	assert.Equal(t, int64(3), count)

	_, summary, err = f.reviews.UpdateReview(ctx, author(1), r1.ID, 2, "chipped on arrival")
	require.NoError(t, err)
	assert.Equal(t, 3.0, summary.Rating)

	summary, err = f.reviews.DeleteReview(ctx, author(2), r2.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RatingSummary{Rating: 3, ReviewCount: 2}, summary)

	reviews, err := f.reviews.ListProductReviews(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	for _, rv := range reviews {
		_, err := f.reviews.DeleteReview(ctx, author(rv.AuthorID), rv.ID)
		require.NoError(t, err)
	}

	rating, count = f.rating(t, p.ID)
	assert.Equal(t, 0.0, rating)
	assert.Equal(t, int64(0), count)
}

func TestReviewService_RecomputeRating(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	p := f.seedProduct(t, TestArtisanA, "Clay Vase", "pottery", "100", 3)
	for i, r := range []int{5, 4, 4} {
		_, _, err := f.reviews.CreateReview(ctx, author(uint64(i+1)), p.ID, r, "")
		require.NoError(t, err)
	}

	require.NoError(t, f.store.Products().SetRatingSummary(ctx, p.ID, domain.RatingSummary{Rating: 1, ReviewCount: 99}))

	summary, err := f.reviews.RecomputeRating(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.3333, summary.Rating, 0.0001)
	assert.Equal(t, int64(3), summary.ReviewCount)

	again, err := f.reviews.RecomputeRating(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, summary, again)

	stored, err := f.store.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.33, stored.DisplayRating())

	_, err = f.reviews.RecomputeRating(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestReviewService_CreateReview(t *testing.T) {
	tests := []struct {
		name          string
		actor         domain.Actor
		productID     uint64
		rating        int
		comment       string
		expectedError error
	}{
		{name: "valid", actor: author(1), productID: 1, rating: 4},
		{name: "second review by same author", actor: author(7), productID: 1, rating: 3, expectedError: domain.ErrDuplicateReview},
		{name: "rating too low", actor: author(1), productID: 1, rating: 0, expectedError: domain.ErrInvalidRequest},
		{name: "rating too high", actor: author(1), productID: 1, rating: 6, expectedError: domain.ErrInvalidRequest},
		{name: "unknown product", actor: author(1), productID: 42, rating: 4, expectedError: domain.ErrProductNotFound},
		{name: "owner cannot review own product", actor: artisanA, productID: 1, rating: 5, expectedError: domain.ErrForbidden},
		{name: "other artisan may review", actor: artisanB, productID: 1, rating: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(nil)
			f.seedCatalog(t)
			_, _, err := f.reviews.CreateReview(ctx, author(7), 1, 5, "first")
			require.NoError(t, err)

			review, summary, err := f.reviews.CreateReview(ctx, tt.actor, tt.productID, tt.rating, tt.comment)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, review)
				_, count := f.rating(t, 1)
				assert.Equal(t, int64(1), count)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, review.ID)
			assert.Equal(t, int64(2), summary.ReviewCount)
		})
	}
}

func TestReviewService_UpdateAndDeleteAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	f.seedCatalog(t)
	review, _, err := f.reviews.CreateReview(ctx, author(1), 1, 5, "")
	require.NoError(t, err)

	_, _, err = f.reviews.UpdateReview(ctx, author(2), review.ID, 1, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, _, err = f.reviews.UpdateReview(ctx, author(1), 999, 1, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = f.reviews.UpdateReview(ctx, author(1), review.ID, 9, "")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = f.reviews.DeleteReview(ctx, author(2), review.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.reviews.DeleteReview(ctx, author(1), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	rating, count := f.rating(t, 1)
	assert.Equal(t, 5.0, rating)
	assert.Equal(t, int64(1), count)
}

func TestReviewService_MarkHelpful(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	f.seedCatalog(t)
	review, _, err := f.reviews.CreateReview(ctx, author(1), 1, 5, "")
	require.NoError(t, err)

	got, err := f.reviews.MarkHelpful(ctx, author(2), review.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Helpful)

	got, err = f.reviews.MarkHelpful(ctx, author(3), review.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Helpful)

	_, err = f.reviews.MarkHelpful(ctx, author(1), review.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.reviews.MarkHelpful(ctx, author(2), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReviewService_ListProductReviews_UnknownProduct(t *testing.T) {
	f := newFixture(nil)
	_, err := f.reviews.ListProductReviews(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestReviewService_ConcurrentReviews(t *testing.T) {
	f := newFixture(nil)
	p := f.seedProduct(t, TestArtisanA, "Clay Vase", "pottery", "100", 3)

	const authors = 25
	var wg sync.WaitGroup
	var sum int
	for i := 0; i < authors; i++ {
		rating := i%5 + 1
		sum += rating
		wg.Add(1)
		go func(authorID uint64, rating int) {
			defer wg.Done()
			_, _, err := f.reviews.CreateReview(context.Background(), author(authorID), p.ID, rating, "")
			assert.NoError(t, err)
		}(uint64(i+1), rating)
	}
	wg.Wait()

	rating, count := f.rating(t, p.ID)
	assert.Equal(t, int64(authors), count)
	assert.InDelta(t, float64(sum)/authors, rating, 1e-9)
}

func TestReviewService_Publishes(t *testing.T) {
	tests := []struct {
		name       string
		run        func(*testing.T, *fixture)
		setupMocks func(*mocks.MockPublisher)
	}{
		{
			name: "create",
			run: func(t *testing.T, f *fixture) {
				_, _, err := f.reviews.CreateReview(context.Background(), author(1), 1, 4, "")
				require.NoError(t, err)
			},
			setupMocks: func(pub *mocks.MockPublisher) {
				pub.On("Publish", mock.Anything, domain.EventReviewCreated, mock.MatchedBy(func(e domain.ReviewEvent) bool {
					return e.ProductID == 1 && e.Rating == 4 && e.ReviewCount == 1
				})).Return(nil).Once()
			},
		},
		{
			name: "delete last review",
			run: func(t *testing.T, f *fixture) {
				rv, _, err := f.reviews.CreateReview(context.Background(), author(1), 1, 4, "")
				require.NoError(t, err)
				_, err = f.reviews.DeleteReview(context.Background(), author(1), rv.ID)
				require.NoError(t, err)
			},
			setupMocks: func(pub *mocks.MockPublisher) {
				pub.On("Publish", mock.Anything, domain.EventReviewCreated, mock.Anything).Return(nil).Once()
				pub.On("Publish", mock.Anything, domain.EventReviewDeleted, mock.MatchedBy(func(e domain.ReviewEvent) bool {
					return e.Rating == 0 && e.ReviewCount == 0
				})).Return(nil).Once()
			},
		},
		{
			name: "failed mutation publishes nothing",
			run: func(t *testing.T, f *fixture) {
				_, _, err := f.reviews.CreateReview(context.Background(), author(1), 77, 4, "")
				require.Error(t, err)
			},
			setupMocks: func(pub *mocks.MockPublisher) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := new(mocks.MockPublisher)
			tt.setupMocks(pub)
			f := newFixture(pub)
			f.seedProduct(t, TestArtisanA, "Clay Vase", "pottery", "100", 3)

			tt.run(t, f)

			f.reviews.Wait()
			pub.AssertExpectations(t)
		})
	}
}

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

type loggedReviews struct {
	repository.ReviewRepository
	log *callLog
}

func (r loggedReviews) FindByID(ctx context.Context, id uint64) (*domain.Review, error) {
	r.log.add("review.find")
	return r.ReviewRepository.FindByID(ctx, id)
}

func (r loggedReviews) LockByID(ctx context.Context, id uint64) (*domain.Review, error) {
	r.log.add("review.lock")
	return r.ReviewRepository.LockByID(ctx, id)
}

func (r loggedReviews) FindByProduct(ctx context.Context, productID uint64) ([]domain.Review, error) {
	r.log.add("review.byProduct")
	return r.ReviewRepository.FindByProduct(ctx, productID)
}

type loggedProducts struct {
	repository.ProductRepository
	log *callLog
}

func (r loggedProducts) LockByID(ctx context.Context, id uint64) (*domain.Product, error) {
	r.log.add("product.lock")
	return r.ProductRepository.LockByID(ctx, id)
}

// Update and delete must start with locking reads: a plain read first would
// pin the transaction's snapshot before the product lock is granted.
func TestReviewService_MutationsLockBeforeReading(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(ctx context.Context, s *ReviewService, reviewID uint64) error
	}{
		{
			name: "update",
			mutate: func(ctx context.Context, s *ReviewService, reviewID uint64) error {
				_, _, err := s.UpdateReview(ctx, author(1), reviewID, 2, "changed my mind")
				return err
			},
		},
		{
			name: "delete",
			mutate: func(ctx context.Context, s *ReviewService, reviewID uint64) error {
				_, err := s.DeleteReview(ctx, author(1), reviewID)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(nil)
			p := f.seedProduct(t, TestArtisanA, "Clay Vase", "pottery", "100", 3)
			rv, _, err := f.reviews.CreateReview(ctx, author(1), p.ID, 5, "")
			require.NoError(t, err)

			log := &callLog{}
			svc := NewReviewService(f.store,
				loggedReviews{ReviewRepository: f.store.Reviews(), log: log},
				loggedProducts{ProductRepository: f.store.Products(), log: log},
				infra.NoopPublisher{}, quietLogger())

			require.NoError(t, tt.mutate(ctx, svc, rv.ID))
			svc.Wait()

			assert.Equal(t, []string{"review.lock", "product.lock", "review.byProduct"}, log.calls)
		})
	}
}
