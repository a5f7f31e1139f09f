package service

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"aicompass/internal/app/compass/entity"
	"aicompass/internal/app/compass/repository"
	"aicompass/internal/app/compass/repository/mocks"
	"aicompass/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	logger.InitWithWriter("compass-test", "error", io.Discard)
	os.Exit(m.Run())
}

type MockAccessGate struct {
	mock.Mock
}

func (m *MockAccessGate) CheckSubmissionAccess(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) Allow(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockModerator struct {
	mock.Mock
}

func (m *MockModerator) Check(ctx context.Context, text string) (*entity.ModerationResult, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ModerationResult), args.Error(1)
}

type MockSummarizer struct {
	mock.Mock
}

func (m *MockSummarizer) RefreshProductSummary(ctx context.Context, productID string, trigger string) error {
	args := m.Called(ctx, productID, trigger)
	return args.Error(0)
}

type MockToolListCache struct {
	mock.Mock
}

func (m *MockToolListCache) InvalidateToolList(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type submissionFixture struct {
	productRepo *mocks.MockProductRepository
	reviewRepo  *mocks.MockReviewRepository
	accessGate  *MockAccessGate
	rateLimiter *MockRateLimiter
	moderator   *MockModerator
	summarizer  *MockSummarizer
	publisher   *mocks.MockMessagePublisher
	cache       *MockToolListCache
	service     *SubmissionService
}

func newSubmissionFixture() *submissionFixture {
	f := &submissionFixture{
		productRepo: new(mocks.MockProductRepository),
		reviewRepo:  new(mocks.MockReviewRepository),
		accessGate:  new(MockAccessGate),
		rateLimiter: new(MockRateLimiter),
		moderator:   new(MockModerator),
		summarizer:  new(MockSummarizer),
		publisher:   &mocks.MockMessagePublisher{Messages: make([][]byte, 0)},
		cache:       new(MockToolListCache),
	}
	f.service = NewSubmissionService(
		f.productRepo,
		f.reviewRepo,
		f.accessGate,
		f.rateLimiter,
		f.moderator,
		f.summarizer,
		f.publisher,
		f.cache,
	)
	return f
}

func validRequest() *entity.SubmitReviewRequest {
	return &entity.SubmitReviewRequest{
		AuthorName: "Jordan",
		Stars:      5,
		Review:     "Great tool for lesson planning and fast.",
	}
}

func (f *submissionFixture) allowPipeline(ctx context.Context) {
	f.accessGate.On("CheckSubmissionAccess", ctx, mock.Anything).Return(nil)
	f.rateLimiter.On("Allow", ctx, mock.Anything).Return(nil)
	f.moderator.On("Check", ctx, mock.Anything).Return(&entity.ModerationResult{Flagged: false}, nil)
}

func TestSubmitReview_Success(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	f.allowPipeline(ctx)
	f.productRepo.On("GetByID", ctx, "nearpod").Return(&entity.Product{ID: "nearpod", Name: "Nearpod"}, nil)
	f.reviewRepo.On("Create", ctx, mock.AnythingOfType("*entity.Review")).Return(nil)
	f.productRepo.On("IncrementReviewCount", ctx, "nearpod").Return(nil)
	f.cache.On("InvalidateToolList", ctx).Return(nil)
	f.summarizer.On("RefreshProductSummary", ctx, "nearpod", "inline").Return(nil)
	f.publisher.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	review, published, err := f.service.SubmitReview(ctx, "nearpod", "user-123", validRequest())

	assert.NoError(t, err)
	assert.True(t, published)
	assert.Equal(t, "nearpod", review.ProductID)
	assert.Equal(t, "Nearpod", review.ProductName)
	assert.Equal(t, "user-123", review.UserID)
	assert.Equal(t, 5, review.Stars)
	assert.True(t, review.IsSafe())
	assert.Regexp(t, `^nearpod_\d+_[0-9a-f]{13}$`, review.ID)
	f.summarizer.AssertCalled(t, "RefreshProductSummary", ctx, "nearpod", "inline")
}

func TestSubmitReview_CreatesMissingProduct(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	f.allowPipeline(ctx)
	f.productRepo.On("GetByID", ctx, "nearpod").Return(nil, repository.ErrProductNotFound)
	f.productRepo.On("Create", ctx, mock.AnythingOfType("*entity.Product")).Return(nil)
	f.reviewRepo.On("Create", ctx, mock.Anything).Return(nil)
	f.productRepo.On("IncrementReviewCount", ctx, "nearpod").Return(nil)
	f.cache.On("InvalidateToolList", ctx).Return(nil)
	f.summarizer.On("RefreshProductSummary", ctx, "nearpod", "inline").Return(nil)
	f.publisher.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	req := validRequest()
	req.ProductName = "Nearpod"

	review, published, err := f.service.SubmitReview(ctx, "nearpod", "user-123", req)

	assert.NoError(t, err)
	assert.True(t, published)
	assert.Equal(t, "Nearpod", review.ProductName)

	created := f.productRepo.Calls[1].Arguments.Get(1).(*entity.Product)
	assert.Equal(t, "nearpod", created.ID)
	assert.Equal(t, 0, created.ReviewCount)
}

func TestSubmitReview_ProductNameFallsBackToID(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	f.allowPipeline(ctx)
	f.productRepo.On("GetByID", ctx, "quizlet").Return(nil, repository.ErrProductNotFound)
	f.productRepo.On("Create", ctx, mock.AnythingOfType("*entity.Product")).Return(nil)
	f.reviewRepo.On("Create", ctx, mock.Anything).Return(nil)
	f.productRepo.On("IncrementReviewCount", ctx, "quizlet").Return(nil)
	f.cache.On("InvalidateToolList", ctx).Return(nil)
	f.summarizer.On("RefreshProductSummary", ctx, "quizlet", "inline").Return(nil)
	f.publisher.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	review, _, err := f.service.SubmitReview(ctx, "quizlet", "user-123", validRequest())

	assert.NoError(t, err)
	assert.Equal(t, "quizlet", review.ProductName)
}

func TestSubmitReview_InvalidStars(t *testing.T) {
	for _, stars := range []int{0, -1, 6, 100} {
		f := newSubmissionFixture()
		req := validRequest()
		req.Stars = stars

		review, published, err := f.service.SubmitReview(context.Background(), "nearpod", "user-123", req)

		assert.ErrorIs(t, err, ErrInvalidSubmission)
		assert.Nil(t, review)
		assert.False(t, published)
		// Никаких побочных эффектов до валидации
		f.reviewRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.accessGate.AssertNotCalled(t, "CheckSubmissionAccess", mock.Anything, mock.Anything)
	}
}

func TestSubmitReview_ReviewLengthBounds(t *testing.T) {
	tooLong := make([]byte, 1001)
	for i := range tooLong {
		tooLong[i] = 'a'
	}

	cases := map[string]string{
		"too_short":        "abcd",
		"too_long":         string(tooLong),
		"whitespace_only":  "      ",
		"short_after_trim": "  ab  ",
		// 3 символа, 12 байт - считаем символы
		"emoji_too_short": "😀😀😀",
	}

	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			f := newSubmissionFixture()
			req := validRequest()
			req.Review = text

			_, _, err := f.service.SubmitReview(context.Background(), "nearpod", "user-123", req)

			assert.ErrorIs(t, err, ErrInvalidSubmission)
			f.reviewRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitReview_MultibyteLengthCountsCharacters(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	f.allowPipeline(ctx)
	f.productRepo.On("GetByID", ctx, "nearpod").Return(&entity.Product{ID: "nearpod", Name: "Nearpod"}, nil)
	f.reviewRepo.On("Create", ctx, mock.Anything).Return(nil)
	f.productRepo.On("IncrementReviewCount", ctx, "nearpod").Return(nil)
	f.cache.On("InvalidateToolList", ctx).Return(nil)
	f.summarizer.On("RefreshProductSummary", ctx, "nearpod", "inline").Return(nil)
	f.publisher.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	// 600 символов кириллицы - 1200 байт, но в пределах лимита
	req := validRequest()
	req.Review = strings.Repeat("ж", 600)

	_, published, err := f.service.SubmitReview(ctx, "nearpod", "user-123", req)

	assert.NoError(t, err)
	assert.True(t, published)
}

func TestSubmitReview_EmptyAuthorName(t *testing.T) {
	f := newSubmissionFixture()
	req := validRequest()
	req.AuthorName = "   "

	_, _, err := f.service.SubmitReview(context.Background(), "nearpod", "user-123", req)

	assert.ErrorIs(t, err, ErrInvalidSubmission)
}

func TestSubmitReview_SanitizesHTML(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	f.allowPipeline(ctx)
	f.productRepo.On("GetByID", ctx, "nearpod").Return(&entity.Product{ID: "nearpod", Name: "Nearpod"}, nil)

	var stored *entity.Review
	f.reviewRepo.On("Create", ctx, mock.AnythingOfType("*entity.Review")).Return(nil).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*entity.Review)
	})
	f.productRepo.On("IncrementReviewCount", ctx, "nearpod").Return(nil)
	f.cache.On("InvalidateToolList", ctx).Return(nil)
	f.summarizer.On("RefreshProductSummary", ctx, "nearpod", "inline").Return(nil)
	f.publisher.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	req := validRequest()
	req.Review = `<script>alert("x")</script> & 'quotes'`

	_, _, err := f.service.SubmitReview(ctx, "nearpod", "user-123", req)

	assert.NoError(t, err)
	assert.Equal(t, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt; &amp; &#39;quotes&#39;", stored.Review)
}

func TestSubmitReview_NotVerified(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	f.accessGate.On("CheckSubmissionAccess", ctx, "user-123").Return(ErrNotVerified)

	review, published, err := f.service.SubmitReview(ctx, "nearpod", "user-123", validRequest())

	assert.ErrorIs(t, err, ErrNotVerified)
	assert.Nil(t, review)
	assert.False(t, published)
	f.rateLimiter.AssertNotCalled(t, "Allow", mock.Anything, mock.Anything)
	f.reviewRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitReview_RateLimited(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	f.accessGate.On("CheckSubmissionAccess", ctx, "user-123").Return(nil)
	f.rateLimiter.On("Allow", ctx, "user-123").Return(ErrRateLimited)

	review, _, err := f.service.SubmitReview(ctx, "nearpod", "user-123", validRequest())

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Nil(t, review)
	f.moderator.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
	f.reviewRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitReview_FlaggedIsHeld(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	categories := map[string]bool{"harassment": true}
	f.accessGate.On("CheckSubmissionAccess", ctx, "user-123").Return(nil)
	f.rateLimiter.On("Allow", ctx, "user-123").Return(nil)
	f.moderator.On("Check", ctx, mock.Anything).Return(&entity.ModerationResult{Flagged: true, Categories: categories}, nil)
	f.productRepo.On("GetByID", ctx, "nearpod").Return(&entity.Product{ID: "nearpod", Name: "Nearpod"}, nil)

	var stored *entity.Review
	f.reviewRepo.On("Create", ctx, mock.AnythingOfType("*entity.Review")).Return(nil).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*entity.Review)
	})
	f.publisher.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	review, published, err := f.service.SubmitReview(ctx, "nearpod", "user-123", validRequest())

	assert.NoError(t, err)
	assert.False(t, published)
	assert.NotNil(t, review)
	assert.False(t, stored.IsSafe())
	assert.Equal(t, categories, stored.ModerationCategories)
	// Задержанный отзыв не трогает счетчик и сводку
	f.productRepo.AssertNotCalled(t, "IncrementReviewCount", mock.Anything, mock.Anything)
	f.summarizer.AssertNotCalled(t, "RefreshProductSummary", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitReview_ModerationFailureFailsClosed(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	f.accessGate.On("CheckSubmissionAccess", ctx, "user-123").Return(nil)
	f.rateLimiter.On("Allow", ctx, "user-123").Return(nil)
	f.moderator.On("Check", ctx, mock.Anything).Return(nil, errors.New("moderation API down"))
	f.productRepo.On("GetByID", ctx, "nearpod").Return(&entity.Product{ID: "nearpod", Name: "Nearpod"}, nil)

	var stored *entity.Review
	f.reviewRepo.On("Create", ctx, mock.AnythingOfType("*entity.Review")).Return(nil).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*entity.Review)
	})
	f.publisher.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	review, published, err := f.service.SubmitReview(ctx, "nearpod", "user-123", validRequest())

	assert.NoError(t, err)
	assert.False(t, published)
	assert.NotNil(t, review)
	assert.False(t, stored.IsSafe())
	f.productRepo.AssertNotCalled(t, "IncrementReviewCount", mock.Anything, mock.Anything)
}

func TestSubmitReview_SummaryFailureDoesNotBlockPublish(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	f.allowPipeline(ctx)
	f.productRepo.On("GetByID", ctx, "nearpod").Return(&entity.Product{ID: "nearpod", Name: "Nearpod"}, nil)
	f.reviewRepo.On("Create", ctx, mock.Anything).Return(nil)
	f.productRepo.On("IncrementReviewCount", ctx, "nearpod").Return(nil)
	f.cache.On("InvalidateToolList", ctx).Return(nil)
	f.summarizer.On("RefreshProductSummary", ctx, "nearpod", "inline").Return(errors.New("llm timeout"))
	f.publisher.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	review, published, err := f.service.SubmitReview(ctx, "nearpod", "user-123", validRequest())

	assert.NoError(t, err)
	assert.True(t, published)
	assert.NotNil(t, review)
}

func TestSubmitReview_KafkaErrorIgnored(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	f.allowPipeline(ctx)
	f.productRepo.On("GetByID", ctx, "nearpod").Return(&entity.Product{ID: "nearpod", Name: "Nearpod"}, nil)
	f.reviewRepo.On("Create", ctx, mock.Anything).Return(nil)
	f.productRepo.On("IncrementReviewCount", ctx, "nearpod").Return(nil)
	f.cache.On("InvalidateToolList", ctx).Return(nil)
	f.summarizer.On("RefreshProductSummary", ctx, "nearpod", "inline").Return(nil)
	f.publisher.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(errors.New("kafka error"))

	_, published, err := f.service.SubmitReview(ctx, "nearpod", "user-123", validRequest())

	assert.NoError(t, err)
	assert.True(t, published)
}

func TestSubmitReview_PersistFailure(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	f.allowPipeline(ctx)
	f.productRepo.On("GetByID", ctx, "nearpod").Return(&entity.Product{ID: "nearpod", Name: "Nearpod"}, nil)
	f.reviewRepo.On("Create", ctx, mock.Anything).Return(errors.New("db error"))

	review, published, err := f.service.SubmitReview(ctx, "nearpod", "user-123", validRequest())

	assert.Error(t, err)
	assert.Nil(t, review)
	assert.False(t, published)
}
