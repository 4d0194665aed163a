package products

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/coursehub/internal/dependencies/mocks"
	"github.com/mcoot/coursehub/internal/media"
	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/storage/memory"
	"github.com/mcoot/coursehub/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage  *memory.Storage
	uploader *mocks.MockUploader
	clock    *mocks.MockClock
	service  *Service
	ctx      context.Context

	admin *model.User
	alice *model.User
	bob   *model.User
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.uploader = mocks.NewMockUploader()
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.uploader, s.clock, testutil.NopLogger())
	s.ctx = context.Background()

	s.admin = &model.User{ID: "admin-1", Name: "Ada", Role: model.RoleAdmin}
	s.alice = &model.User{ID: "user-1", Name: "Alice", Role: model.RoleUser}
	s.bob = &model.User{ID: "user-2", Name: "Bob", Role: model.RoleUser}
}

func (s *ServiceSuite) create(name, category string, price int64) *model.Product {
	p, err := s.service.Create(s.ctx, s.admin.ID, Input{
		Name:        name,
		Description: "About " + name,
		Price:       price,
		Category:    category,
		Stock:       5,
	}, nil)
	s.Require().NoError(err)
	s.clock.Advance(time.Minute)
	return p
}

func (s *ServiceSuite) TestCreateWithImages() {
	p, err := s.service.Create(s.ctx, s.admin.ID, Input{
		Name: "Go Course", Description: "Learn Go", Price: 4999, Category: "courses", Stock: 10,
	}, []media.Object{
		{Filename: "a.png", Body: strings.NewReader("a")},
		{Filename: "b.png", Body: strings.NewReader("b")},
	})
	s.Require().NoError(err)
	s.Equal([]model.MediaRef{
		{PublicID: "image-1", URL: "https://media.test/image-1"},
		{PublicID: "image-2", URL: "https://media.test/image-2"},
	}, p.Images)
	s.Equal(s.admin.ID, p.CreatedBy)
}

func (s *ServiceSuite) TestCreateValidates() {
	_, err := s.service.Create(s.ctx, s.admin.ID, Input{Name: "X", Description: "Y", Price: -1, Category: "c"}, nil)
	s.True(model.IsValidationError(err))
	s.Equal(0, s.uploader.Uploads())
}

func (s *ServiceSuite) TestUpdatePatchesAndReplacesImages() {
	p, err := s.service.Create(s.ctx, s.admin.ID, Input{
		Name: "Go Course", Description: "Learn Go", Price: 4999, Category: "courses",
	}, []media.Object{{Filename: "a.png"}})
	s.Require().NoError(err)

	price := int64(2999)
	updated, err := s.service.Update(s.ctx, p.ID, Patch{Price: &price}, []media.Object{{Filename: "new.png"}})
	s.Require().NoError(err)
	s.Equal(int64(2999), updated.Price)
	s.Equal("Go Course", updated.Name)
	s.Equal("image-2", updated.Images[0].PublicID)
	s.Equal([]string{"image-1"}, s.uploader.Deleted())
}

func (s *ServiceSuite) TestUpdateNotFound() {
	_, err := s.service.Update(s.ctx, "nope", Patch{}, nil)
	s.ErrorIs(err, model.ErrProductNotFound)
}

func (s *ServiceSuite) TestDeleteReleasesImages() {
	p, err := s.service.Create(s.ctx, s.admin.ID, Input{
		Name: "Mug", Description: "A mug", Price: 1500, Category: "merch",
	}, []media.Object{{Filename: "mug.png"}})
	s.Require().NoError(err)

	s.Require().NoError(s.service.Delete(s.ctx, p.ID))
	s.Equal([]string{"image-1"}, s.uploader.Deleted())

	_, err = s.service.Get(s.ctx, p.ID)
	s.ErrorIs(err, model.ErrProductNotFound)
}

func (s *ServiceSuite) TestListFilters() {
	s.create("Go Basics", "courses", 1000)
	s.create("Go Mug", "merch", 1500)
	s.create("Rust Basics", "courses", 2000)

	page, err := s.service.List(s.ctx, model.ProductQuery{Keyword: "BASICS", Category: "courses"})
	s.Require().NoError(err)
	s.Equal(3, page.TotalCount)
	s.Equal(2, page.FilteredCount)
	s.Equal("Rust Basics", page.Products[0].Name)
}

func (s *ServiceSuite) TestListRejectsInvertedPriceRange() {
	lo, hi := int64(500), int64(100)
	_, err := s.service.List(s.ctx, model.ProductQuery{MinPrice: &lo, MaxPrice: &hi})
	s.True(model.IsValidationError(err))
}

func (s *ServiceSuite) TestReviewsAreOnePerUser() {
	p := s.create("Go Basics", "courses", 1000)

	_, err := s.service.UpsertReview(s.ctx, s.alice, p.ID, 5, "Great")
	s.Require().NoError(err)
	_, err = s.service.UpsertReview(s.ctx, s.bob, p.ID, 3, "Okay")
	s.Require().NoError(err)

	updated, err := s.service.UpsertReview(s.ctx, s.alice, p.ID, 1, "Changed my mind")
	s.Require().NoError(err)
	s.Equal(2, updated.NumReviews)
	s.InDelta(2.0, updated.Rating, 0.0001)
	s.Equal("Changed my mind", updated.GetReviewByUser(s.alice.ID).Comment)

	reviews, err := s.service.ListReviews(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Len(reviews, 2)
}

func (s *ServiceSuite) TestUpsertReviewValidates() {
	p := s.create("Go Basics", "courses", 1000)

	_, err := s.service.UpsertReview(s.ctx, s.alice, p.ID, 0, "Bad")
	s.True(model.IsValidationError(err))
	_, err = s.service.UpsertReview(s.ctx, s.alice, p.ID, 6, "Too good")
	s.True(model.IsValidationError(err))
	_, err = s.service.UpsertReview(s.ctx, s.alice, p.ID, 4, " ")
	s.True(model.IsValidationError(err))
	_, err = s.service.UpsertReview(s.ctx, s.alice, "nope", 4, "Nice")
	s.ErrorIs(err, model.ErrProductNotFound)
}

func (s *ServiceSuite) TestDeleteReview() {
	p := s.create("Go Basics", "courses", 1000)
	p, err := s.service.UpsertReview(s.ctx, s.alice, p.ID, 5, "Great")
	s.Require().NoError(err)
	p, err = s.service.UpsertReview(s.ctx, s.bob, p.ID, 3, "Okay")
	s.Require().NoError(err)

	aliceReview := p.GetReviewByUser(s.alice.ID).ID
	bobReview := p.GetReviewByUser(s.bob.ID).ID

	_, err = s.service.DeleteReview(s.ctx, s.bob, p.ID, aliceReview)
	s.ErrorIs(err, model.ErrForbidden)

	p, err = s.service.DeleteReview(s.ctx, s.alice, p.ID, aliceReview)
	s.Require().NoError(err)
	s.Equal(1, p.NumReviews)
	s.InDelta(3.0, p.Rating, 0.0001)

	p, err = s.service.DeleteReview(s.ctx, s.admin, p.ID, bobReview)
	s.Require().NoError(err)
	s.Equal(0, p.NumReviews)
	s.Equal(0.0, p.Rating)

	_, err = s.service.DeleteReview(s.ctx, s.admin, p.ID, bobReview)
	s.ErrorIs(err, model.ErrReviewNotFound)
}
