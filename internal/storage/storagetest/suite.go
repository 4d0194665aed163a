// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/storage"
)

// Suite runs the storage contract against a backend built by NewStorage.
// Embed it in a backend test suite and set NewStorage before SetupTest runs.
type Suite struct {
	suite.Suite
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
	base    time.Time
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStorage, "NewStorage must be set")
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
	s.base = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *Suite) user(id, email string) *model.User {
	return &model.User{
		ID:           model.UserID(id),
		Name:         "User " + id,
		Email:        email,
		PasswordHash: "$2a$10$hash",
		Role:         model.RoleUser,
		Avatar:       model.PlaceholderAvatar,
		CreatedAt:    s.base,
		UpdatedAt:    s.base,
	}
}

// User tests

func (s *Suite) TestSaveAndGetUser() {
	u := s.user("user-1", "alice@example.com")
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, u))

	got, err := s.Storage.GetUser(s.Ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(u.Name, got.Name)
	s.Equal(u.Email, got.Email)
	s.Equal(u.PasswordHash, got.PasswordHash)
	s.Equal(model.PlaceholderAvatar, got.Avatar)
	s.True(got.Reset.IsZero())
}

func (s *Suite) TestGetUserNotFound() {
	_, err := s.Storage.GetUser(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestGetUserByEmailIsCaseInsensitive() {
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, s.user("user-1", "alice@example.com")))

	got, err := s.Storage.GetUserByEmail(s.Ctx, "Alice@Example.COM")
	s.Require().NoError(err)
	s.Equal(model.UserID("user-1"), got.ID)

	_, err = s.Storage.GetUserByEmail(s.Ctx, "bob@example.com")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestSaveUserRejectsDuplicateEmail() {
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, s.user("user-1", "alice@example.com")))

	err := s.Storage.SaveUser(s.Ctx, s.user("user-2", "alice@example.com"))
	s.ErrorIs(err, model.ErrEmailTaken)

	// Re-saving the same user with its own email is fine
	s.NoError(s.Storage.SaveUser(s.Ctx, s.user("user-1", "alice@example.com")))
}

func (s *Suite) TestSaveUserMovesEmailIndex() {
	u := s.user("user-1", "alice@example.com")
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, u))

	u.Email = "alice@new.example.com"
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, u))

	_, err := s.Storage.GetUserByEmail(s.Ctx, "alice@example.com")
	s.ErrorIs(err, model.ErrUserNotFound)

	got, err := s.Storage.GetUserByEmail(s.Ctx, "alice@new.example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, got.ID)

	// The old address is free again
	s.NoError(s.Storage.SaveUser(s.Ctx, s.user("user-2", "alice@example.com")))
}

func (s *Suite) TestGetUserByResetCode() {
	u := s.user("user-1", "alice@example.com")
	u.Reset = model.ResetChallenge{Code: "12345", ExpiresAt: s.base.Add(15 * time.Minute)}
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, u))

	got, err := s.Storage.GetUserByResetCode(s.Ctx, "12345")
	s.Require().NoError(err)
	s.Equal(u.ID, got.ID)
	s.Equal("12345", got.Reset.Code)
	s.True(u.Reset.ExpiresAt.Equal(got.Reset.ExpiresAt))

	_, err = s.Storage.GetUserByResetCode(s.Ctx, "54321")
	s.ErrorIs(err, model.ErrUserNotFound)

	_, err = s.Storage.GetUserByResetCode(s.Ctx, "")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestGetUserByResetCodeReturnsExpiredChallenges() {
	u := s.user("user-1", "alice@example.com")
	u.Reset = model.ResetChallenge{Code: "12345", ExpiresAt: s.base.Add(-time.Minute)}
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, u))

	got, err := s.Storage.GetUserByResetCode(s.Ctx, "12345")
	s.Require().NoError(err)
	s.Equal(model.ChallengeExpired, got.Reset.State(s.base))
}

func (s *Suite) TestClearingResetCodeDropsIndex() {
	u := s.user("user-1", "alice@example.com")
	u.Reset = model.ResetChallenge{Code: "12345", ExpiresAt: s.base.Add(15 * time.Minute)}
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, u))

	u.Reset = model.ResetChallenge{}
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, u))

	_, err := s.Storage.GetUserByResetCode(s.Ctx, "12345")
	s.ErrorIs(err, model.ErrUserNotFound)

	got, err := s.Storage.GetUser(s.Ctx, u.ID)
	s.Require().NoError(err)
	s.True(got.Reset.IsZero())
}

func (s *Suite) TestReplacingResetCodeDropsOldCode() {
	u := s.user("user-1", "alice@example.com")
	u.Reset = model.ResetChallenge{Code: "11111", ExpiresAt: s.base.Add(15 * time.Minute)}
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, u))

	u.Reset = model.ResetChallenge{Code: "22222", ExpiresAt: s.base.Add(20 * time.Minute)}
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, u))

	_, err := s.Storage.GetUserByResetCode(s.Ctx, "11111")
	s.ErrorIs(err, model.ErrUserNotFound)

	got, err := s.Storage.GetUserByResetCode(s.Ctx, "22222")
	s.Require().NoError(err)
	s.Equal(u.ID, got.ID)
}

func (s *Suite) TestReturnedUserIsACopy() {
	u := s.user("user-1", "alice@example.com")
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, u))

	u.Name = "Changed"
	got, err := s.Storage.GetUser(s.Ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("User user-1", got.Name)

	got.Name = "Also changed"
	again, err := s.Storage.GetUser(s.Ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("User user-1", again.Name)
}

func (s *Suite) TestListUsers() {
	for i := 3; i >= 1; i-- {
		u := s.user(fmt.Sprintf("user-%d", i), fmt.Sprintf("u%d@example.com", i))
		u.CreatedAt = s.base.Add(time.Duration(i) * time.Minute)
		s.Require().NoError(s.Storage.SaveUser(s.Ctx, u))
	}

	users, err := s.Storage.ListUsers(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 3)
	s.Equal(model.UserID("user-1"), users[0].ID)
	s.Equal(model.UserID("user-3"), users[2].ID)
}

func (s *Suite) TestDeleteUser() {
	u := s.user("user-1", "alice@example.com")
	u.Reset = model.ResetChallenge{Code: "12345", ExpiresAt: s.base.Add(time.Minute)}
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, u))

	s.Require().NoError(s.Storage.DeleteUser(s.Ctx, u.ID))

	_, err := s.Storage.GetUser(s.Ctx, u.ID)
	s.ErrorIs(err, model.ErrUserNotFound)
	_, err = s.Storage.GetUserByEmail(s.Ctx, u.Email)
	s.ErrorIs(err, model.ErrUserNotFound)
	_, err = s.Storage.GetUserByResetCode(s.Ctx, "12345")
	s.ErrorIs(err, model.ErrUserNotFound)

	// Deleting again is not an error
	s.NoError(s.Storage.DeleteUser(s.Ctx, u.ID))
}

// Video tests

func (s *Suite) video(id, tutor string, offset time.Duration) *model.Video {
	return &model.Video{
		ID:          model.VideoID(id),
		Title:       "Video " + id,
		Description: "About " + id,
		Media:       model.MediaRef{PublicID: "videos/" + id, URL: "https://media.test/" + id},
		TutorID:     model.UserID(tutor),
		CreatedAt:   s.base.Add(offset),
		UpdatedAt:   s.base.Add(offset),
	}
}

func (s *Suite) TestSaveAndGetVideo() {
	v := s.video("video-1", "tutor-1", 0)
	s.Require().NoError(s.Storage.SaveVideo(s.Ctx, v))

	got, err := s.Storage.GetVideo(s.Ctx, "video-1")
	s.Require().NoError(err)
	s.Equal(v.Title, got.Title)
	s.Equal(v.Media, got.Media)
	s.Equal(v.TutorID, got.TutorID)
}

func (s *Suite) TestGetVideoNotFound() {
	_, err := s.Storage.GetVideo(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrVideoNotFound)
}

func (s *Suite) TestListVideosNewestFirst() {
	s.Require().NoError(s.Storage.SaveVideo(s.Ctx, s.video("video-1", "tutor-1", time.Minute)))
	s.Require().NoError(s.Storage.SaveVideo(s.Ctx, s.video("video-2", "tutor-2", 2*time.Minute)))
	s.Require().NoError(s.Storage.SaveVideo(s.Ctx, s.video("video-3", "tutor-1", 3*time.Minute)))

	all, err := s.Storage.ListVideos(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(model.VideoID("video-3"), all[0].ID)

	mine, err := s.Storage.ListVideosByTutor(s.Ctx, "tutor-1")
	s.Require().NoError(err)
	s.Require().Len(mine, 2)
	s.Equal(model.VideoID("video-3"), mine[0].ID)
	s.Equal(model.VideoID("video-1"), mine[1].ID)

	none, err := s.Storage.ListVideosByTutor(s.Ctx, "tutor-9")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *Suite) TestDeleteVideo() {
	s.Require().NoError(s.Storage.SaveVideo(s.Ctx, s.video("video-1", "tutor-1", 0)))
	s.Require().NoError(s.Storage.DeleteVideo(s.Ctx, "video-1"))

	_, err := s.Storage.GetVideo(s.Ctx, "video-1")
	s.ErrorIs(err, model.ErrVideoNotFound)

	mine, err := s.Storage.ListVideosByTutor(s.Ctx, "tutor-1")
	s.Require().NoError(err)
	s.Empty(mine)
}

// Product tests

func (s *Suite) product(id, name, category string, price int64, offset time.Duration) *model.Product {
	return &model.Product{
		ID:          model.ProductID(id),
		Name:        name,
		Description: "Description of " + name,
		Price:       price,
		Category:    category,
		Stock:       10,
		Images:      []model.MediaRef{},
		Reviews:     []model.Review{},
		CreatedBy:   "admin-1",
		CreatedAt:   s.base.Add(offset),
		UpdatedAt:   s.base.Add(offset),
	}
}

func (s *Suite) TestSaveAndGetProductWithReviews() {
	p := s.product("product-1", "Go Course", "courses", 4999, 0)
	p.Images = []model.MediaRef{{PublicID: "images/1", URL: "https://media.test/1"}}
	p.Reviews = []model.Review{
		{ID: "review-1", UserID: "user-1", Name: "Alice", Rating: 5, Comment: "Great", CreatedAt: s.base},
		{ID: "review-2", UserID: "user-2", Name: "Bob", Rating: 3, Comment: "Fine", CreatedAt: s.base},
	}
	p.RecomputeRating()
	s.Require().NoError(s.Storage.SaveProduct(s.Ctx, p))

	got, err := s.Storage.GetProduct(s.Ctx, "product-1")
	s.Require().NoError(err)
	s.Equal(p.Name, got.Name)
	s.Equal(p.Price, got.Price)
	s.Equal(p.Images, got.Images)
	s.Require().Len(got.Reviews, 2)
	s.Equal(2, got.NumReviews)
	s.InDelta(4.0, got.Rating, 0.0001)
	s.NotNil(got.GetReviewByUser("user-2"))
}

func (s *Suite) TestGetProductNotFound() {
	_, err := s.Storage.GetProduct(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrProductNotFound)
}

func (s *Suite) TestListProductsFiltersAndPaginates() {
	s.Require().NoError(s.Storage.SaveProduct(s.Ctx, s.product("p1", "Go Basics", "courses", 1000, 1*time.Minute)))
	s.Require().NoError(s.Storage.SaveProduct(s.Ctx, s.product("p2", "Advanced Go", "courses", 5000, 2*time.Minute)))
	s.Require().NoError(s.Storage.SaveProduct(s.Ctx, s.product("p3", "Go Mug", "merch", 1500, 3*time.Minute)))
	s.Require().NoError(s.Storage.SaveProduct(s.Ctx, s.product("p4", "Rust Basics", "courses", 2000, 4*time.Minute)))

	page, err := s.Storage.ListProducts(s.Ctx, model.ProductQuery{Keyword: "go"})
	s.Require().NoError(err)
	s.Equal(4, page.TotalCount)
	s.Equal(3, page.FilteredCount)
	s.Require().Len(page.Products, 3)
	s.Equal(model.ProductID("p3"), page.Products[0].ID)

	page, err = s.Storage.ListProducts(s.Ctx, model.ProductQuery{Category: "courses"})
	s.Require().NoError(err)
	s.Equal(3, page.FilteredCount)

	minPrice, maxPrice := int64(1200), int64(2500)
	page, err = s.Storage.ListProducts(s.Ctx, model.ProductQuery{MinPrice: &minPrice, MaxPrice: &maxPrice})
	s.Require().NoError(err)
	s.Equal(2, page.FilteredCount)

	page, err = s.Storage.ListProducts(s.Ctx, model.ProductQuery{Page: 2, PerPage: 3})
	s.Require().NoError(err)
	s.Equal(4, page.FilteredCount)
	s.Require().Len(page.Products, 1)
	s.Equal(model.ProductID("p1"), page.Products[0].ID)

	page, err = s.Storage.ListProducts(s.Ctx, model.ProductQuery{Page: 5})
	s.Require().NoError(err)
	s.Empty(page.Products)
}

func (s *Suite) TestListProductsWithHugePageIsEmpty() {
	s.Require().NoError(s.Storage.SaveProduct(s.Ctx, s.product("p1", "Go Basics", "courses", 1000, 1*time.Minute)))

	var page *model.ProductPage
	var err error
	s.NotPanics(func() {
		page, err = s.Storage.ListProducts(s.Ctx, model.ProductQuery{Page: 1 << 61})
	})
	s.Require().NoError(err)
	s.Equal(1, page.FilteredCount)
	s.Empty(page.Products)
}

func (s *Suite) TestDeleteProduct() {
	s.Require().NoError(s.Storage.SaveProduct(s.Ctx, s.product("p1", "Go Basics", "courses", 1000, 0)))
	s.Require().NoError(s.Storage.DeleteProduct(s.Ctx, "p1"))

	_, err := s.Storage.GetProduct(s.Ctx, "p1")
	s.ErrorIs(err, model.ErrProductNotFound)

	page, err := s.Storage.ListProducts(s.Ctx, model.ProductQuery{})
	s.Require().NoError(err)
	s.Equal(0, page.TotalCount)
}
