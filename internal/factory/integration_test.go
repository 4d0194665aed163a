package factory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/coursehub/internal/config"
	"github.com/mcoot/coursehub/internal/media"
	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/ratelimit"
	"github.com/mcoot/coursehub/internal/services/auth"
	"github.com/mcoot/coursehub/internal/services/products"
	redisstorage "github.com/mcoot/coursehub/internal/storage/redis"
	"github.com/mcoot/coursehub/internal/testutil"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.NoError(s.app.Close())
}

func (s *IntegrationSuite) register(name, email string, role model.Role) *model.User {
	session, err := s.app.AuthService.Register(s.ctx, name, email, "password123")
	s.Require().NoError(err)
	if role == model.RoleUser {
		return session.User
	}
	user, err := s.app.UsersService.UpdateRole(s.ctx, session.UserID, role)
	s.Require().NoError(err)
	return user
}

// Test: a forgotten password is recovered end to end
func (s *IntegrationSuite) TestPasswordRecoveryFlow() {
	s.register("Alice", "alice@example.com", model.RoleUser)
	s.app.MockRandom.QueueDigits("48213")

	s.Require().NoError(s.app.AuthService.RequestPasswordReset(s.ctx, "Alice@Example.com"))

	msg, ok := s.app.MockSender.Last()
	s.Require().True(ok)
	s.Equal("alice@example.com", msg.To)
	s.Equal(auth.ResetSubject, msg.Subject)
	s.Contains(msg.Body, "48213")

	s.app.MockClock.Advance(14 * time.Minute)
	session, err := s.app.AuthService.ResetPassword(s.ctx, "48213", "brand-new-pass", "brand-new-pass")
	s.Require().NoError(err)
	s.NotEmpty(session.Token)

	_, err = s.app.AuthService.Login(s.ctx, "alice@example.com", "password123")
	s.ErrorIs(err, auth.ErrInvalidCredentials)
	_, err = s.app.AuthService.Login(s.ctx, "alice@example.com", "brand-new-pass")
	s.NoError(err)

	stored, err := s.app.Storage.GetUserByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.True(stored.Reset.IsZero())
}

// Test: a tutor uploads a video, an admin removes it, the tutor's list follows
func (s *IntegrationSuite) TestVideoLifecycle() {
	tutor := s.register("Tina", "tina@example.com", model.RoleTutor)
	admin := s.register("Ada", "ada@example.com", model.RoleAdmin)

	video, err := s.app.VideosService.Upload(s.ctx, tutor.ID, "Intro to Go", "Goroutines and channels", &media.Object{
		Filename:    "intro.mp4",
		ContentType: "video/mp4",
		Body:        strings.NewReader("fake video bytes"),
	})
	s.Require().NoError(err)
	s.Equal(1, s.app.MockUploader.Uploads())

	entries, err := s.app.VideosService.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("Tina", entries[0].TutorName)

	owner, err := s.app.UsersService.Get(s.ctx, tutor.ID)
	s.Require().NoError(err)
	s.True(owner.HasVideo(video.ID))

	s.Require().NoError(s.app.VideosService.Delete(s.ctx, admin, video.ID))
	s.Contains(s.app.MockUploader.Deleted(), video.Media.PublicID)

	owner, err = s.app.UsersService.Get(s.ctx, tutor.ID)
	s.Require().NoError(err)
	s.False(owner.HasVideo(video.ID))
}

// Test: reviews on a product keep one entry per user and an averaged rating
func (s *IntegrationSuite) TestProductReviews() {
	admin := s.register("Ada", "ada@example.com", model.RoleAdmin)
	bob := s.register("Bob", "bob@example.com", model.RoleUser)
	cat := s.register("Cat", "cat@example.com", model.RoleUser)

	product, err := s.app.ProductsService.Create(s.ctx, admin.ID, products.Input{
		Name:        "Go Course",
		Description: "Learn Go",
		Price:       4999,
		Category:    "courses",
		Stock:       100,
	}, nil)
	s.Require().NoError(err)

	_, err = s.app.ProductsService.UpsertReview(s.ctx, bob, product.ID, 2, "meh")
	s.Require().NoError(err)
	_, err = s.app.ProductsService.UpsertReview(s.ctx, bob, product.ID, 4, "grew on me")
	s.Require().NoError(err)
	updated, err := s.app.ProductsService.UpsertReview(s.ctx, cat, product.ID, 5, "great")
	s.Require().NoError(err)

	s.Equal(2, updated.NumReviews)
	s.InDelta(4.5, updated.Rating, 0.001)

	page, err := s.app.ProductsService.List(s.ctx, model.ProductQuery{Keyword: "go"})
	s.Require().NoError(err)
	s.Equal(1, page.FilteredCount)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	_, err := New(context.Background(), cfg, testutil.NopLogger())
	require.Error(t, err)
}

func TestNewInMemory(t *testing.T) {
	cfg := TestConfig()
	app, err := New(context.Background(), cfg, testutil.NopLogger())
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.Handler())
	assert.IsType(t, &ratelimit.MemoryLimiter{}, app.Limiter)
	assert.NotNil(t, app.Metrics)
	assert.Equal(t, cfg.MaxUploadBytes, app.RouterConfig().MaxUploadBytes)
}

func TestNewWithRedisSharesPool(t *testing.T) {
	mini := miniredis.RunT(t)

	cfg := TestConfig()
	cfg.Storage.Type = config.StorageRedis
	cfg.Storage.Redis.URL = "redis://" + mini.Addr()
	cfg.RateLimit.Type = config.LimiterRedis
	cfg.RateLimit.Limit = 5

	app, err := New(context.Background(), cfg, testutil.NopLogger())
	require.NoError(t, err)
	defer app.Close()

	assert.IsType(t, &redisstorage.Storage{}, app.Storage)
	assert.IsType(t, &ratelimit.RedisLimiter{}, app.Limiter)

	_, err = app.AuthService.Register(context.Background(), "Alice", "alice@example.com", "password123")
	require.NoError(t, err)
	assert.True(t, mini.Exists("coursehub:idx:email:alice@example.com"))
}

func TestNewWithoutLimiter(t *testing.T) {
	cfg := TestConfig()
	cfg.RateLimit.Type = config.LimiterNone

	app, err := New(context.Background(), cfg, testutil.NopLogger())
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Limiter)
}
