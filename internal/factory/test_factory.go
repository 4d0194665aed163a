package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/coursehub/internal/api/middleware"
	"github.com/mcoot/coursehub/internal/config"
	"github.com/mcoot/coursehub/internal/dependencies/mocks"
	"github.com/mcoot/coursehub/internal/ratelimit"
	"github.com/mcoot/coursehub/internal/storage/memory"
	"github.com/mcoot/coursehub/internal/testutil"
)

// TestSecret signs sessions in test apps
const TestSecret = "test-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock    *mocks.MockClock
	MockRandom   *mocks.MockRandom
	MockSender   *mocks.MockSender
	MockUploader *mocks.MockUploader
	MemoryStore  *memory.Storage
}

// TestConfig returns the configuration used by NewTestApp. Rate limiting is off.
func TestConfig() config.Config {
	cfg := config.Default()
	cfg.Auth.Secret = TestSecret
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.RateLimit.Limit = 0
	return cfg
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithConfig(TestConfig())
}

// NewTestAppWithConfig is NewTestApp with a caller-adjusted configuration
func NewTestAppWithConfig(cfg config.Config) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockSender := mocks.NewMockSender()
	mockUploader := mocks.NewMockUploader()

	app := newWithDependencies(Dependencies{
		Storage:  store,
		Clock:    mockClock,
		Random:   mockRandom,
		Sender:   mockSender,
		Uploader: mockUploader,
		Limiter:  ratelimit.NewMemoryLimiter(mockClock),
		Metrics:  middleware.NewMetrics(),
	}, cfg, testutil.NopLogger())

	return &TestApp{
		App:          app,
		MockClock:    mockClock,
		MockRandom:   mockRandom,
		MockSender:   mockSender,
		MockUploader: mockUploader,
		MemoryStore:  store,
	}
}
