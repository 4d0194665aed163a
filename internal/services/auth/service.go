package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/coursehub/internal/dependencies/clock"
	"github.com/mcoot/coursehub/internal/dependencies/random"
	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/notify"
	"github.com/mcoot/coursehub/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidChallenge   = errors.New("invalid reset code")
	ErrChallengeExpired   = errors.New("reset code expired")
	ErrSecretMismatch     = errors.New("passwords do not match")
	ErrDeliveryFailed     = errors.New("reset code delivery failed")
)

// MinPasswordLength is the shortest password accepted
const MinPasswordLength = 8

// ResetSubject is the subject line of reset code messages
const ResetSubject = "Password Recovery"

// maxChallengeAttempts bounds the search for a code no other user holds
const maxChallengeAttempts = 10

// Config holds configuration for the auth service
type Config struct {
	// Secret signs session tokens
	Secret     string
	SessionTTL time.Duration

	// ChallengeDigits of 0 means the default of 5
	ChallengeDigits int
	ChallengeTTL    time.Duration

	// BcryptCost of 0 means bcrypt.DefaultCost
	BcryptCost int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionTTL:      24 * time.Hour,
		ChallengeDigits: 5,
		ChallengeTTL:    15 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.SessionTTL == 0 {
		c.SessionTTL = defaults.SessionTTL
	}
	if c.ChallengeDigits == 0 {
		c.ChallengeDigits = defaults.ChallengeDigits
	}
	if c.ChallengeTTL == 0 {
		c.ChallengeTTL = defaults.ChallengeTTL
	}
	return c
}

// Validate checks the configuration is usable
func (c Config) Validate() error {
	if c.Secret == "" {
		return errors.New("auth: session secret is required")
	}
	if c.ChallengeDigits < 0 || c.ChallengeDigits > 9 {
		return fmt.Errorf("auth: challenge digits must be between 1 and 9, or 0 for the default, got %d", c.ChallengeDigits)
	}
	if c.SessionTTL < 0 || c.ChallengeTTL < 0 {
		return errors.New("auth: durations must not be negative")
	}
	return nil
}

// Service handles registration, login, sessions and the password reset flow
type Service struct {
	storage    storage.Storage
	hasher     Hasher
	issuer     *SessionIssuer
	challenges *ChallengeGenerator
	sender     notify.Sender
	clock      clock.Clock
	logger     *slog.Logger
}

// New creates a new auth Service from its collaborators
func New(store storage.Storage, hasher Hasher, issuer *SessionIssuer, challenges *ChallengeGenerator,
	sender notify.Sender, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage:    store,
		hasher:     hasher,
		issuer:     issuer,
		challenges: challenges,
		sender:     sender,
		clock:      clk,
		logger:     logger,
	}
}

// NewFromConfig builds the hasher, issuer and challenge generator from cfg
func NewFromConfig(store storage.Storage, sender notify.Sender, clk clock.Clock, rng random.Random,
	cfg Config, logger *slog.Logger) *Service {
	cfg = cfg.withDefaults()
	return New(store,
		NewBcryptHasher(cfg.BcryptCost),
		NewSessionIssuer(cfg.Secret, cfg.SessionTTL, clk),
		NewChallengeGenerator(rng, clk, cfg.ChallengeDigits, cfg.ChallengeTTL),
		sender, clk, logger)
}

// Issuer returns the session issuer used by this service
func (s *Service) Issuer() *SessionIssuer {
	return s.issuer
}

// Register creates a user account with the default role and returns a session
func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	email = model.NormalizeEmail(email)
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	_, err := s.storage.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &model.User{
		ID:           model.UserID(uuid.NewString()),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Avatar:       model.PlaceholderAvatar,
		Videos:       []model.VideoID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", string(user.ID)))
	return s.createSession(user)
}

// Login authenticates by email and password and returns a session
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, model.NewValidationError("credentials", "Please enter the Email & Password both")
	}

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.createSession(user)
}

// Authenticate resolves a session token to its user
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.issuer.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	return user, nil
}

// UpdatePassword replaces the password of an authenticated user who knows the current one
func (s *Service) UpdatePassword(ctx context.Context, userID model.UserID, oldPassword, newPassword, confirm string) (*Session, error) {
	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if newPassword != confirm {
		return nil, ErrSecretMismatch
	}
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	if err := s.replacePassword(ctx, user, newPassword); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "password updated", slog.String("user_id", string(user.ID)))
	return s.createSession(user)
}

// RequestPasswordReset issues a reset code to the user with the given email.
// Any earlier code is replaced. If delivery fails the new code is withdrawn
// and ErrDeliveryFailed is returned wrapping the cause.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return model.NewValidationError("email", "Please enter your email")
	}

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	challenge, err := s.newChallenge(ctx, user.ID)
	if err != nil {
		return err
	}

	user.Reset = challenge
	user.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("save reset challenge: %w", err)
	}

	msg := notify.Message{
		To:      user.Email,
		Subject: ResetSubject,
		Body:    resetBody(challenge.Code),
	}

	if sendErr := s.sender.Send(ctx, msg); sendErr != nil {
		s.logger.WarnContext(ctx, "reset code delivery failed",
			slog.String("user_id", string(user.ID)),
			slog.Any("error", sendErr),
		)

		user.Reset = model.ResetChallenge{}
		user.UpdatedAt = s.clock.Now()
		if err := s.storage.SaveUser(ctx, user); err != nil {
			s.logger.ErrorContext(ctx, "failed to withdraw reset challenge",
				slog.String("user_id", string(user.ID)),
				slog.Any("error", err),
			)
			return fmt.Errorf("%w: %w", ErrDeliveryFailed, errors.Join(sendErr, err))
		}
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, sendErr)
	}

	s.logger.InfoContext(ctx, "reset code issued",
		slog.String("user_id", string(user.ID)),
		slog.Time("expires_at", challenge.ExpiresAt),
	)
	return nil
}

// ResetPassword redeems a reset code, replacing the password and returning a new session
func (s *Service) ResetPassword(ctx context.Context, code, password, confirm string) (*Session, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, model.NewValidationError("otp", "Please enter the OTP")
	}
	if password == "" {
		return nil, model.NewValidationError("password", "Please enter your password")
	}

	user, err := s.storage.GetUserByResetCode(ctx, code)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrInvalidChallenge
		}
		return nil, err
	}

	if !user.Reset.Matches(code) {
		return nil, ErrInvalidChallenge
	}
	switch user.Reset.State(s.clock.Now()) {
	case model.ChallengePending:
	case model.ChallengeExpired:
		return nil, ErrChallengeExpired
	default:
		return nil, ErrInvalidChallenge
	}

	if password != confirm {
		return nil, ErrSecretMismatch
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	user.Reset = model.ResetChallenge{}
	if err := s.replacePassword(ctx, user, password); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "password reset", slog.String("user_id", string(user.ID)))
	return s.createSession(user)
}

// replacePassword hashes and persists a new password for user
func (s *Service) replacePassword(ctx context.Context, user *model.User, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.clock.Now()
	return s.storage.SaveUser(ctx, user)
}

// newChallenge generates a code not currently held by any other user
func (s *Service) newChallenge(ctx context.Context, userID model.UserID) (model.ResetChallenge, error) {
	for i := 0; i < maxChallengeAttempts; i++ {
		challenge := s.challenges.Generate()

		holder, err := s.storage.GetUserByResetCode(ctx, challenge.Code)
		if errors.Is(err, model.ErrUserNotFound) {
			return challenge, nil
		}
		if err != nil {
			return model.ResetChallenge{}, err
		}
		if holder.ID == userID {
			return challenge, nil
		}
	}
	return model.ResetChallenge{}, errors.New("failed to allocate a unique reset code")
}

func (s *Service) createSession(user *model.User) (*Session, error) {
	session, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	session.User = user
	return session, nil
}

// validatePassword enforces the password policy
func validatePassword(password string) error {
	if password == "" {
		return model.NewValidationError("password", "Please enter your password")
	}
	if len([]rune(password)) < MinPasswordLength {
		return model.NewValidationError("password", "Password should be greater than 8 characters")
	}
	if len(password) > MaxSecretBytes {
		return model.NewValidationError("password", "Password cannot exceed 72 bytes")
	}
	return nil
}

func resetBody(code string) string {
	return "Your OTP for password reset is: " + code +
		". Use this OTP to reset your password. If you have not requested this email then please ignore it."
}
