package users

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mcoot/coursehub/internal/dependencies/clock"
	"github.com/mcoot/coursehub/internal/media"
	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/storage"
)

// Service manages user profiles and admin user operations
type Service struct {
	storage storage.Storage
	media   media.Uploader
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new users Service
func New(storage storage.Storage, uploader media.Uploader, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		media:   uploader,
		clock:   clock,
		logger:  logger,
	}
}

// Get retrieves a user by ID
func (s *Service) Get(ctx context.Context, id model.UserID) (*model.User, error) {
	return s.storage.GetUser(ctx, id)
}

// List returns every user, oldest first
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	return s.storage.ListUsers(ctx)
}

// UpdateProfile changes a user's name and email. Empty values are left unchanged.
func (s *Service) UpdateProfile(ctx context.Context, id model.UserID, name, email string) (*model.User, error) {
	user, err := s.storage.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		user.Name = name
	}
	if email = model.NormalizeEmail(email); email != "" {
		user.Email = email
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	user.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateAvatar uploads a new avatar and releases the previous one
func (s *Service) UpdateAvatar(ctx context.Context, id model.UserID, obj media.Object) (*model.User, error) {
	user, err := s.storage.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	obj.Kind = media.KindAvatar
	ref, err := s.media.Upload(ctx, obj)
	if err != nil {
		return nil, err
	}

	previous := user.Avatar
	user.Avatar = ref
	user.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveUser(ctx, user); err != nil {
		s.releaseMedia(ctx, ref)
		return nil, err
	}

	s.releaseMedia(ctx, previous)
	return user, nil
}

// UpdateRole sets a user's role
func (s *Service) UpdateRole(ctx context.Context, id model.UserID, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, model.NewValidationError("role", "Role must be one of user, tutor or admin")
	}

	user, err := s.storage.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Role = role
	user.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user role changed",
		slog.String("user_id", string(id)),
		slog.String("role", string(role)),
	)
	return user, nil
}

// Delete removes a user and their avatar
func (s *Service) Delete(ctx context.Context, id model.UserID) error {
	user, err := s.storage.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteUser(ctx, id); err != nil {
		return err
	}

	s.releaseMedia(ctx, user.Avatar)
	s.logger.InfoContext(ctx, "user deleted", slog.String("user_id", string(id)))
	return nil
}

// releaseMedia deletes an uploaded object, ignoring the shared placeholder.
// Failures are logged since the owning record is already updated.
func (s *Service) releaseMedia(ctx context.Context, ref model.MediaRef) {
	if ref.PublicID == "" || ref == model.PlaceholderAvatar {
		return
	}
	if err := s.media.Delete(ctx, ref.PublicID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete media",
			slog.String("public_id", ref.PublicID),
			slog.Any("error", err),
		)
	}
}
