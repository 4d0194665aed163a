package videos

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mcoot/coursehub/internal/dependencies/clock"
	"github.com/mcoot/coursehub/internal/media"
	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/storage"
)

// Entry is a video together with the public details of its tutor
type Entry struct {
	Video      *model.Video
	TutorName  string
	TutorEmail string
}

// Service manages tutor video uploads
type Service struct {
	storage storage.Storage
	media   media.Uploader
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new videos Service
func New(storage storage.Storage, uploader media.Uploader, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		media:   uploader,
		clock:   clock,
		logger:  logger,
	}
}

// Upload stores the video file and records it against the tutor
func (s *Service) Upload(ctx context.Context, tutorID model.UserID, title, description string, file *media.Object) (*model.Video, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" || file == nil {
		return nil, model.NewValidationError("video", "Please provide title, description and video file")
	}

	tutor, err := s.storage.GetUser(ctx, tutorID)
	if err != nil {
		return nil, err
	}

	file.Kind = media.KindVideo
	ref, err := s.media.Upload(ctx, *file)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	video := &model.Video{
		ID:          model.VideoID(uuid.NewString()),
		Title:       title,
		Description: description,
		Media:       ref,
		TutorID:     tutor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := video.Validate(); err != nil {
		s.releaseMedia(ctx, ref)
		return nil, err
	}

	if err := s.storage.SaveVideo(ctx, video); err != nil {
		s.releaseMedia(ctx, ref)
		return nil, err
	}

	tutor.Videos = append(tutor.Videos, video.ID)
	tutor.UpdatedAt = now
	if err := s.storage.SaveUser(ctx, tutor); err != nil {
		if delErr := s.storage.DeleteVideo(ctx, video.ID); delErr != nil {
			s.logger.WarnContext(ctx, "failed to remove orphaned video",
				slog.String("video_id", string(video.ID)),
				slog.Any("error", delErr),
			)
		}
		s.releaseMedia(ctx, ref)
		return nil, err
	}

	s.logger.InfoContext(ctx, "video uploaded",
		slog.String("video_id", string(video.ID)),
		slog.String("tutor_id", string(tutor.ID)),
	)
	return video, nil
}

// List returns every video, newest first, with tutor details
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	videos, err := s.storage.ListVideos(ctx)
	if err != nil {
		return nil, err
	}

	tutors := make(map[model.UserID]*model.User)
	entries := make([]Entry, 0, len(videos))
	for _, v := range videos {
		tutor, ok := tutors[v.TutorID]
		if !ok {
			tutor, err = s.storage.GetUser(ctx, v.TutorID)
			if err != nil && !errors.Is(err, model.ErrUserNotFound) {
				return nil, err
			}
			tutors[v.TutorID] = tutor
		}

		entry := Entry{Video: v}
		if tutor != nil {
			entry.TutorName = tutor.Name
			entry.TutorEmail = tutor.Email
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ListForTutor returns the videos uploaded by a tutor, newest first
func (s *Service) ListForTutor(ctx context.Context, tutorID model.UserID) ([]*model.Video, error) {
	return s.storage.ListVideosByTutor(ctx, tutorID)
}

// Get retrieves a video by ID
func (s *Service) Get(ctx context.Context, id model.VideoID) (*model.Video, error) {
	return s.storage.GetVideo(ctx, id)
}

// Update changes a video's title and description. Empty values are left unchanged.
func (s *Service) Update(ctx context.Context, actor *model.User, id model.VideoID, title, description string) (*model.Video, error) {
	video, err := s.storage.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, video) {
		return nil, model.ErrForbidden
	}

	if title = strings.TrimSpace(title); title != "" {
		video.Title = title
	}
	if description = strings.TrimSpace(description); description != "" {
		video.Description = description
	}
	video.UpdatedAt = s.clock.Now()

	if err := s.storage.SaveVideo(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

// Delete removes a video, its media object and the owner's reference to it
func (s *Service) Delete(ctx context.Context, actor *model.User, id model.VideoID) error {
	video, err := s.storage.GetVideo(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(actor, video) {
		return model.ErrForbidden
	}

	if err := s.media.Delete(ctx, video.Media.PublicID); err != nil {
		return err
	}
	if err := s.storage.DeleteVideo(ctx, id); err != nil {
		return err
	}

	owner, err := s.storage.GetUser(ctx, video.TutorID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if owner.RemoveVideo(id) {
		owner.UpdatedAt = s.clock.Now()
		if err := s.storage.SaveUser(ctx, owner); err != nil {
			return err
		}
	}

	s.logger.InfoContext(ctx, "video deleted",
		slog.String("video_id", string(id)),
		slog.String("actor_id", string(actor.ID)),
	)
	return nil
}

// canModify reports whether actor owns the video or is an admin
func canModify(actor *model.User, video *model.Video) bool {
	if actor == nil {
		return false
	}
	return actor.Role == model.RoleAdmin || actor.ID == video.TutorID
}

func (s *Service) releaseMedia(ctx context.Context, ref model.MediaRef) {
	if err := s.media.Delete(ctx, ref.PublicID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete media",
			slog.String("public_id", ref.PublicID),
			slog.Any("error", err),
		)
	}
}
