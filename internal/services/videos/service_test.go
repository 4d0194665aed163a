package videos

import (
	"context"
	"errors"
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

	tutor   *model.User
	other   *model.User
	admin   *model.User
	student *model.User
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

	s.tutor = s.user("tutor-1", "Tina", model.RoleTutor)
	s.other = s.user("tutor-2", "Theo", model.RoleTutor)
	s.admin = s.user("admin-1", "Ada", model.RoleAdmin)
	s.student = s.user("user-1", "Sam", model.RoleUser)
}

func (s *ServiceSuite) user(id, name string, role model.Role) *model.User {
	u := &model.User{
		ID:           model.UserID(id),
		Name:         name,
		Email:        id + "@example.com",
		PasswordHash: "hash",
		Role:         role,
		Avatar:       model.PlaceholderAvatar,
	}
	s.Require().NoError(s.storage.SaveUser(s.ctx, u))
	return u
}

func (s *ServiceSuite) file() *media.Object {
	return &media.Object{
		Filename:    "lesson.mp4",
		ContentType: "video/mp4",
		Body:        strings.NewReader("frames"),
	}
}

func (s *ServiceSuite) upload(tutor *model.User, title string) *model.Video {
	video, err := s.service.Upload(s.ctx, tutor.ID, title, "About "+title, s.file())
	s.Require().NoError(err)
	s.clock.Advance(time.Minute)
	return video
}

func (s *ServiceSuite) TestUploadStoresVideoAndOwnerReference() {
	video := s.upload(s.tutor, "Intro")

	s.Equal("video-1", video.Media.PublicID)
	s.Equal(s.tutor.ID, video.TutorID)

	content, ok := s.uploader.Content("video-1")
	s.Require().True(ok)
	s.Equal("frames", string(content))

	tutor, err := s.storage.GetUser(s.ctx, s.tutor.ID)
	s.Require().NoError(err)
	s.True(tutor.HasVideo(video.ID))
}

func (s *ServiceSuite) TestUploadRequiresAllFields() {
	_, err := s.service.Upload(s.ctx, s.tutor.ID, "", "desc", s.file())
	s.True(model.IsValidationError(err))

	_, err = s.service.Upload(s.ctx, s.tutor.ID, "title", "  ", s.file())
	s.True(model.IsValidationError(err))

	_, err = s.service.Upload(s.ctx, s.tutor.ID, "title", "desc", nil)
	s.True(model.IsValidationError(err))

	s.Equal(0, s.uploader.Uploads())
}

func (s *ServiceSuite) TestUploadFailureLeavesNothingBehind() {
	s.uploader.UploadErr = media.ErrUploadFailed

	_, err := s.service.Upload(s.ctx, s.tutor.ID, "Intro", "desc", s.file())
	s.ErrorIs(err, media.ErrUploadFailed)

	videos, err := s.storage.ListVideos(s.ctx)
	s.Require().NoError(err)
	s.Empty(videos)
}

// failingUserStore rejects every user write once armed
type failingUserStore struct {
	*memory.Storage
	armed bool
}

func (f *failingUserStore) SaveUser(ctx context.Context, u *model.User) error {
	if f.armed {
		return errors.New("user write failed")
	}
	return f.Storage.SaveUser(ctx, u)
}

func (s *ServiceSuite) TestUploadRollsBackWhenOwnerCannotBeSaved() {
	store := &failingUserStore{Storage: s.storage, armed: true}
	service := New(store, s.uploader, s.clock, testutil.NopLogger())

	_, err := service.Upload(s.ctx, s.tutor.ID, "Intro", "desc", s.file())
	s.EqualError(err, "user write failed")

	videos, err := s.storage.ListVideos(s.ctx)
	s.Require().NoError(err)
	s.Empty(videos)

	s.Equal([]string{"video-1"}, s.uploader.Deleted())

	tutor, err := s.storage.GetUser(s.ctx, s.tutor.ID)
	s.Require().NoError(err)
	s.Empty(tutor.Videos)
}

func (s *ServiceSuite) TestListJoinsTutor() {
	s.upload(s.tutor, "First")
	s.upload(s.other, "Second")

	entries, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("Second", entries[0].Video.Title)
	s.Equal("Theo", entries[0].TutorName)
	s.Equal("tutor-2@example.com", entries[0].TutorEmail)
	s.Equal("Tina", entries[1].TutorName)
}

func (s *ServiceSuite) TestListForTutor() {
	s.upload(s.tutor, "First")
	s.upload(s.other, "Second")
	s.upload(s.tutor, "Third")

	mine, err := s.service.ListForTutor(s.ctx, s.tutor.ID)
	s.Require().NoError(err)
	s.Require().Len(mine, 2)
	s.Equal("Third", mine[0].Title)
}

func (s *ServiceSuite) TestUpdateByOwner() {
	video := s.upload(s.tutor, "Intro")

	updated, err := s.service.Update(s.ctx, s.tutor, video.ID, "Intro v2", "")
	s.Require().NoError(err)
	s.Equal("Intro v2", updated.Title)
	s.Equal("About Intro", updated.Description)
}

func (s *ServiceSuite) TestUpdateByAdmin() {
	video := s.upload(s.tutor, "Intro")

	_, err := s.service.Update(s.ctx, s.admin, video.ID, "", "Edited by admin")
	s.NoError(err)
}

func (s *ServiceSuite) TestUpdateForbiddenForOthers() {
	video := s.upload(s.tutor, "Intro")

	_, err := s.service.Update(s.ctx, s.other, video.ID, "Hijacked", "")
	s.ErrorIs(err, model.ErrForbidden)

	_, err = s.service.Update(s.ctx, s.student, video.ID, "Hijacked", "")
	s.ErrorIs(err, model.ErrForbidden)

	got, err := s.service.Get(s.ctx, video.ID)
	s.Require().NoError(err)
	s.Equal("Intro", got.Title)
}

func (s *ServiceSuite) TestDeleteRemovesMediaAndReference() {
	video := s.upload(s.tutor, "Intro")

	s.Require().NoError(s.service.Delete(s.ctx, s.tutor, video.ID))

	_, err := s.service.Get(s.ctx, video.ID)
	s.ErrorIs(err, model.ErrVideoNotFound)
	s.Equal([]string{"video-1"}, s.uploader.Deleted())

	tutor, err := s.storage.GetUser(s.ctx, s.tutor.ID)
	s.Require().NoError(err)
	s.False(tutor.HasVideo(video.ID))
}

func (s *ServiceSuite) TestDeleteForbiddenForOthers() {
	video := s.upload(s.tutor, "Intro")

	s.ErrorIs(s.service.Delete(s.ctx, s.other, video.ID), model.ErrForbidden)
	s.Empty(s.uploader.Deleted())

	s.NoError(s.service.Delete(s.ctx, s.admin, video.ID))
}

func (s *ServiceSuite) TestDeleteNotFound() {
	s.ErrorIs(s.service.Delete(s.ctx, s.admin, "nope"), model.ErrVideoNotFound)
}
