package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/storage"
	"github.com/mcoot/coursehub/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
}

func TestStorageSuite(t *testing.T) {
	s := new(StorageSuite)
	s.NewStorage = func() storage.Storage { return New() }
	suite.Run(t, s)
}

func (s *StorageSuite) TestStoredEmailIsNormalized() {
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, &model.User{ID: "user-1", Email: "  Alice@Example.com "}))

	got, err := s.Storage.GetUser(s.Ctx, "user-1")
	s.Require().NoError(err)
	s.Equal("alice@example.com", got.Email)
}
