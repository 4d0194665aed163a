package memory

import (
	"context"
	"sync"

	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Records are copied on the way in and out so callers never share state.
type Storage struct {
	mu sync.RWMutex

	users      map[model.UserID]*model.User
	emailIndex map[string]model.UserID
	resetIndex map[string]model.UserID
	videos     map[model.VideoID]*model.Video
	products   map[model.ProductID]*model.Product
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:      make(map[model.UserID]*model.User),
		emailIndex: make(map[string]model.UserID),
		resetIndex: make(map[string]model.UserID),
		videos:     make(map[model.VideoID]*model.Video),
		products:   make(map[model.ProductID]*model.Product),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for memory storage
func (s *Storage) Close() error {
	return nil
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := model.NormalizeEmail(user.Email)
	if owner, ok := s.emailIndex[email]; ok && owner != user.ID {
		return model.ErrEmailTaken
	}

	if prev, ok := s.users[user.ID]; ok {
		if prev.Email != email {
			delete(s.emailIndex, prev.Email)
		}
		if prev.Reset.Code != "" && prev.Reset.Code != user.Reset.Code {
			delete(s.resetIndex, prev.Reset.Code)
		}
	}

	stored := user.Clone()
	stored.Email = email
	s.users[user.ID] = stored
	s.emailIndex[email] = user.ID
	if user.Reset.Code != "" {
		s.resetIndex[user.Reset.Code] = user.ID
	}
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return user.Clone(), nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[model.NormalizeEmail(email)]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return user.Clone(), nil
}

func (s *Storage) GetUserByResetCode(ctx context.Context, code string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if code == "" {
		return nil, model.ErrUserNotFound
	}
	id, ok := s.resetIndex[code]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	user, ok := s.users[id]
	if !ok || user.Reset.Code != code {
		return nil, model.ErrUserNotFound
	}
	return user.Clone(), nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.Clone())
	}
	storage.SortUsers(users)
	return users, nil
}

func (s *Storage) DeleteUser(ctx context.Context, id model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil
	}
	delete(s.emailIndex, user.Email)
	if user.Reset.Code != "" {
		delete(s.resetIndex, user.Reset.Code)
	}
	delete(s.users, id)
	return nil
}

// Video operations

func (s *Storage) SaveVideo(ctx context.Context, video *model.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[video.ID] = video.Clone()
	return nil
}

func (s *Storage) GetVideo(ctx context.Context, id model.VideoID) (*model.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	video, ok := s.videos[id]
	if !ok {
		return nil, model.ErrVideoNotFound
	}
	return video.Clone(), nil
}

func (s *Storage) ListVideos(ctx context.Context) ([]*model.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	videos := make([]*model.Video, 0, len(s.videos))
	for _, v := range s.videos {
		videos = append(videos, v.Clone())
	}
	storage.SortVideos(videos)
	return videos, nil
}

func (s *Storage) ListVideosByTutor(ctx context.Context, tutorID model.UserID) ([]*model.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	videos := []*model.Video{}
	for _, v := range s.videos {
		if v.TutorID == tutorID {
			videos = append(videos, v.Clone())
		}
	}
	storage.SortVideos(videos)
	return videos, nil
}

func (s *Storage) DeleteVideo(ctx context.Context, id model.VideoID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.videos, id)
	return nil
}

// Product operations

func (s *Storage) SaveProduct(ctx context.Context, product *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[product.ID] = product.Clone()
	return nil
}

func (s *Storage) GetProduct(ctx context.Context, id model.ProductID) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[id]
	if !ok {
		return nil, model.ErrProductNotFound
	}
	return product.Clone(), nil
}

func (s *Storage) ListProducts(ctx context.Context, query model.ProductQuery) (*model.ProductPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*model.Product, 0, len(s.products))
	for _, p := range s.products {
		all = append(all, p.Clone())
	}
	return storage.PaginateProducts(all, query), nil
}

func (s *Storage) DeleteProduct(ctx context.Context, id model.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	return nil
}
