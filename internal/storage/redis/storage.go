package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/coursehub/internal/dependencies/clock"
	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
	clock  clock.Clock
}

// New creates a new Redis storage instance. clk dates reset-code index expiry.
func New(cfg Config, clk clock.Clock) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg, clk), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, clk clock.Clock) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
		clock:  clk,
	}
}

// Client exposes the underlying client so other components can share the pool
func (s *Storage) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// getJSON fetches key and decodes it into dst, mapping a miss to notFound
func (s *Storage) getJSON(ctx context.Context, key string, dst any, notFound error) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return err
	}
	return json.Unmarshal(data, dst)
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	stored := user.Clone()
	stored.Email = model.NormalizeEmail(user.Email)

	// Claim the email index first; SETNX makes concurrent registrations
	// of the same address race on a single key
	claimed, err := s.client.SetNX(ctx, emailIndexKey(stored.Email), string(stored.ID), 0).Result()
	if err != nil {
		return err
	}
	if !claimed {
		owner, err := s.client.Get(ctx, emailIndexKey(stored.Email)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if owner != string(stored.ID) {
			return model.ErrEmailTaken
		}
	}

	var prev model.User
	hasPrev := true
	if err := s.getJSON(ctx, userKey(stored.ID), &prev, model.ErrUserNotFound); err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			return err
		}
		hasPrev = false
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, userKey(stored.ID), data, 0)
	pipe.SAdd(ctx, usersIndexKey(), string(stored.ID))
	if hasPrev && prev.Email != stored.Email {
		pipe.Del(ctx, emailIndexKey(prev.Email))
	}
	if hasPrev && prev.Reset.Code != "" && prev.Reset.Code != stored.Reset.Code {
		pipe.Del(ctx, resetIndexKey(prev.Reset.Code))
	}
	if stored.Reset.Code != "" {
		pipe.Set(ctx, resetIndexKey(stored.Reset.Code), string(stored.ID), s.resetIndexTTL(stored.Reset))
	}
	_, err = pipe.Exec(ctx)
	return err
}

// resetIndexTTL keeps the index entry until the grace window after expiry
func (s *Storage) resetIndexTTL(c model.ResetChallenge) time.Duration {
	if s.cfg.ResetIndexGrace <= 0 {
		return 0
	}
	ttl := c.ExpiresAt.Sub(s.clock.Now()) + s.cfg.ResetIndexGrace
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	var user model.User
	if err := s.getJSON(ctx, userKey(id), &user, model.ErrUserNotFound); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	id, err := s.client.Get(ctx, emailIndexKey(model.NormalizeEmail(email))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUser(ctx, model.UserID(id))
}

func (s *Storage) GetUserByResetCode(ctx context.Context, code string) (*model.User, error) {
	if code == "" {
		return nil, model.ErrUserNotFound
	}
	id, err := s.client.Get(ctx, resetIndexKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	user, err := s.GetUser(ctx, model.UserID(id))
	if err != nil {
		return nil, err
	}
	// Stale index entry left by a concurrent writer
	if user.Reset.Code != code {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	ids, err := s.client.SMembers(ctx, usersIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(model.UserID(id))
	}

	users := make([]*model.User, 0, len(keys))
	if err := s.mgetJSON(ctx, keys, func(data []byte) error {
		var u model.User
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		users = append(users, &u)
		return nil
	}); err != nil {
		return nil, err
	}
	storage.SortUsers(users)
	return users, nil
}

func (s *Storage) DeleteUser(ctx context.Context, id model.UserID) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, userKey(id))
	pipe.SRem(ctx, usersIndexKey(), string(id))
	pipe.Del(ctx, emailIndexKey(user.Email))
	if user.Reset.Code != "" {
		pipe.Del(ctx, resetIndexKey(user.Reset.Code))
	}
	_, err = pipe.Exec(ctx)
	return err
}

// mgetJSON fetches keys with MGET and hands each present value to decode.
// Missing keys are skipped.
func (s *Storage) mgetJSON(ctx context.Context, keys []string, decode func([]byte) error) error {
	if len(keys) == 0 {
		return nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return err
	}

	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Deleted between SMEMBERS and MGET
		}
		if err := decode([]byte(str)); err != nil {
			return err
		}
	}
	return nil
}

// Video operations

func (s *Storage) SaveVideo(ctx context.Context, video *model.Video) error {
	var prev model.Video
	hasPrev := true
	if err := s.getJSON(ctx, videoKey(video.ID), &prev, model.ErrVideoNotFound); err != nil {
		if !errors.Is(err, model.ErrVideoNotFound) {
			return err
		}
		hasPrev = false
	}

	data, err := json.Marshal(video)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, videoKey(video.ID), data, 0)
	pipe.SAdd(ctx, videosIndexKey(), string(video.ID))
	if hasPrev && prev.TutorID != video.TutorID {
		pipe.SRem(ctx, tutorVideosIndexKey(prev.TutorID), string(video.ID))
	}
	pipe.SAdd(ctx, tutorVideosIndexKey(video.TutorID), string(video.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetVideo(ctx context.Context, id model.VideoID) (*model.Video, error) {
	var video model.Video
	if err := s.getJSON(ctx, videoKey(id), &video, model.ErrVideoNotFound); err != nil {
		return nil, err
	}
	return &video, nil
}

func (s *Storage) listVideos(ctx context.Context, indexKey string) ([]*model.Video, error) {
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = videoKey(model.VideoID(id))
	}

	videos := make([]*model.Video, 0, len(keys))
	if err := s.mgetJSON(ctx, keys, func(data []byte) error {
		var v model.Video
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		videos = append(videos, &v)
		return nil
	}); err != nil {
		return nil, err
	}
	storage.SortVideos(videos)
	return videos, nil
}

func (s *Storage) ListVideos(ctx context.Context) ([]*model.Video, error) {
	return s.listVideos(ctx, videosIndexKey())
}

func (s *Storage) ListVideosByTutor(ctx context.Context, tutorID model.UserID) ([]*model.Video, error) {
	return s.listVideos(ctx, tutorVideosIndexKey(tutorID))
}

func (s *Storage) DeleteVideo(ctx context.Context, id model.VideoID) error {
	video, err := s.GetVideo(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrVideoNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, videoKey(id))
	pipe.SRem(ctx, videosIndexKey(), string(id))
	pipe.SRem(ctx, tutorVideosIndexKey(video.TutorID), string(id))
	_, err = pipe.Exec(ctx)
	return err
}

// Product operations

func (s *Storage) SaveProduct(ctx context.Context, product *model.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, productKey(product.ID), data, 0)
	pipe.SAdd(ctx, productsIndexKey(), string(product.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetProduct(ctx context.Context, id model.ProductID) (*model.Product, error) {
	var product model.Product
	if err := s.getJSON(ctx, productKey(id), &product, model.ErrProductNotFound); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Storage) ListProducts(ctx context.Context, query model.ProductQuery) (*model.ProductPage, error) {
	ids, err := s.client.SMembers(ctx, productsIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(model.ProductID(id))
	}

	all := make([]*model.Product, 0, len(keys))
	if err := s.mgetJSON(ctx, keys, func(data []byte) error {
		var p model.Product
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		all = append(all, &p)
		return nil
	}); err != nil {
		return nil, err
	}
	return storage.PaginateProducts(all, query), nil
}

func (s *Storage) DeleteProduct(ctx context.Context, id model.ProductID) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, productKey(id))
	pipe.SRem(ctx, productsIndexKey(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}
