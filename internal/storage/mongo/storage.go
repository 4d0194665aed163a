package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/storage"
)

// Collection names
const (
	usersCollection    = "users"
	videosCollection   = "videos"
	productsCollection = "products"
)

// Storage is a MongoDB-backed implementation of the storage interface.
// Reviews are embedded in their product document.
type Storage struct {
	client   *mongo.Client
	users    *mongo.Collection
	videos   *mongo.Collection
	products *mongo.Collection
}

// New connects to MongoDB and ensures the indexes exist
func New(cfg Config) (*Storage, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := NewWithClient(client, cfg.Database)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewWithClient creates a storage over an existing client without touching indexes
func NewWithClient(client *mongo.Client, database string) *Storage {
	db := client.Database(database)
	return &Storage{
		client:   client,
		users:    db.Collection(usersCollection),
		videos:   db.Collection(videosCollection),
		products: db.Collection(productsCollection),
	}
}

// User index names, matched against duplicate key errors
const (
	emailIndexName     = "email_unique"
	resetCodeIndexName = "reset_code_unique"
)

// userIndexes makes email unique, and each live reset code unique. Cleared
// challenges store an empty code and are left out of the reset index.
func userIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(emailIndexName).SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "reset.code", Value: 1}},
			Options: options.Index().
				SetName(resetCodeIndexName).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"reset.code": bson.M{"$gt": ""}}),
		},
	}
}

// EnsureIndexes creates the unique user indexes and the lookup indexes
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateMany(ctx, userIndexes()); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	if _, err := s.videos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tutor_id", Value: 1}, {Key: "created_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("create video indexes: %w", err)
	}

	if _, err := s.products.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}, {Key: "price", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}
	return nil
}

// Close disconnects the client
func (s *Storage) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, notFound error) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, err
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...options.Lister[options.FindOptions]) ([]*T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []*T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func upsert(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	stored := user.Clone()
	stored.Email = model.NormalizeEmail(user.Email)
	if err := upsert(ctx, s.users, string(stored.ID), stored); err != nil {
		return userWriteError(err)
	}
	return nil
}

// userWriteError maps a duplicate key on the email index to ErrEmailTaken
func userWriteError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	if strings.Contains(err.Error(), resetCodeIndexName) {
		return fmt.Errorf("reset code already assigned: %w", err)
	}
	return model.ErrEmailTaken
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	return findOne[model.User](ctx, s.users, bson.M{"_id": string(id)}, model.ErrUserNotFound)
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.users, bson.M{"email": model.NormalizeEmail(email)}, model.ErrUserNotFound)
}

func (s *Storage) GetUserByResetCode(ctx context.Context, code string) (*model.User, error) {
	if code == "" {
		return nil, model.ErrUserNotFound
	}
	return findOne[model.User](ctx, s.users, bson.M{"reset.code": code}, model.ErrUserNotFound)
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return findAll[model.User](ctx, s.users, bson.M{}, opts)
}

func (s *Storage) DeleteUser(ctx context.Context, id model.UserID) error {
	_, err := s.users.DeleteOne(ctx, bson.M{"_id": string(id)})
	return err
}

// Video operations

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}

func (s *Storage) SaveVideo(ctx context.Context, video *model.Video) error {
	return upsert(ctx, s.videos, string(video.ID), video)
}

func (s *Storage) GetVideo(ctx context.Context, id model.VideoID) (*model.Video, error) {
	return findOne[model.Video](ctx, s.videos, bson.M{"_id": string(id)}, model.ErrVideoNotFound)
}

func (s *Storage) ListVideos(ctx context.Context) ([]*model.Video, error) {
	return findAll[model.Video](ctx, s.videos, bson.M{}, options.Find().SetSort(newestFirst))
}

func (s *Storage) ListVideosByTutor(ctx context.Context, tutorID model.UserID) ([]*model.Video, error) {
	return findAll[model.Video](ctx, s.videos, bson.M{"tutor_id": string(tutorID)}, options.Find().SetSort(newestFirst))
}

func (s *Storage) DeleteVideo(ctx context.Context, id model.VideoID) error {
	_, err := s.videos.DeleteOne(ctx, bson.M{"_id": string(id)})
	return err
}

// Product operations

func (s *Storage) SaveProduct(ctx context.Context, product *model.Product) error {
	return upsert(ctx, s.products, string(product.ID), product)
}

func (s *Storage) GetProduct(ctx context.Context, id model.ProductID) (*model.Product, error) {
	return findOne[model.Product](ctx, s.products, bson.M{"_id": string(id)}, model.ErrProductNotFound)
}

func (s *Storage) ListProducts(ctx context.Context, query model.ProductQuery) (*model.ProductPage, error) {
	total, err := s.products.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	filter := productFilter(query)
	filtered, err := s.products.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(int64(query.Offset())).
		SetLimit(int64(query.Limit()))
	products, err := findAll[model.Product](ctx, s.products, filter, opts)
	if err != nil {
		return nil, err
	}

	return &model.ProductPage{
		Products:      products,
		TotalCount:    int(total),
		FilteredCount: int(filtered),
	}, nil
}

func (s *Storage) DeleteProduct(ctx context.Context, id model.ProductID) error {
	_, err := s.products.DeleteOne(ctx, bson.M{"_id": string(id)})
	return err
}

// productFilter translates a product query into a MongoDB filter.
// The keyword is matched case-insensitively as a literal substring of the name.
func productFilter(q model.ProductQuery) bson.M {
	filter := bson.M{}
	if q.Keyword != "" {
		filter["name"] = bson.Regex{Pattern: regexp.QuoteMeta(q.Keyword), Options: "i"}
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	price := bson.M{}
	if q.MinPrice != nil {
		price["$gte"] = *q.MinPrice
	}
	if q.MaxPrice != nil {
		price["$lte"] = *q.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	return filter
}
