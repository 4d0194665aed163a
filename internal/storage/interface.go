package storage

import (
	"context"

	"github.com/mcoot/coursehub/internal/model"
)

// Storage defines the interface for data persistence.
// Every operation on a single record is atomic; there is no cross-record
// transaction and concurrent writers to the same record are last-write-wins.
type Storage interface {
	// User operations
	// SaveUser inserts or replaces a user, keeping the email and reset-code
	// indexes in sync. Returns model.ErrEmailTaken if another user holds the email.
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// GetUserByResetCode returns the user holding the given reset code,
	// whether or not it has expired. Expiry is enforced by the caller.
	GetUserByResetCode(ctx context.Context, code string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	DeleteUser(ctx context.Context, id model.UserID) error

	// Video operations
	SaveVideo(ctx context.Context, video *model.Video) error
	GetVideo(ctx context.Context, id model.VideoID) (*model.Video, error)
	ListVideos(ctx context.Context) ([]*model.Video, error)
	ListVideosByTutor(ctx context.Context, tutorID model.UserID) ([]*model.Video, error)
	DeleteVideo(ctx context.Context, id model.VideoID) error

	// Product operations (reviews are stored with their product)
	SaveProduct(ctx context.Context, product *model.Product) error
	GetProduct(ctx context.Context, id model.ProductID) (*model.Product, error)
	ListProducts(ctx context.Context, query model.ProductQuery) (*model.ProductPage, error)
	DeleteProduct(ctx context.Context, id model.ProductID) error

	// Close releases backend resources
	Close() error
}
