// Package media stores uploaded binaries (videos, avatars, product images)
// and hands back a public reference to them.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/coursehub/internal/model"
)

// ErrUploadFailed wraps any failure of the backing object store
var ErrUploadFailed = errors.New("media upload failed")

// Kind classifies uploaded objects; it is used as the key prefix
type Kind string

const (
	KindVideo  Kind = "video"
	KindAvatar Kind = "avatar"
	KindImage  Kind = "image"
)

// Object is a binary to be uploaded
type Object struct {
	Kind        Kind
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Uploader stores objects and returns references to them
type Uploader interface {
	Upload(ctx context.Context, obj Object) (model.MediaRef, error)
	Delete(ctx context.Context, publicID string) error
}

// ObjectKey builds a unique storage key for an object uploaded at t
func ObjectKey(kind Kind, filename string, t time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%ss/%d/%02d/%s%s", kind, t.Year(), t.Month(), uuid.NewString(), ext)
}
