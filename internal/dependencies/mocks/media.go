package mocks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/mcoot/coursehub/internal/media"
	"github.com/mcoot/coursehub/internal/model"
)

// MockUploader returns predictable media references
type MockUploader struct {
	mu       sync.Mutex
	uploads  []media.Object
	contents map[string][]byte
	deleted  []string
	counter  int

	// UploadErr, when set, is returned from Upload
	UploadErr error
}

// Ensure MockUploader implements Uploader
var _ media.Uploader = (*MockUploader)(nil)

// NewMockUploader creates a MockUploader
func NewMockUploader() *MockUploader {
	return &MockUploader{contents: make(map[string][]byte)}
}

// Upload records the object and returns "<kind>-<n>" as its public ID
func (u *MockUploader) Upload(ctx context.Context, obj media.Object) (model.MediaRef, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.UploadErr != nil {
		return model.MediaRef{}, u.UploadErr
	}

	var data []byte
	if obj.Body != nil {
		data, _ = io.ReadAll(obj.Body)
	}

	u.counter++
	id := fmt.Sprintf("%s-%d", obj.Kind, u.counter)
	u.uploads = append(u.uploads, obj)
	u.contents[id] = data

	return model.MediaRef{PublicID: id, URL: "https://media.test/" + id}, nil
}

// Delete records the deleted public ID
func (u *MockUploader) Delete(ctx context.Context, publicID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, publicID)
	delete(u.contents, publicID)
	return nil
}

// Uploads returns the number of successful uploads
func (u *MockUploader) Uploads() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.uploads)
}

// Content returns the bytes uploaded under a public ID
func (u *MockUploader) Content(publicID string) ([]byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	data, ok := u.contents[publicID]
	return data, ok
}

// Deleted returns the public IDs passed to Delete
func (u *MockUploader) Deleted() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, len(u.deleted))
	copy(out, u.deleted)
	return out
}
