package media

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mcoot/coursehub/internal/model"
)

// MemoryUploader keeps uploaded objects in process memory
type MemoryUploader struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryUploader creates an empty MemoryUploader
func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{objects: make(map[string][]byte)}
}

// Ensure MemoryUploader implements Uploader
var _ Uploader = (*MemoryUploader)(nil)

// Upload reads the object body fully and stores it under a fresh key
func (u *MemoryUploader) Upload(ctx context.Context, obj Object) (model.MediaRef, error) {
	if obj.Body == nil {
		return model.MediaRef{}, fmt.Errorf("%w: empty body", ErrUploadFailed)
	}
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return model.MediaRef{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	key := ObjectKey(obj.Kind, obj.Filename, time.Now())

	u.mu.Lock()
	u.objects[key] = data
	u.mu.Unlock()

	return model.MediaRef{PublicID: key, URL: "memory://" + key}, nil
}

// Delete removes an object; deleting an unknown key is a no-op
func (u *MemoryUploader) Delete(ctx context.Context, publicID string) error {
	u.mu.Lock()
	delete(u.objects, publicID)
	u.mu.Unlock()
	return nil
}

// Get returns the stored bytes for a key
func (u *MemoryUploader) Get(publicID string) ([]byte, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	data, ok := u.objects[publicID]
	return data, ok
}

// Len returns the number of stored objects
func (u *MemoryUploader) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.objects)
}
