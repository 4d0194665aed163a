package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/mcoot/coursehub/internal/media"
)

// maxMemoryBytes is how much of a multipart form is buffered before spilling to disk
const maxMemoryBytes = 32 << 20

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// parseMultipart parses the form, capping the whole body at limit bytes
func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return NewInvalidRequestError("upload is too large")
		}
		return NewInvalidRequestError("invalid multipart form")
	}
	return nil
}

// removeMultipartForm deletes any temporary files the parsed form spilled to disk
func removeMultipartForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// formFiles opens every file sent under field. The caller must close them.
func formFiles(r *http.Request, field string) ([]media.Object, []multipart.File, error) {
	if r.MultipartForm == nil {
		return nil, nil, nil
	}
	headers := r.MultipartForm.File[field]

	objects := make([]media.Object, 0, len(headers))
	files := make([]multipart.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll(files)
			return nil, nil, NewInvalidRequestError("could not read uploaded file")
		}
		files = append(files, f)
		objects = append(objects, media.Object{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return objects, files, nil
}

// formFile opens the single file sent under field, returning nil if absent
func formFile(r *http.Request, field string) (*media.Object, multipart.File, error) {
	objects, files, err := formFiles(r, field)
	if err != nil || len(objects) == 0 {
		return nil, nil, err
	}
	closeAll(files[1:])
	return &objects[0], files[0], nil
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
