// Package upload stores chat attachments and returns the metadata a message
// carries.
package upload

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/internhub_backend/internal/repo"
	"github.com/Alijeyrad/internhub_backend/pkg/apperr"
)

const DefaultMaxBytes = 10 << 20

// Storage is the object store behind uploads.
type Storage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	URL(ctx context.Context, key string) (string, error)
}

type Request struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Service interface {
	Upload(ctx context.Context, ownerID int64, req Request) (*repo.FileMeta, error)
	MaxBytes() int64
}

type uploadService struct {
	store    Storage
	maxBytes int64
}

// New builds the service. A nil store makes every upload fail as
// unavailable.
func New(store Storage, maxBytes int64) Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &uploadService{store: store, maxBytes: maxBytes}
}

func (s *uploadService) MaxBytes() int64 { return s.maxBytes }

func (s *uploadService) Upload(ctx context.Context, ownerID int64, req Request) (*repo.FileMeta, error) {
	if req.Body == nil || req.Size <= 0 {
		return nil, ErrFileRequired
	}
	if req.Size > s.maxBytes {
		return nil, apperr.Newf(apperr.InvalidArgument, "file exceeds the %d MB limit", s.maxBytes>>20)
	}
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	name := filepath.Base(strings.TrimSpace(req.Name))
	if name == "." || name == "/" {
		name = "file"
	}
	ext := strings.ToLower(filepath.Ext(name))

	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("messages/%s/%s%s", strconv.FormatInt(ownerID, 10), uuid.NewString(), ext)

	// Never read past the cap even if the declared size lies.
	body := io.LimitReader(req.Body, s.maxBytes)
	if err := s.store.Upload(ctx, key, contentType, body, req.Size); err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "file storage temporarily unavailable")
	}

	u, err := s.store.URL(ctx, key)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "file storage temporarily unavailable")
	}

	return &repo.FileMeta{
		URL:      u,
		Name:     name,
		MimeType: contentType,
		Size:     req.Size,
	}, nil
}
