package attachments

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyFile       = errors.New("attachments: file is empty")
	ErrFileTooLarge    = errors.New("attachments: file is too large")
	ErrUnsupportedType = errors.New("attachments: unsupported file type")
)

// Uploader validates incoming files and writes them to an ObjectStore.
type Uploader struct {
	store   ObjectStore
	maxSize int64
	log     *zap.Logger
}

func NewUploader(store ObjectStore, log *zap.Logger) *Uploader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Uploader{store: store, maxSize: config.MaxAttachmentSize, log: log.Named("attachments")}
}

// Upload reads at most the size limit from r, detects the content type from
// the bytes themselves and stores the file under a fresh random key.
func (u *Uploader) Upload(ctx context.Context, name string, r io.Reader) (models.FileAttachment, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.maxSize+1))
	if err != nil {
		return models.FileAttachment{}, fmt.Errorf("attachments: read upload: %w", err)
	}
	if len(data) == 0 {
		return models.FileAttachment{}, ErrEmptyFile
	}
	if int64(len(data)) > u.maxSize {
		return models.FileAttachment{}, ErrFileTooLarge
	}

	mime, ext, ok := detect(data)
	if !ok {
		return models.FileAttachment{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mimetype.Detect(data).String())
	}

	id := uuid.New().String()
	key := id + ext
	if err := u.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mime); err != nil {
		return models.FileAttachment{}, err
	}
	u.log.Debug("attachment stored", zap.String("key", key), zap.String("mime_type", mime), zap.Int("size", len(data)))

	return models.FileAttachment{
		ID:       id,
		Name:     displayName(name, ext),
		URL:      u.store.URL(key),
		MimeType: mime,
		Size:     int64(len(data)),
	}, nil
}

func detect(data []byte) (string, string, bool) {
	m := mimetype.Detect(data)
	for allowed, ext := range config.AllowedAttachmentTypes {
		if m.Is(allowed) {
			return allowed, ext, true
		}
	}
	return "", "", false
}

func displayName(name, ext string) string {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "attachment" + ext
	}
	return name
}
