// Package files validates uploaded attachments and hands them to a storage
// backend.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const DefaultMaxUploadSize = 10 * 1024 * 1024

// MaxNameLength bounds both the client's file name and its declared
// content type.
const MaxNameLength = 100

const (
	CVDir           = "applications/cv"
	CoverLettersDir = "applications/cover_letters"
	MessagesDir     = "user_messages"
)

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".pdf": true, ".doc": true, ".docx": true, ".txt": true, ".rtf": true, ".odt": true,
}

var (
	ErrTooLarge    = errors.New("file size exceeds limit")
	ErrInvalidType = errors.New("invalid file type")
	ErrEmpty       = errors.New("the submitted file is empty")
	ErrNameTooLong = errors.New("file name is too long")
)

// DocumentsDir partitions identity documents by upload day.
func DocumentsDir(now time.Time) string {
	return path.Join("user_documents", now.Format("2006/01/02"))
}

// Storage persists uploaded files and resolves the references it hands out.
type Storage interface {
	Save(ctx context.Context, ref string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, ref string) error
	URL(ref string) string
}

// Stored describes a saved upload.
type Stored struct {
	Ref         string
	Name        string
	ContentType string
}

// Check validates an upload against the size limit and the extension
// allow-list.
func Check(fh *multipart.FileHeader, maxSize int64) error {
	if fh.Size == 0 {
		return ErrEmpty
	}
	if maxSize > 0 && fh.Size > maxSize {
		return fmt.Errorf("%w of %d MB", ErrTooLarge, maxSize/(1024*1024))
	}
	if n := utf8.RuneCountInString(fh.Filename); n > MaxNameLength {
		return fmt.Errorf("%w: at most %d characters allowed, it has %d", ErrNameTooLong, MaxNameLength, n)
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %q", ErrInvalidType, ext)
	}
	if len(fh.Header.Get("Content-Type")) > MaxNameLength {
		return fmt.Errorf("%w: content type is longer than %d characters", ErrInvalidType, MaxNameLength)
	}
	return nil
}

// NewRef builds a collision-free reference under dir that keeps the
// client's file name readable.
func NewRef(dir, filename string) string {
	return path.Join(dir, uuid.NewString()[:8]+"_"+cleanName(filename))
}

func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 || b.String() == "." || b.String() == ".." {
		return "upload"
	}
	return b.String()
}

// Save stores one multipart upload under dir.
func Save(ctx context.Context, s Storage, dir string, fh *multipart.FileHeader) (Stored, error) {
	f, err := fh.Open()
	if err != nil {
		return Stored{}, fmt.Errorf("failed to get file: %w", err)
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ref := NewRef(dir, fh.Filename)
	if err := s.Save(ctx, ref, f, fh.Size, contentType); err != nil {
		return Stored{}, fmt.Errorf("store %s: %w", fh.Filename, err)
	}
	return Stored{Ref: ref, Name: fh.Filename, ContentType: contentType}, nil
}
