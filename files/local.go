package files

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage writes files below a media root on local disk.
type LocalStorage struct {
	root    string
	baseURL string
}

var _ Storage = (*LocalStorage)(nil)

func NewLocalStorage(root, baseURL string) *LocalStorage {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalStorage{root: root, baseURL: baseURL}
}

func (s *LocalStorage) path(ref string) (string, error) {
	clean := path.Clean("/" + ref)
	if clean == "/" {
		return "", fmt.Errorf("invalid file reference %q", ref)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *LocalStorage) Save(ctx context.Context, ref string, r io.Reader, size int64, contentType string) error {
	p, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(p)
		return fmt.Errorf("write media file: %w", err)
	}
	return f.Close()
}

func (s *LocalStorage) Delete(ctx context.Context, ref string) error {
	p, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *LocalStorage) URL(ref string) string {
	return s.baseURL + ref
}

// Handler serves stored files under the configured base URL path.
// Directories are never listed.
func (s *LocalStorage) Handler() http.Handler {
	return http.StripPrefix(strings.TrimSuffix(s.baseURL, "/"), http.FileServer(filesOnly{http.Dir(s.root)}))
}

// filesOnly reports directories as missing so the file server answers 404
// instead of an index.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
