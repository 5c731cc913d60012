package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"catalog-admin/internal/products"

	"github.com/google/uuid"
)

const (
	PublicPrefix = "/uploads"

	dirPerm  = 0o755
	filePerm = 0o644
)

// DiskStore writes uploaded images into a flat directory. Files are never
// overwritten or removed by this package.
type DiskStore struct {
	root     string
	maxBytes int64
	now      func() time.Time
}

// NewDisk creates root if needed. maxBytes <= 0 disables the size limit.
func NewDisk(root string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", root, err)
	}
	return &DiskStore{root: root, maxBytes: maxBytes, now: time.Now}, nil
}

func (d *DiskStore) Root() string {
	return d.root
}

// Save stores the image under a generated name and returns the public path
// it is served from, e.g. /uploads/1717508400000-3f2a9c1e.png.
func (d *DiskStore) Save(ctx context.Context, img products.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if d.maxBytes > 0 && img.Size > d.maxBytes {
		return "", products.ErrImageTooLarge
	}

	name := d.generateName(img.Filename)
	dst := filepath.Join(d.root, name)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return "", fmt.Errorf("create %q: %w", dst, err)
	}

	src := img.Content
	if d.maxBytes > 0 {
		src = io.LimitReader(src, d.maxBytes+1)
	}
	written, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	if copyErr == nil && d.maxBytes > 0 && written > d.maxBytes {
		copyErr = products.ErrImageTooLarge
	}
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(dst)
		if errors.Is(err, products.ErrImageTooLarge) {
			return "", products.ErrImageTooLarge
		}
		return "", fmt.Errorf("write %q: %w", dst, err)
	}

	return path.Join(PublicPrefix, name), nil
}

func (d *DiskStore) generateName(original string) string {
	ext := filepath.Ext(filepath.Base(original))
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%d-%s%s", d.now().UnixMilli(), suffix, ext)
}
