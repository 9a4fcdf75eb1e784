package objectclient

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/markdave123-py/contexta-ingest/internal/core"
)

// LocalObjectClient keeps objects as files under a bucket directory.
type LocalObjectClient struct {
	dir string
}

var _ core.ObjectClient = (*LocalObjectClient)(nil)

func NewLocalObjectClient(dir string) *LocalObjectClient {
	return &LocalObjectClient{dir: dir}
}

// UploadFile writes data to dir/key, creating the directory if needed, and returns
// the file path. Existing files are overwritten.
func (c *LocalObjectClient) UploadFile(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if key == "" || key == "." || key == ".." || key != filepath.Base(key) {
		return "", fmt.Errorf("invalid object key %q", key)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("create bucket dir: %w", err)
	}
	path := filepath.Join(c.dir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
