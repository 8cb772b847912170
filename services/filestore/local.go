package filestore

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/kelna-terese/EvalX/core/submission"
)

var errInvalidName = errors.New("invalid file name")

// Local stores files under a root directory and serves them under a URL prefix.
type Local struct {
	root      string
	urlPrefix string
}

var _ submission.FileStorage = (*Local)(nil) // interface compliance check

func NewLocal(root, urlPrefix string) *Local {
	return &Local{root: root, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}
}

// Root is the directory files are stored in.
func (s *Local) Root() string { return s.root }

// Save writes content to name, a slash-separated path relative to the root, and returns that path.
func (s *Local) Save(ctx context.Context, name string, content io.Reader) (string, error) {
	clean := path.Clean("/" + name)[1:]
	if clean == "" || clean != strings.TrimPrefix(name, "/") {
		return "", errInvalidName
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload directory")
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	if _, err = io.Copy(f, content); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", errors.Wrap(err, "writing upload file")
	}
	if err = f.Close(); err != nil {
		return "", errors.Wrap(err, "closing upload file")
	}
	return clean, nil
}

func (s *Local) URL(p string) string {
	if p == "" {
		return ""
	}
	return s.urlPrefix + "/" + p
}
