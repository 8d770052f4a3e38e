// Package filestore persists uploaded evidence files and serves them back by
// URL path.
package filestore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kishanss4/corrupt-watch/internal/errors"
)

// Store writes an object under the given slash-separated name and returns
// the public URL path it is served from.
type Store interface {
	Put(ctx context.Context, name string, contents io.Reader) (string, error)
}

// Local stores objects as plain files under a root directory and serves them
// under a URL prefix, /uploads by default.
type Local struct {
	root      string
	urlPrefix string
}

func NewLocal(root string, urlPrefix string) *Local {
	return &Local{
		root:      root,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}
}

// Put writes the object, creating parent directories as needed. Names are
// cleaned and must stay below the root, a name escaping it is rejected.
func (l *Local) Put(_ context.Context, name string, contents io.Reader) (string, error) {
	cleaned := path.Clean("/" + name)
	if cleaned == "/" {
		return "", errors.New("empty object name", slog.String("name", name))
	}
	target := filepath.Join(l.root, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", errors.Wrap(err, "create object directory")
	}
	file, err := os.Create(target)
	if err != nil {
		return "", errors.Wrap(err, "create object file")
	}
	defer file.Close()
	if _, err = io.Copy(file, contents); err != nil {
		return "", errors.Wrap(err, "write object file")
	}
	if err = file.Close(); err != nil {
		return "", errors.Wrap(err, "close object file")
	}
	return l.urlPrefix + cleaned, nil
}

// Root returns the directory the objects live in, for mounting a file server.
func (l *Local) Root() string {
	return l.root
}
