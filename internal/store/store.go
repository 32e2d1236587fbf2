// Package store implements the payload store: durable, append-only persistence
// of received webhook payloads as one JSON file per request.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/ubuntu/decorate"
)

// Store persists a payload and returns the path it was written to.
//
// Implementations must never overwrite a previously stored payload, so that
// repeated identical requests leave a full history behind.
type Store interface {
	Save(prefix string, payload []byte) (path string, err error)
}

// DirStore is a Store writing payloads into a flat directory.
//
// Files are named <prefix>_<seq>_<id>.json. The sequence keeps listings in
// arrival order within a process lifetime, the short UUID keeps names unique
// across restarts without scanning the directory.
type DirStore struct {
	dir string
	seq atomic.Uint64
}

// NewDirStore creates the store directory if needed and returns a DirStore for it.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("could not create store directory %s: %v", dir, err)
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the directory payloads are written to.
func (s *DirStore) Dir() string {
	return s.dir
}

// Save writes payload to a new file under the store directory and syncs it
// before returning, so a successful response always refers to durable data.
func (s *DirStore) Save(prefix string, payload []byte) (path string, err error) {
	defer decorate.OnError(&err, "could not store %s payload", prefix)

	if err := validPrefix(prefix); err != nil {
		return "", err
	}

	seq := s.seq.Add(1)
	id := strings.Split(uuid.New().String(), "-")[0]
	path = filepath.Join(s.dir, fmt.Sprintf("%s_%06d_%s.json", prefix, seq, id))

	// O_EXCL guarantees a fresh file even if a stale one carries the same name.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := f.Write(payload); err != nil {
		return "", err
	}
	if err := f.Sync(); err != nil {
		return "", err
	}

	return path, nil
}

func validPrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("empty prefix")
	}
	if prefix == "." || prefix == ".." || strings.ContainsAny(prefix, `/\`) || prefix != filepath.Clean(prefix) {
		return fmt.Errorf("invalid prefix %q", prefix)
	}
	return nil
}
