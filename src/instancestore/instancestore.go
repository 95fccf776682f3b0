// Package instancestore defines the persistence boundary spec §1 scopes to
// interface level: Instance lifecycle storage is an external collaborator,
// not a component this module owns in full. A minimal JSON-file-backed
// default is provided so the rest of the pipeline is exercisable without a
// real launcher UI's storage layer behind it.
package instancestore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/urixen-org/instancesync/src/fsutil"
	"github.com/urixen-org/instancesync/src/model"
	"github.com/urixen-org/instancesync/src/xerrors"
)

// Store is the persistence capability the installer commits Instance
// records through.
type Store interface {
	Load(name string) (*model.Instance, error)
	Commit(inst *model.Instance) error
}

// FileStore is a minimal default Store: one JSON file per instance under
// Dir, named "<instance>.json".
type FileStore struct {
	Dir string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.Dir, name+".json")
}

// Load reads an instance record, returning an ErrIO-wrapped error if it has
// never been committed (or cannot be read) and an ErrDecode-wrapped error if
// the stored record is malformed.
func (s *FileStore) Load(name string) (*model.Instance, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrIO, err.Error())
	}
	var inst model.Instance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, xerrors.Wrapf(xerrors.ErrDecode, "%s: %v", name, err)
	}
	return &inst, nil
}

// Commit atomically writes inst's record.
func (s *FileStore) Commit(inst *model.Instance) error {
	if err := fsutil.EnsureDir(s.Dir); err != nil {
		return xerrors.Wrap(xerrors.ErrIO, err.Error())
	}
	data, err := json.MarshalIndent(inst, "", "  ")
	if err != nil {
		return xerrors.Wrap(xerrors.ErrIO, err.Error())
	}
	path := s.path(inst.Name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, fsutil.FileModeSecure); err != nil {
		return xerrors.Wrap(xerrors.ErrIO, err.Error())
	}
	return xerrors.Wrap(os.Rename(tmp, path), "committing instance record")
}
