package filestorage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/afero"
	"github.com/vitistack/isc-dhcp-deployer/pkg/interfaces/storageinterface"
)

const defaultFileMode os.FileMode = 0o644

type fileStorage struct {
	Fs afero.Fs
}

// New returns a Storage backed by fsys. Use afero.NewOsFs() for the host
// filesystem and afero.NewMemMapFs() in tests.
func New(fsys afero.Fs) storageinterface.Storage {
	return &fileStorage{Fs: fsys}
}

// NewOsStorage returns a Storage on the host filesystem.
func NewOsStorage() storageinterface.Storage {
	return New(afero.NewOsFs())
}

func (s *fileStorage) ReadFile(path string) (string, error) {
	data, err := afero.ReadFile(s.Fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", path, storageinterface.ErrNotFound)
		}
		return "", err
	}
	return string(data), nil
}

// WriteFile keeps the mode of an existing file.
func (s *fileStorage) WriteFile(path, content string) error {
	mode := defaultFileMode
	if fi, err := s.Fs.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	return afero.WriteFile(s.Fs, path, []byte(content), mode)
}

func (s *fileStorage) Exists(path string) (bool, error) {
	return afero.Exists(s.Fs, path)
}
