package storageinterface

import "errors"

// ErrNotFound is returned (wrapped) by ReadFile when the path does not exist.
var ErrNotFound = errors.New("file not found")

type Storage interface {
	ReadFile(path string) (string, error)
	// WriteFile creates or overwrites path.
	WriteFile(path, content string) error
	Exists(path string) (bool, error)
}
