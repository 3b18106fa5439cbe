package deployer

import "fmt"

// MissingFileError is returned when a target file of the installation is
// absent. Nothing has been written when it is returned.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("isc dhcp file not present: %s", e.Path)
}

// StorageError wraps a read or write failure of the storage collaborator.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ServiceControlError wraps a failed restart of the managed service.
type ServiceControlError struct {
	Service string
	Err     error
}

func (e *ServiceControlError) Error() string {
	return fmt.Sprintf("restart %s: %v", e.Service, e.Err)
}

func (e *ServiceControlError) Unwrap() error { return e.Err }
