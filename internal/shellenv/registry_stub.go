//go:build !windows

package shellenv

import "embedup/internal/platform/errors"

// NewSystemStore is only available on Windows; POSIX hosts use rc files.
func NewSystemStore() (RegistryStore, error) {
	return nil, errors.New("registry environment store is only available on windows")
}
