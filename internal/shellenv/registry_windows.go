//go:build windows

package shellenv

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows/registry"
)

// systemStore backs RegistryStore with HKCU\Environment.
type systemStore struct{}

// NewSystemStore opens the per-user environment key of the Windows registry.
func NewSystemStore() (RegistryStore, error) {
	// Open eagerly once to surface permission problems at construction.
	k, err := registry.OpenKey(registry.CURRENT_USER, "Environment", registry.QUERY_VALUE)
	if err != nil {
		return nil, err
	}
	k.Close()
	return &systemStore{}, nil
}

func (s *systemStore) Get(key string) (string, bool, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, "Environment", registry.QUERY_VALUE)
	if err != nil {
		return "", false, err
	}
	defer k.Close()

	val, _, err := k.GetStringValue(key)
	if err == registry.ErrNotExist {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *systemStore) Set(key, value string) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, "Environment", registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()
	return k.SetStringValue(key, value)
}

func (s *systemStore) Delete(key string) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, "Environment", registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()

	err = k.DeleteValue(key)
	if err == registry.ErrNotExist {
		return nil
	}
	return err
}

// Broadcast sends WM_SETTINGCHANGE so running processes can pick up the new
// environment without a restart.
func (s *systemStore) Broadcast() error {
	const (
		hwndBroadcast   = uintptr(0xFFFF)
		wmSettingChange = uintptr(0x001A)
		smtoAbortIfHung = uintptr(0x0002)
	)

	user32 := syscall.NewLazyDLL("user32.dll")
	proc := user32.NewProc("SendMessageTimeoutW")

	env, err := syscall.UTF16PtrFromString("Environment")
	if err != nil {
		return err
	}

	proc.Call(hwndBroadcast, wmSettingChange, 0,
		uintptr(unsafe.Pointer(env)), smtoAbortIfHung, 5000, 0)
	return nil
}
