package license

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryStore map[string]string

func (s memoryStore) Bind(_ context.Context, key, hwid string) (string, error) {
	if bound, ok := s[key]; ok {
		return bound, nil
	}
	s[key] = hwid
	return hwid, nil
}

func machine(id string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return id, nil }
}

const key = "RBX-A1B2C3D4E5F6G7H8"

func TestActivateAndCheck(t *testing.T) {
	store := memoryStore{}
	path := filepath.Join(t.TempDir(), "license.key")
	now := time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)

	manager := Manager{
		Store:       store,
		KeyFilePath: path,
		HardwareID:  machine("machine-a"),
		Now:         func() time.Time { return now },
	}

	_, err := manager.Check(context.Background())
	require.ErrorIs(t, err, ErrNotActivated)

	file, err := manager.Activate(context.Background(), "  "+key+"\n")
	require.NoError(t, err)
	require.Equal(t, key, file.Key)
	require.Equal(t, "machine-a", file.Hwid)
	require.Equal(t, now, file.Activated)
	require.Equal(t, "machine-a", store[key])

	checked, err := manager.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, file, checked)
}

func TestKeyBoundElsewhere(t *testing.T) {
	store := memoryStore{key: "machine-a"}
	manager := Manager{
		Store:       store,
		KeyFilePath: filepath.Join(t.TempDir(), "license.key"),
		HardwareID:  machine("machine-b"),
	}

	_, err := manager.Activate(context.Background(), key)
	require.ErrorIs(t, err, ErrBoundElsewhere)
	_, err = os.Stat(manager.KeyFilePath)
	require.True(t, os.IsNotExist(err))
}

func TestHardwareChange(t *testing.T) {
	store := memoryStore{}
	path := filepath.Join(t.TempDir(), "license.key")

	_, err := Manager{Store: store, KeyFilePath: path, HardwareID: machine("machine-a")}.
		Activate(context.Background(), key)
	require.NoError(t, err)

	_, err = Manager{Store: store, KeyFilePath: path, HardwareID: machine("machine-b")}.
		Check(context.Background())
	require.ErrorIs(t, err, ErrHardwareChanged)
}

func TestInvalidKey(t *testing.T) {
	manager := Manager{
		Store:       memoryStore{},
		KeyFilePath: filepath.Join(t.TempDir(), "license.key"),
		HardwareID:  machine("machine-a"),
	}
	_, err := manager.Activate(context.Background(), "RBX-NOT-A-KEY")
	require.ErrorIs(t, err, ErrInvalidKey)
	require.False(t, Valid("rbx-a1b2c3d4e5f6g7h8"))
}

func TestHardwareIDIsStable(t *testing.T) {
	a, err := HardwareID(context.Background())
	require.NoError(t, err)
	b, err := HardwareID(context.Background())
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a, 64)
}
