package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"limitedseller/lib/console"
	"limitedseller/lib/license"

	"github.com/stretchr/testify/require"
)

type bindings map[string]string

func (b bindings) Bind(_ context.Context, key, hwid string) (string, error) {
	if bound, ok := b[key]; ok {
		return bound, nil
	}
	b[key] = hwid
	return hwid, nil
}

const testKey = "RBX-A1B2C3D4E5F6G7H8"

func testManager(t *testing.T, store bindings, hwid string) license.Manager {
	return license.Manager{
		Store:       store,
		KeyFilePath: filepath.Join(t.TempDir(), "license.key"),
		HardwareID: func(context.Context) (string, error) {
			return hwid, nil
		},
	}
}

func testConsole(input string) (*console.Console, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return console.New(strings.NewReader(input), out), out
}

func TestEnsureLicensePromptsWhenNotActivated(t *testing.T) {
	ctx := context.Background()
	store := bindings{}
	manager := testManager(t, store, "machine-a")

	con, out := testConsole(testKey + "\n")
	require.NoError(t, ensureLicense(ctx, manager, con))
	require.Contains(t, out.String(), "License key: ")
	require.Equal(t, "machine-a", store[testKey])

	file, err := manager.Check(ctx)
	require.NoError(t, err)
	require.Equal(t, testKey, file.Key)
}

func TestEnsureLicenseSkipsPromptWhenActivated(t *testing.T) {
	ctx := context.Background()
	manager := testManager(t, bindings{}, "machine-a")
	_, err := manager.Activate(ctx, testKey)
	require.NoError(t, err)

	con, out := testConsole("")
	require.NoError(t, ensureLicense(ctx, manager, con))
	require.Empty(t, out.String())
}

func TestEnsureLicenseErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("hardware changed", func(t *testing.T) {
		store := bindings{}
		manager := testManager(t, store, "machine-a")
		_, err := manager.Activate(ctx, testKey)
		require.NoError(t, err)

		manager.HardwareID = func(context.Context) (string, error) {
			return "machine-b", nil
		}
		con, out := testConsole(testKey + "\n")
		require.ErrorIs(t, ensureLicense(ctx, manager, con), license.ErrHardwareChanged)
		require.Empty(t, out.String())
	})

	t.Run("invalid key", func(t *testing.T) {
		store := bindings{}
		con, _ := testConsole("RBX-NOTAREALKEY\n")
		err := ensureLicense(ctx, testManager(t, store, "machine-a"), con)
		require.ErrorIs(t, err, license.ErrInvalidKey)
		require.Empty(t, store)
	})

	t.Run("bound elsewhere", func(t *testing.T) {
		store := bindings{testKey: "machine-b"}
		con, _ := testConsole(testKey + "\n")
		err := ensureLicense(ctx, testManager(t, store, "machine-a"), con)
		require.ErrorIs(t, err, license.ErrBoundElsewhere)
	})

	t.Run("no input", func(t *testing.T) {
		con, _ := testConsole("")
		err := ensureLicense(ctx, testManager(t, bindings{}, "machine-a"), con)
		require.ErrorIs(t, err, console.ErrNoInput)
	})
}
