// Package license binds a license key to the hardware it is first activated
// on.
package license

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"strings"
	"time"

	"limitedseller/lib/configutil"

	"github.com/shirou/gopsutil/v4/host"
)

var (
	ErrInvalidKey      = errors.New("invalid license key")
	ErrBoundElsewhere  = errors.New("license already used on another machine")
	ErrHardwareChanged = errors.New("hardware change detected, the license is tied to a different machine")
	ErrNotActivated    = errors.New("license is not activated")
)

var validKeys = []string{
	"RBX-A1B2C3D4E5F6G7H8",
	"RBX-I9J0K1L2M3N4O5P6",
	"RBX-Q7R8S9T0U1V2W3X4",
	"RBX-Y5Z6A7B8C9D0E1F2",
	"RBX-G3H4I5J6K7L8M9N0",
	"RBX-O1P2Q3R4S5T6U7V8",
	"RBX-W9X0Y1Z2A3B4C5D6",
	"RBX-E7F8G9H0I1J2K3L4",
	"RBX-M5N6O7P8Q9R0S1T2",
	"RBX-U3V4W5X6Y7Z8A9B0",
	"RBX-C1D2E3F4G5H6I7J8",
	"RBX-K9L0M1N2O3P4Q5R6",
	"RBX-S7T8U9V0W1X2Y3Z4",
	"RBX-A5B6C7D8E9F0G1H2",
	"RBX-I3J4K5L6M7N8O9P0",
	"RBX-Q1R2S3T4U5V6W7X8",
	"RBX-Y9Z0A1B2C3D4E5F6",
	"RBX-G7H8I9J0K1L2M3N4",
	"RBX-O5P6Q7R8S9T0U1V2",
	"RBX-W3X4Y5Z6A7B8C9D0",
	"RBX-E1F2G3H4I5J6K7L8",
	"RBX-M9N0O1P2Q3R4S5T6",
	"RBX-U7V8W9X0Y1Z2A3B4",
	"RBX-C5D6E7F8G9H0I1J2",
	"RBX-K3L4M5N6O7P8Q9R0",
	"RBX-S1T2U3V4W5X6Y7Z8",
	"RBX-A9B0C1D2E3F4G5H6",
	"RBX-I7J8K9L0M1N2O3P4",
	"RBX-Q5R6S7T8U9V0W1X2",
	"RBX-Y3Z4A5B6C7D8E9F0",
}

func Valid(key string) bool {
	return slices.Contains(validKeys, key)
}

// HardwareID is the hex sha256 of the host's stable id, falling back to the
// hostname when the platform does not expose one.
func HardwareID(ctx context.Context) (string, error) {
	id, err := host.HostIDWithContext(ctx)
	if err != nil || id == "" {
		slog.DebugContext(ctx, "host id unavailable, falling back to hostname", "err", err)
		id, err = os.Hostname()
		if err != nil {
			return "", fmt.Errorf("determine hardware id: %w", err)
		}
	}
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:]), nil
}

// BindingStore records which hardware a key was first activated on.
type BindingStore interface {
	// Bind binds key to hwid if it is unbound and returns the hwid the key
	// is bound to afterwards.
	Bind(ctx context.Context, key, hwid string) (string, error)
}

// KeyFile is the local record of a successful activation.
type KeyFile struct {
	Key       string    `json:"key"`
	Hwid      string    `json:"hwid"`
	Activated time.Time `json:"activated"`
	System    string    `json:"system"`
}

type Manager struct {
	Store       BindingStore
	KeyFilePath string

	// defaults to HardwareID
	HardwareID func(ctx context.Context) (string, error)
	// defaults to time.Now
	Now func() time.Time
}

func (m Manager) hardwareId(ctx context.Context) (string, error) {
	if m.HardwareID != nil {
		return m.HardwareID(ctx)
	}
	return HardwareID(ctx)
}

// Verify checks that `key` exists and is bound to `hwid`, binding it when
// this is the key's first use.
func (m Manager) Verify(ctx context.Context, key, hwid string) error {
	if !Valid(key) {
		return ErrInvalidKey
	}
	bound, err := m.Store.Bind(ctx, key, hwid)
	if err != nil {
		return fmt.Errorf("verify license: %w", err)
	}
	if bound != hwid {
		return ErrBoundElsewhere
	}
	return nil
}

func (m Manager) readKeyFile() (KeyFile, error) {
	b, err := os.ReadFile(m.KeyFilePath)
	if os.IsNotExist(err) {
		return KeyFile{}, ErrNotActivated
	}
	if err != nil {
		return KeyFile{}, err
	}
	var file KeyFile
	err = json.Unmarshal(b, &file)
	if err != nil {
		return KeyFile{}, fmt.Errorf("parse %s: %w", m.KeyFilePath, err)
	}
	return file, nil
}

// Check verifies an earlier activation on this machine.
func (m Manager) Check(ctx context.Context) (KeyFile, error) {
	file, err := m.readKeyFile()
	if err != nil {
		return KeyFile{}, err
	}
	hwid, err := m.hardwareId(ctx)
	if err != nil {
		return KeyFile{}, err
	}
	if file.Hwid != hwid {
		return KeyFile{}, ErrHardwareChanged
	}
	err = m.Verify(ctx, file.Key, hwid)
	if err != nil {
		return KeyFile{}, err
	}
	return file, nil
}

// Activate binds `key` to this machine and records it in the key file.
func (m Manager) Activate(ctx context.Context, key string) (KeyFile, error) {
	key = strings.TrimSpace(key)
	hwid, err := m.hardwareId(ctx)
	if err != nil {
		return KeyFile{}, err
	}
	err = m.Verify(ctx, key, hwid)
	if err != nil {
		return KeyFile{}, err
	}

	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	file := KeyFile{
		Key:       key,
		Hwid:      hwid,
		Activated: now().UTC(),
		System:    runtime.GOOS,
	}
	err = configutil.WriteConfig(m.KeyFilePath, file)
	if err != nil {
		return KeyFile{}, err
	}
	slog.InfoContext(ctx, "license activated", "hwid", hwid[:min(16, len(hwid))])
	return file, nil
}
