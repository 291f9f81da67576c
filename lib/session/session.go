// Package session keeps the account credential between runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"limitedseller/lib/configutil"
)

const (
	DefaultPath = "account.json"
	EnvCookie   = "LIMITEDSELLER_COOKIE"
)

var ErrNoCookie = errors.New("no session cookie available")

type account struct {
	Cookie string `json:"cookie"`
}

type Prompter interface {
	Prompt(label string) (string, error)
}

type Store struct {
	Path string
}

// Load returns the stored cookie, or "" when none was saved.
func (s Store) Load() (string, error) {
	b, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var acc account
	err = json.Unmarshal(b, &acc)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return strings.TrimSpace(acc.Cookie), nil
}

func (s Store) Save(cookie string) error {
	cookie = strings.TrimSpace(cookie)
	if cookie == "" {
		return ErrNoCookie
	}
	return configutil.WriteConfig(s.Path, account{Cookie: cookie})
}

// Resolve finds a cookie in the account file, then the environment, then
// by asking `prompter` (if not nil). Prompted cookies are saved.
func (s Store) Resolve(prompter Prompter) (string, error) {
	cookie, err := s.Load()
	if err != nil {
		return "", err
	}
	if cookie != "" {
		return cookie, nil
	}

	cookie = strings.TrimSpace(os.Getenv(EnvCookie))
	if cookie != "" {
		slog.Debug("using session cookie from environment", "var", EnvCookie)
		return cookie, nil
	}

	if prompter == nil {
		return "", ErrNoCookie
	}
	return s.Prompt(prompter)
}

// Prompt asks for a new cookie and saves it.
func (s Store) Prompt(prompter Prompter) (string, error) {
	cookie, err := prompter.Prompt("Enter your .ROBLOSECURITY cookie: ")
	if err != nil {
		return "", err
	}
	cookie = strings.TrimSpace(cookie)
	if cookie == "" {
		return "", ErrNoCookie
	}
	err = s.Save(cookie)
	if err != nil {
		return "", err
	}
	slog.Info("cookie saved", "path", s.Path)
	return cookie, nil
}
