package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"limitedseller/internal/runstore"
	"limitedseller/internal/settings"
	"limitedseller/lib/console"
	"limitedseller/lib/license"
	"limitedseller/lib/platforms/market/core"
	"limitedseller/lib/session"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func newConsole() *console.Console {
	return console.New(os.Stdin, os.Stdout)
}

func loadSettings() (settings.Settings, error) {
	s, err := settings.Load(settingsPath)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

func openStore(ctx context.Context, s settings.Settings) (runstore.Store, error) {
	path := s.HistoryDb
	if dbPath != "" {
		path = dbPath
	}
	store, err := runstore.Open(ctx, path)
	if err != nil {
		return runstore.Store{}, fmt.Errorf("open history db: %w", err)
	}
	return store, nil
}

func newLicenseManager(s settings.Settings, store runstore.Store) license.Manager {
	return license.Manager{
		Store:       store,
		KeyFilePath: s.License.KeyFile,
	}
}

// ensureLicense verifies the existing activation, asking for a key when this
// machine has never been activated.
func ensureLicense(ctx context.Context, manager license.Manager, con *console.Console) error {
	file, err := manager.Check(ctx)
	if err == nil {
		slog.Debug("license verified", "activated", file.Activated)
		return nil
	}
	if !errors.Is(err, license.ErrNotActivated) {
		return err
	}

	key, err := con.Prompt("License key: ")
	if err != nil {
		return err
	}
	_, err = manager.Activate(ctx, key)
	return err
}

// connect authenticates with the stored session cookie, prompting for one if
// none is available.
func connect(ctx context.Context, s settings.Settings, con *console.Console) (*core.Client, core.Session, error) {
	cookie, err := session.Store{Path: accountPath}.Resolve(con)
	if err != nil {
		return nil, core.Session{}, err
	}

	client, err := core.NewClient(core.ClientOptions{
		Endpoints:        s.Endpoints,
		Cookie:           cookie,
		BrowserTransport: s.BrowserTransport,
	})
	if err != nil {
		return nil, core.Session{}, err
	}
	sess, err := client.Authenticate(ctx)
	if errors.Is(err, core.ErrInvalidSession) {
		return nil, core.Session{}, fmt.Errorf("%w, run `limitedseller login` to replace it", err)
	}
	if err != nil {
		return nil, core.Session{}, err
	}

	slog.Info("logged in", "name", sess.Username, "id", sess.UserId)
	return client, sess, nil
}
