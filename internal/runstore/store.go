// Package runstore persists run reports and license bindings in sqlite, or
// a remote libsql database when given a libsql:// url.
package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"limitedseller/internal/pipeline"
	"limitedseller/internal/runstore/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("limitedseller/runstore")

func isRemote(path string) bool {
	for _, prefix := range []string{"libsql://", "http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// OpenDB opens (creating if needed) the database at `path` and applies the
// schema.
func OpenDB(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("a path was not specified")
	}

	var database *sql.DB
	var err error
	if isRemote(path) {
		database, err = sql.Open("libsql", path)
		if err != nil {
			return nil, err
		}
	} else {
		if path != ":memory:" {
			dir := filepath.Dir(path)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		database, err = sql.Open("sqlite", path)
		if err != nil {
			return nil, err
		}
		// sqlite only supports one writer, a single connection also keeps
		// :memory: databases alive across queries.
		database.SetMaxOpenConns(1)
		_, err = database.ExecContext(ctx, "PRAGMA journal_mode=WAL")
		if err != nil {
			database.Close()
			return nil, err
		}
		_, err = database.ExecContext(ctx, "PRAGMA foreign_keys=ON")
		if err != nil {
			database.Close()
			return nil, err
		}
	}

	_, err = database.ExecContext(ctx, db.Schema)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return database, nil
}

type Store struct {
	db     *sql.DB
	qry    *db.Queries
	makeTx db.MakeTx
}

func New(database *sql.DB) Store {
	return Store{
		db:     database,
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
	}
}

func Open(ctx context.Context, path string) (Store, error) {
	database, err := OpenDB(ctx, path)
	if err != nil {
		return Store{}, err
	}
	return New(database), nil
}

func (s Store) Close() error {
	return s.db.Close()
}

// SaveRun stores a report and all of its outcomes in one transaction.
func (s Store) SaveRun(ctx context.Context, report pipeline.RunReport, cfg pipeline.RunConfig) error {
	ctx, span := tracer.Start(ctx, "runstore:SaveRun", trace.WithAttributes(
		attribute.String("run_id", report.RunID),
		attribute.Int("outcomes", len(report.Outcomes)),
	))
	defer span.End()

	txqry, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer discard()

	err = txqry.CreateRun(ctx, db.Run{
		ID:               report.RunID,
		StartedAt:        report.StartedAt.UnixMilli(),
		FinishedAt:       report.FinishedAt.UnixMilli(),
		Strategy:         cfg.Strategy.String(),
		DryRun:           cfg.DryRun,
		Candidates:       int64(report.Candidates),
		FilteredOut:      int64(report.FilteredOut),
		Attempted:        int64(report.Attempted),
		Listed:           int64(report.Listed),
		NoMarketData:     int64(report.NoMarketData),
		Failed:           int64(report.Failed),
		PricedDryRun:     int64(report.DryRun),
		PartialInventory: report.PartialInventory,
		Interrupted:      report.Interrupted,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	for i, o := range report.Outcomes {
		err = txqry.CreateOutcome(ctx, db.Outcome{
			RunID:       report.RunID,
			Seq:         int64(i),
			AssetID:     o.Item.ID,
			Name:        o.Item.Name,
			Category:    o.Item.Category.String(),
			State:       string(o.State),
			MarketPrice: o.MarketPrice,
			TargetPrice: o.TargetPrice,
			Reason:      string(o.Reason),
			Detail:      o.Detail,
		})
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	return commit()
}

// RunSummary is a stored run without its outcomes.
type RunSummary struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       time.Time
	Strategy         string
	DryRun           bool
	Candidates       int
	FilteredOut      int
	Attempted        int
	Listed           int
	NoMarketData     int
	Failed           int
	PricedDryRun     int
	PartialInventory bool
	Interrupted      bool
}

// Runs returns the `limit` most recent runs, newest first.
func (s Store) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.qry.GetRuns(ctx, int64(limit))
	if err != nil {
		return nil, err
	}

	out := make([]RunSummary, len(rows))
	for i, r := range rows {
		out[i] = RunSummary{
			ID:               r.ID,
			StartedAt:        time.UnixMilli(r.StartedAt),
			FinishedAt:       time.UnixMilli(r.FinishedAt),
			Strategy:         r.Strategy,
			DryRun:           r.DryRun,
			Candidates:       int(r.Candidates),
			FilteredOut:      int(r.FilteredOut),
			Attempted:        int(r.Attempted),
			Listed:           int(r.Listed),
			NoMarketData:     int(r.NoMarketData),
			Failed:           int(r.Failed),
			PricedDryRun:     int(r.PricedDryRun),
			PartialInventory: r.PartialInventory,
			Interrupted:      r.Interrupted,
		}
	}
	return out, nil
}

// Outcomes returns the outcomes of a run in processing order.
func (s Store) Outcomes(ctx context.Context, runID string) ([]db.Outcome, error) {
	return s.qry.GetOutcomes(ctx, runID)
}

// Bind associates `key` with `hwid` unless the key is already bound, and
// returns the hardware id the key ends up bound to.
func (s Store) Bind(ctx context.Context, key, hwid string) (string, error) {
	txqry, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return "", err
	}
	defer discard()

	err = txqry.CreateLicenseBinding(ctx, db.LicenseBinding{
		LicenseKey: key,
		Hwid:       hwid,
		BoundAt:    time.Now().UnixMilli(),
	})
	if err != nil {
		return "", err
	}
	binding, err := txqry.GetLicenseBinding(ctx, key)
	if err != nil {
		return "", err
	}
	err = commit()
	if err != nil {
		return "", err
	}
	return binding.Hwid, nil
}

// Bound returns the hardware id a key is bound to, ok is false for keys
// that were never activated.
func (s Store) Bound(ctx context.Context, key string) (hwid string, ok bool, err error) {
	binding, err := s.qry.GetLicenseBinding(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return binding.Hwid, true, nil
}
