package db

import (
	"context"
)

const createRun = `insert into runs (
    id, started_at, finished_at, strategy, dry_run,
    candidates, filtered_out, attempted, listed, no_market_data,
    failed, priced_dry_run, partial_inventory, interrupted
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateRun(ctx context.Context, arg Run) error {
	_, err := q.db.ExecContext(ctx, createRun,
		arg.ID,
		arg.StartedAt,
		arg.FinishedAt,
		arg.Strategy,
		arg.DryRun,
		arg.Candidates,
		arg.FilteredOut,
		arg.Attempted,
		arg.Listed,
		arg.NoMarketData,
		arg.Failed,
		arg.PricedDryRun,
		arg.PartialInventory,
		arg.Interrupted,
	)
	return err
}

const createOutcome = `insert into outcomes (
    run_id, seq, asset_id, name, category, state,
    market_price, target_price, reason, detail
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateOutcome(ctx context.Context, arg Outcome) error {
	_, err := q.db.ExecContext(ctx, createOutcome,
		arg.RunID,
		arg.Seq,
		arg.AssetID,
		arg.Name,
		arg.Category,
		arg.State,
		arg.MarketPrice,
		arg.TargetPrice,
		arg.Reason,
		arg.Detail,
	)
	return err
}

const getRuns = `select
    id, started_at, finished_at, strategy, dry_run,
    candidates, filtered_out, attempted, listed, no_market_data,
    failed, priced_dry_run, partial_inventory, interrupted
from runs
order by started_at desc, id
limit ?`

func (q *Queries) GetRuns(ctx context.Context, limit int64) ([]Run, error) {
	rows, err := q.db.QueryContext(ctx, getRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Run
	for rows.Next() {
		var i Run
		if err := rows.Scan(
			&i.ID,
			&i.StartedAt,
			&i.FinishedAt,
			&i.Strategy,
			&i.DryRun,
			&i.Candidates,
			&i.FilteredOut,
			&i.Attempted,
			&i.Listed,
			&i.NoMarketData,
			&i.Failed,
			&i.PricedDryRun,
			&i.PartialInventory,
			&i.Interrupted,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getOutcomes = `select
    run_id, seq, asset_id, name, category, state,
    market_price, target_price, reason, detail
from outcomes
where run_id = ?
order by seq`

func (q *Queries) GetOutcomes(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := q.db.QueryContext(ctx, getOutcomes, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Outcome
	for rows.Next() {
		var i Outcome
		if err := rows.Scan(
			&i.RunID,
			&i.Seq,
			&i.AssetID,
			&i.Name,
			&i.Category,
			&i.State,
			&i.MarketPrice,
			&i.TargetPrice,
			&i.Reason,
			&i.Detail,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getLicenseBinding = `select license_key, hwid, bound_at from license_bindings
where license_key = ?`

func (q *Queries) GetLicenseBinding(ctx context.Context, licenseKey string) (LicenseBinding, error) {
	row := q.db.QueryRowContext(ctx, getLicenseBinding, licenseKey)
	var i LicenseBinding
	err := row.Scan(&i.LicenseKey, &i.Hwid, &i.BoundAt)
	return i, err
}

const createLicenseBinding = `insert into license_bindings (license_key, hwid, bound_at)
values (?, ?, ?)
on conflict (license_key) do nothing`

func (q *Queries) CreateLicenseBinding(ctx context.Context, arg LicenseBinding) error {
	_, err := q.db.ExecContext(ctx, createLicenseBinding, arg.LicenseKey, arg.Hwid, arg.BoundAt)
	return err
}
