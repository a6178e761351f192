package datasource

import (
	"context"
	"database/sql"
	"fmt"

	"madfolio/internal/database"
	"madfolio/internal/modules/statistics"
)

const returnsSchema = `
CREATE TABLE IF NOT EXISTS asset_returns (
	period TEXT NOT NULL,
	asset  TEXT NOT NULL,
	ratio  REAL NOT NULL,
	PRIMARY KEY (period, asset)
);
CREATE INDEX IF NOT EXISTS idx_asset_returns_asset ON asset_returns(asset);
`

// StoreSource loads the returns matrix from the local sqlite store,
// pivoting the (period, asset, ratio) rows back into matrix form.
type StoreSource struct {
	db *database.DB
}

func NewStoreSource(db *database.DB) (*StoreSource, error) {
	if _, err := db.Conn().Exec(returnsSchema); err != nil {
		return nil, fmt.Errorf("ensure returns schema: %w", err)
	}
	return &StoreSource{db: db}, nil
}

// SaveReturns replaces the stored returns with the given matrix.
func (s *StoreSource) SaveReturns(ctx context.Context, returns *statistics.ReturnsMatrix) error {
	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin returns tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM asset_returns"); err != nil {
		return fmt.Errorf("clear returns: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO asset_returns (period, asset, ratio) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare returns insert: %w", err)
	}
	defer stmt.Close()

	labels := returns.Labels()
	assets := returns.AssetNames()
	for t, label := range labels {
		for j, asset := range assets {
			if _, err := stmt.ExecContext(ctx, label, asset, returns.At(t, j)); err != nil {
				return fmt.Errorf("insert return %s/%s: %w", label, asset, err)
			}
		}
	}
	return tx.Commit()
}

// Load pivots the stored rows into a returns matrix. Periods come back in
// ascending label order, assets in first-seen order per period; a period
// missing any asset fails validation.
func (s *StoreSource) Load(ctx context.Context) (*statistics.ReturnsMatrix, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		"SELECT period, asset, ratio FROM asset_returns ORDER BY period, rowid")
	if err != nil {
		return nil, fmt.Errorf("query returns: %w", err)
	}
	defer rows.Close()

	var (
		labels   []string
		assets   []string
		assetIdx = map[string]int{}
		data     [][]float64
	)
	for rows.Next() {
		var period, asset string
		var ratio float64
		if err := rows.Scan(&period, &asset, &ratio); err != nil {
			return nil, fmt.Errorf("scan return row: %w", err)
		}

		if len(labels) == 0 || labels[len(labels)-1] != period {
			labels = append(labels, period)
			data = append(data, nil)
		}
		idx, ok := assetIdx[asset]
		if !ok {
			if len(labels) > 1 {
				return nil, &statistics.InvalidInputError{
					Reason: fmt.Sprintf("asset %s first appears in period %s", asset, period),
				}
			}
			idx = len(assets)
			assetIdx[asset] = idx
			assets = append(assets, asset)
		}

		row := data[len(data)-1]
		if row == nil {
			row = make([]float64, 0, len(assets))
		}
		if idx != len(row) {
			return nil, &statistics.InvalidInputError{
				Reason: fmt.Sprintf("unexpected asset order in period %s", period),
			}
		}
		data[len(data)-1] = append(row, ratio)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read returns: %w", err)
	}
	if len(labels) == 0 {
		return nil, sql.ErrNoRows
	}

	return statistics.NewReturnsMatrix(labels, assets, data)
}
